package app

import (
	"fmt"
	"log/slog"

	"github.com/tidylist/tidylist/pkg/jwtx"
)

// InitSigningKeys creates a new KeyManager with ephemeral Ed25519 keys.
// Keys are generated on startup and held only in memory, so all existing
// tokens become invalid when the service restarts.
//
// By default, generates 3 signing keys with random identifiers for load
// distribution. Use TODO_NUM_KEYS to customize.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
	}

	logger.Info("generated ephemeral signing keys",
		"num_keys", keyManager.NumSigners(),
		"issuer", cfg.Issuer,
	)
	logger.Warn("all existing tokens are now invalid due to key rotation on startup")

	return keyManager, nil
}
