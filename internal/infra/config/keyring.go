package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const (
	// DefaultKeyringKey is the item key holding the workspace token.
	DefaultKeyringKey = "token"
	// KeyringPasswordEnv unlocks the encrypted file backend.
	KeyringPasswordEnv = "DATABRICKS_MCP_KEYRING_PASSWORD"

	defaultKeyringDir = "~/.databricks-mcp/keyring"
)

// KeyringOpener opens a keyring for the given configuration.
type KeyringOpener func(cfg keyring.Config) (keyring.Keyring, error)

// OpenOSKeyring opens the platform keyring.
func OpenOSKeyring(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var supportedBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.WinCredBackend,
	keyring.SecretServiceBackend,
	keyring.KWalletBackend,
	keyring.KeyCtlBackend,
	keyring.PassBackend,
	keyring.FileBackend,
}

func knownBackend(name string) bool {
	for _, backend := range supportedBackends {
		if string(backend) == name {
			return true
		}
	}
	return false
}

func keyringConfig(raw rawKeyring) keyring.Config {
	cfg := keyring.Config{
		ServiceName:      raw.Service,
		PassPrefix:       raw.Service,
		WinCredPrefix:    raw.Service,
		FileDir:          defaultKeyringDir,
		FilePasswordFunc: keyring.FixedStringPrompt(os.Getenv(KeyringPasswordEnv)),
	}
	if raw.Backend != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(raw.Backend)}
	}
	return cfg
}

func readKeyringToken(open KeyringOpener, raw rawKeyring) (string, error) {
	key := raw.Key
	if key == "" {
		key = DefaultKeyringKey
	}
	ring, err := open(keyringConfig(raw))
	if err != nil {
		return "", fmt.Errorf("open keyring %q: %w", raw.Service, err)
	}
	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("keyring %q has no item %q", raw.Service, key)
		}
		return "", fmt.Errorf("read keyring item %q: %w", key, err)
	}
	token := strings.TrimSpace(string(item.Data))
	if token == "" {
		return "", fmt.Errorf("keyring item %q is empty", key)
	}
	return token, nil
}
