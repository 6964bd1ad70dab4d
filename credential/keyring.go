// Package credential stores the backend auth token in the OS keyring,
// with an encrypted file fallback for headless machines.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"

	"tasksync/internal/consts"
)

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: consts.KeyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/tasksync/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("tasksync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Token retrieves the stored auth token.
func Token() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(consts.KeyringToken)
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	return string(item.Data), nil
}

// SetToken stores the auth token.
func SetToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: consts.KeyringToken, Data: []byte(token)}); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// DeleteToken removes the stored auth token.
func DeleteToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Remove(consts.KeyringToken); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
