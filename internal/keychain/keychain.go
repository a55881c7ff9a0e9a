package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "keywatch"

// TokenAccount is the keychain account holding the Telegram bot token.
const TokenAccount = "telegram_token"

// Get retrieves a secret from the system keychain. A missing entry is
// returned as "", nil.
func Get(account string) (string, error) {
	v, err := keyring.Get(serviceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	return keyring.Set(serviceName, account, value)
}
