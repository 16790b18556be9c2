package vault

import (
	"context"
	"encoding/hex"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"
)

const keychainService = "vaultwallet"

// Keychain keeps seeds in a keyring file backend unlocked by the account password.
type Keychain struct {
	dir string
}

func NewKeychain(dir string) *Keychain {
	return &Keychain{dir: dir}
}

func (k *Keychain) RequiresPassword() bool { return true }

func (k *Keychain) ring(password string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      keychainService,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          k.dir,
		FilePasswordFunc: keyring.FixedStringPrompt(password),
	})
	if err != nil {
		return nil, errors.Wrap(err, "keychain: open")
	}
	return ring, nil
}

// item keys are hex so any account name maps to a safe file name.
func keychainKey(account string) string {
	return "acct-" + hex.EncodeToString([]byte(account))
}

// Store saves seed for account under password.
func (k *Keychain) Store(account, password string, seed []byte) (Meta, error) {
	ring, err := k.ring(password)
	if err != nil {
		return Meta{}, err
	}
	err = ring.Set(keyring.Item{
		Key:   keychainKey(account),
		Data:  seed,
		Label: "vaultwallet seed: " + account,
	})
	if err != nil {
		return Meta{}, errors.Wrap(err, "keychain: set")
	}
	return Meta{Type: TypeKeychain}, nil
}

// Open reads the item, which fails unless password unlocks it.
func (k *Keychain) Open(ctx context.Context, pw Password, account string, _ Meta) (Accessor, error) {
	if !pw.Present() {
		return nil, ErrPasswordRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ring, err := k.ring(pw.Value())
	if err != nil {
		return nil, err
	}
	key := keychainKey(account)
	if _, err := ring.Get(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, errors.Wrapf(ErrAccountNotFound, "keychain %q", account)
		}
		return nil, errors.Wrapf(ErrIncorrectPassword, "keychain %q: %v", account, err)
	}
	return &keychainAccessor{ring: ring, key: key}, nil
}

type keychainAccessor struct {
	ring keyring.Keyring
	key  string
}

func (a *keychainAccessor) RemoveAccount(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.ring.Remove(a.key); err != nil {
		return errors.Wrap(err, "keychain: remove")
	}
	return nil
}
