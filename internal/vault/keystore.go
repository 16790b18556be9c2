package vault

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// MetaAddress is the Meta field holding an account's hex address.
const MetaAddress = "address"

// Keystore stores accounts as go-ethereum encrypted key files.
type Keystore struct {
	dir     string
	scryptN int
	scryptP int

	once sync.Once
	ks   *keystore.KeyStore
}

func NewKeystore(dir string, scryptN, scryptP int) *Keystore {
	return &Keystore{dir: dir, scryptN: scryptN, scryptP: scryptP}
}

func (k *Keystore) store() *keystore.KeyStore {
	k.once.Do(func() {
		k.ks = keystore.NewKeyStore(k.dir, k.scryptN, k.scryptP)
	})
	return k.ks
}

func (k *Keystore) RequiresPassword() bool { return true }

// Import encrypts key under password and returns the account's Meta.
func (k *Keystore) Import(key *ecdsa.PrivateKey, password string) (Meta, error) {
	acc, err := k.store().ImportECDSA(key, password)
	if err != nil {
		return Meta{}, errors.Wrap(err, "keystore: import")
	}
	return keystoreMeta(acc), nil
}

// Generate creates a fresh key encrypted under password.
func (k *Keystore) Generate(password string) (Meta, error) {
	acc, err := k.store().NewAccount(password)
	if err != nil {
		return Meta{}, errors.Wrap(err, "keystore: new account")
	}
	return keystoreMeta(acc), nil
}

func keystoreMeta(acc accounts.Account) Meta {
	return Meta{Type: TypeKeystore, Fields: map[string]string{MetaAddress: acc.Address.Hex()}}
}

func (k *Keystore) Open(ctx context.Context, pw Password, account string, meta Meta) (Accessor, error) {
	if !pw.Present() {
		return nil, ErrPasswordRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hex := meta.Field(MetaAddress)
	if !common.IsHexAddress(hex) {
		return nil, errors.Errorf("keystore: account %q has invalid address %q", account, hex)
	}
	acc, err := k.store().Find(accounts.Account{Address: common.HexToAddress(hex)})
	if err != nil {
		return nil, errors.Wrapf(ErrAccountNotFound, "keystore %q: %v", account, err)
	}
	return &keystoreAccessor{ks: k.store(), account: acc, password: pw.Value()}, nil
}

type keystoreAccessor struct {
	ks       *keystore.KeyStore
	account  accounts.Account
	password string
}

// RemoveAccount deletes the key file after the keystore has verified the passphrase.
func (a *keystoreAccessor) RemoveAccount(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := a.ks.Delete(a.account, a.password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keystore.ErrDecrypt):
		return errors.Wrapf(ErrIncorrectPassword, "keystore %s", a.account.Address.Hex())
	case errors.Is(err, keystore.ErrNoMatch):
		return errors.Wrapf(ErrAccountNotFound, "keystore %s", a.account.Address.Hex())
	default:
		return errors.Wrap(err, "keystore: delete")
	}
}
