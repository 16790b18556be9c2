package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const testScryptN = 1 << 10

type stubBackend struct {
	needsPassword bool
	opened        []string
}

func (b *stubBackend) RequiresPassword() bool { return b.needsPassword }

func (b *stubBackend) Open(_ context.Context, _ Password, account string, _ Meta) (Accessor, error) {
	b.opened = append(b.opened, account)
	return &ledgerAccessor{}, nil
}

func TestRegistryDispatchesOnType(t *testing.T) {
	reg := NewRegistry()
	soft := &stubBackend{needsPassword: true}
	hard := &stubBackend{}
	reg.Register(TypeSeedFile, soft)
	reg.Register(TypeLedger, hard)

	_, err := reg.Open(context.Background(), PasswordOf("pw"), "Main", Meta{Type: TypeSeedFile})
	require.NoError(t, err)
	_, err = reg.Open(context.Background(), NoPassword, "Cold", Meta{Type: TypeLedger})
	require.NoError(t, err)
	require.Equal(t, []string{"Main"}, soft.opened)
	require.Equal(t, []string{"Cold"}, hard.opened)

	_, err = reg.Open(context.Background(), NoPassword, "X", Meta{Type: "paper"})
	require.ErrorIs(t, err, ErrUnknownBackend)

	require.True(t, reg.RequiresPassword(TypeSeedFile))
	require.False(t, reg.RequiresPassword(TypeLedger))
	require.True(t, reg.RequiresPassword("paper"))
	require.Equal(t, []Type{TypeLedger, TypeSeedFile}, reg.Types())
}

func TestPasswordNeverPrints(t *testing.T) {
	pw := PasswordOf("hunter2")
	require.True(t, pw.Present())
	require.Equal(t, "hunter2", pw.Value())
	require.Equal(t, "<redacted>", pw.String())
	require.False(t, NoPassword.Present())
	require.Equal(t, "<none>", NoPassword.String())
}

func TestSeedFileRemove(t *testing.T) {
	ctx := context.Background()
	sf := NewSeedFile(filepath.Join(t.TempDir(), "seeds.json"), testScryptN, 1)

	meta, err := sf.Store("Main", "correct horse", []byte("seed words"))
	require.NoError(t, err)
	require.Equal(t, TypeSeedFile, meta.Type)
	_, err = sf.Store("Other", "other", []byte("other seed"))
	require.NoError(t, err)

	_, err = sf.Open(ctx, NoPassword, "Main", meta)
	require.ErrorIs(t, err, ErrPasswordRequired)
	_, err = sf.Open(ctx, PasswordOf("wrong"), "Main", meta)
	require.ErrorIs(t, err, ErrIncorrectPassword)

	acc, err := sf.Open(ctx, PasswordOf("correct horse"), "Main", meta)
	require.NoError(t, err)
	require.NoError(t, acc.RemoveAccount(ctx))
	require.ErrorIs(t, acc.RemoveAccount(ctx), ErrAccountNotFound)

	_, err = sf.Open(ctx, PasswordOf("correct horse"), "Main", meta)
	require.ErrorIs(t, err, ErrAccountNotFound)
	_, err = sf.Open(ctx, PasswordOf("other"), "Other", meta)
	require.NoError(t, err)
}

func TestSeedFileBindsAccountName(t *testing.T) {
	ctx := context.Background()
	sf := NewSeedFile(filepath.Join(t.TempDir(), "seeds.json"), testScryptN, 1)
	_, err := sf.Store("Main", "pw", []byte("seed"))
	require.NoError(t, err)

	sf.mu.Lock()
	doc, err := sf.load()
	require.NoError(t, err)
	doc.Seeds["Copy"] = doc.Seeds["Main"]
	require.NoError(t, writeJSON(sf.path, doc))
	sf.mu.Unlock()

	_, err = sf.Open(ctx, PasswordOf("pw"), "Copy", Meta{Type: TypeSeedFile})
	require.ErrorIs(t, err, ErrAccountNotFound)
	_, err = sf.Open(ctx, PasswordOf("pw"), "Main", Meta{Type: TypeSeedFile})
	require.NoError(t, err)
}

func TestSeedFileUsesKeystoreEncryption(t *testing.T) {
	sf := NewSeedFile(filepath.Join(t.TempDir(), "seeds.json"), testScryptN, 1)
	_, err := sf.Store("Main", "pw", []byte("seed words"))
	require.NoError(t, err)

	doc, err := sf.load()
	require.NoError(t, err)
	entry := doc.Seeds["Main"]
	require.Equal(t, "Main", entry.Account)
	require.Equal(t, "scrypt", entry.Params.KDF)

	seed, err := keystore.DecryptDataV3(entry.Params, "pw")
	require.NoError(t, err)
	require.Equal(t, []byte("seed words"), seed)

	_, err = openSeed(entry, "Main", "nope")
	require.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestKeystoreRemove(t *testing.T) {
	ctx := context.Background()
	ks := NewKeystore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	meta, err := ks.Import(key, "pass")
	require.NoError(t, err)
	require.Equal(t, TypeKeystore, meta.Type)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), meta.Field(MetaAddress))

	_, err = ks.Open(ctx, NoPassword, "Main", meta)
	require.ErrorIs(t, err, ErrPasswordRequired)
	_, err = ks.Open(ctx, PasswordOf("pass"), "Main", Meta{Type: TypeKeystore, Fields: map[string]string{MetaAddress: "nope"}})
	require.Error(t, err)

	acc, err := ks.Open(ctx, PasswordOf("wrong"), "Main", meta)
	require.NoError(t, err)
	require.ErrorIs(t, acc.RemoveAccount(ctx), ErrIncorrectPassword)

	acc, err = ks.Open(ctx, PasswordOf("pass"), "Main", meta)
	require.NoError(t, err)
	require.NoError(t, acc.RemoveAccount(ctx))

	_, err = ks.Open(ctx, PasswordOf("pass"), "Main", meta)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestKeychainRemove(t *testing.T) {
	ctx := context.Background()
	kc := NewKeychain(t.TempDir())

	meta, err := kc.Store("My Wallet/1", "secret", []byte("seed"))
	require.NoError(t, err)
	require.Equal(t, TypeKeychain, meta.Type)

	_, err = kc.Open(ctx, NoPassword, "My Wallet/1", meta)
	require.ErrorIs(t, err, ErrPasswordRequired)
	_, err = kc.Open(ctx, PasswordOf("wrong"), "My Wallet/1", meta)
	require.ErrorIs(t, err, ErrIncorrectPassword)

	acc, err := kc.Open(ctx, PasswordOf("secret"), "My Wallet/1", meta)
	require.NoError(t, err)
	require.NoError(t, acc.RemoveAccount(ctx))

	_, err = kc.Open(ctx, PasswordOf("secret"), "My Wallet/1", meta)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLedgerRemoveNeedsNoPassword(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(filepath.Join(t.TempDir(), "ledger.json"))
	require.False(t, l.RequiresPassword())

	meta, err := l.Pair("Cold", "nano-x-01", 3)
	require.NoError(t, err)
	require.Equal(t, "3", meta.Field(MetaIndex))
	_, err = l.Pair("Cold", "", 0)
	require.Error(t, err)

	acc, err := l.Open(ctx, NoPassword, "Cold", meta)
	require.NoError(t, err)
	require.NoError(t, acc.RemoveAccount(ctx))

	_, err = l.Open(ctx, NoPassword, "Cold", meta)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestOpenHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLedger(filepath.Join(t.TempDir(), "ledger.json"))
	_, err := l.Open(ctx, NoPassword, "Cold", Meta{Type: TypeLedger})
	require.ErrorIs(t, err, context.Canceled)
}
