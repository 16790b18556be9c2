package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/vaultwallet/internal/database"
	"github.com/jask/vaultwallet/internal/i18n"
	"github.com/jask/vaultwallet/internal/state"
	"github.com/jask/vaultwallet/internal/vault"
)

type alertCall struct {
	severity state.Severity
	title    string
	message  string
}

type fakeState struct {
	name    string
	meta    vault.Meta
	deleted []string
	alerts  []alertCall
}

func (f *fakeState) SelectedAccountName(context.Context) (string, error) { return f.name, nil }
func (f *fakeState) SelectedAccountMeta(context.Context) (vault.Meta, error) {
	return f.meta, nil
}
func (f *fakeState) DeleteAccount(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}
func (f *fakeState) GenerateAlert(_ context.Context, sev state.Severity, title, message string) error {
	f.alerts = append(f.alerts, alertCall{sev, title, message})
	return nil
}

func (f *fakeState) count(sev state.Severity) int {
	n := 0
	for _, a := range f.alerts {
		if a.severity == sev {
			n++
		}
	}
	return n
}

type fakeAccessor struct {
	err     error
	removed int
}

func (a *fakeAccessor) RemoveAccount(context.Context) error {
	a.removed++
	return a.err
}

type fakeVaults struct {
	openErr   error
	accessor  *fakeAccessor
	passwords []vault.Password
	accounts  []string
	block     chan struct{}
}

func (v *fakeVaults) Open(_ context.Context, pw vault.Password, account string, _ vault.Meta) (vault.Accessor, error) {
	if v.block != nil {
		<-v.block
	}
	v.passwords = append(v.passwords, pw)
	v.accounts = append(v.accounts, account)
	if v.openErr != nil {
		return nil, v.openErr
	}
	return v.accessor, nil
}

type fakeNav struct{ paths []string }

func (n *fakeNav) Push(path string) { n.paths = append(n.paths, path) }

func newRemover(t *testing.T, st *fakeState, vaults *fakeVaults) (*AccountRemover, *fakeNav) {
	t.Helper()
	text, err := i18n.Load("en")
	require.NoError(t, err)
	nav := &fakeNav{}
	return &AccountRemover{State: st, Vaults: vaults, Nav: nav, Text: text}, nav
}

func TestRemoveSuccess(t *testing.T) {
	st := &fakeState{name: "Main", meta: vault.Meta{Type: vault.TypeSeedFile}}
	vaults := &fakeVaults{accessor: &fakeAccessor{}}
	r, nav := newRemover(t, st, vaults)

	out, err := r.Remove(context.Background(), vault.PasswordOf("pw"))
	require.NoError(t, err)
	require.Equal(t, Removed, out)
	require.Equal(t, []string{"Main"}, st.deleted)
	require.Equal(t, []string{WalletRoute}, nav.paths)
	require.Equal(t, 1, st.count(state.SeveritySuccess))
	require.Equal(t, 0, st.count(state.SeverityError))
	require.Equal(t, "Account deleted", st.alerts[0].title)
	require.Equal(t, []string{"Main"}, vaults.accounts)
	require.Equal(t, "pw", vaults.passwords[0].Value())
	require.Equal(t, 1, vaults.accessor.removed)
}

func TestRemoveFailureAtRemoval(t *testing.T) {
	st := &fakeState{name: "Main", meta: vault.Meta{Type: vault.TypeSeedFile}}
	vaults := &fakeVaults{accessor: &fakeAccessor{err: vault.ErrIncorrectPassword}}
	r, nav := newRemover(t, st, vaults)

	out, err := r.Remove(context.Background(), vault.PasswordOf("bad"))
	require.NoError(t, err)
	require.Equal(t, Rejected, out)
	require.Empty(t, st.deleted)
	require.Empty(t, nav.paths)
	require.Equal(t, 1, st.count(state.SeverityError))
	require.Equal(t, 0, st.count(state.SeveritySuccess))
	require.Equal(t, "Incorrect password", st.alerts[0].title)
	require.Equal(t, "The password you entered is incorrect. Please try again.", st.alerts[0].message)
}

func TestRemoveFailureAtOpenLooksTheSame(t *testing.T) {
	st := &fakeState{name: "Main", meta: vault.Meta{Type: vault.TypeKeystore}}
	vaults := &fakeVaults{openErr: errors.New("disk on fire")}
	r, nav := newRemover(t, st, vaults)

	out, err := r.Remove(context.Background(), vault.PasswordOf("pw"))
	require.NoError(t, err)
	require.Equal(t, Rejected, out)
	require.Empty(t, st.deleted)
	require.Empty(t, nav.paths)
	require.Len(t, st.alerts, 1)
	require.Equal(t, "Incorrect password", st.alerts[0].title)
}

func TestRemoveWithoutPasswordIsForwarded(t *testing.T) {
	st := &fakeState{name: "Cold", meta: vault.Meta{Type: vault.TypeLedger}}
	vaults := &fakeVaults{accessor: &fakeAccessor{}}
	r, nav := newRemover(t, st, vaults)

	out, err := r.Remove(context.Background(), vault.NoPassword)
	require.NoError(t, err)
	require.Equal(t, Removed, out)
	require.False(t, vaults.passwords[0].Present())
	require.Equal(t, []string{WalletRoute}, nav.paths)

	vaults.openErr = vault.ErrPasswordRequired
	out, err = r.Remove(context.Background(), vault.NoPassword)
	require.NoError(t, err)
	require.Equal(t, Rejected, out)
	require.Equal(t, 1, st.count(state.SeverityError))
}

func TestRemoveTwiceIsNotDeduplicated(t *testing.T) {
	st := &fakeState{name: "Main", meta: vault.Meta{Type: vault.TypeSeedFile}}
	vaults := &fakeVaults{accessor: &fakeAccessor{}}
	r, nav := newRemover(t, st, vaults)

	for i := 0; i < 2; i++ {
		out, err := r.Remove(context.Background(), vault.PasswordOf("pw"))
		require.NoError(t, err)
		require.Equal(t, Removed, out)
	}
	require.Equal(t, []string{"Main", "Main"}, st.deleted)
	require.Equal(t, 2, st.count(state.SeveritySuccess))
	require.Len(t, nav.paths, 2)
}

func TestRemoveRejectsConcurrentCall(t *testing.T) {
	st := &fakeState{name: "Main", meta: vault.Meta{Type: vault.TypeSeedFile}}
	vaults := &fakeVaults{accessor: &fakeAccessor{}, block: make(chan struct{})}
	r, _ := newRemover(t, st, vaults)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.Remove(context.Background(), vault.PasswordOf("pw"))
	}()
	require.Eventually(t, func() bool { return r.inflight.Load() }, time.Second, 5*time.Millisecond)

	_, err := r.Remove(context.Background(), vault.PasswordOf("pw"))
	require.ErrorIs(t, err, ErrRemovalInFlight)

	close(vaults.block)
	wg.Wait()
	require.Equal(t, []string{"Main"}, st.deleted)
}

// End to end against the real store and the seed file backend.
func TestRemoveWithStoreAndSeedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "wallet.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))
	db, err := database.Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := state.New(db, nil)
	seeds := vault.NewSeedFile(filepath.Join(dir, "seeds.json"), 1<<10, 1)
	reg := vault.NewRegistry()
	reg.Register(vault.TypeSeedFile, seeds)

	meta, err := seeds.Store("Main", "pw", []byte("seed"))
	require.NoError(t, err)
	_, err = st.AddAccount(ctx, "Main", meta)
	require.NoError(t, err)

	text, err := i18n.Load("en")
	require.NoError(t, err)
	nav := &fakeNav{}
	r := &AccountRemover{State: st, Vaults: reg, Nav: nav, Text: text}

	out, err := r.Remove(ctx, vault.PasswordOf("nope"))
	require.NoError(t, err)
	require.Equal(t, Rejected, out)
	list, err := st.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	out, err = r.Remove(ctx, vault.PasswordOf("pw"))
	require.NoError(t, err)
	require.Equal(t, Removed, out)
	list, err = st.Accounts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	alerts := st.DrainAlerts()
	require.Len(t, alerts, 2)
	require.Equal(t, state.SeverityError, alerts[0].Severity)
	require.Equal(t, state.SeveritySuccess, alerts[1].Severity)
}
