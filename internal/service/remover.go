package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jask/vaultwallet/internal/i18n"
	"github.com/jask/vaultwallet/internal/state"
	"github.com/jask/vaultwallet/internal/vault"
)

// WalletRoute is where a successful removal sends the user.
const WalletRoute = "/wallet/"

// ErrRemovalInFlight is returned when Remove is called while another removal runs.
var ErrRemovalInFlight = errors.New("account removal already in progress")

// Outcome of a removal attempt that reached the vault.
type Outcome int

const (
	Rejected Outcome = iota
	Removed
)

func (o Outcome) String() string {
	if o == Removed {
		return "removed"
	}
	return "rejected"
}

// State is the slice of the global store the removal needs.
type State interface {
	SelectedAccountName(ctx context.Context) (string, error)
	SelectedAccountMeta(ctx context.Context) (vault.Meta, error)
	DeleteAccount(ctx context.Context, name string) error
	GenerateAlert(ctx context.Context, severity state.Severity, title, message string) error
}

// Vaults opens the accessor for an account's backend.
type Vaults interface {
	Open(ctx context.Context, pw vault.Password, account string, meta vault.Meta) (vault.Accessor, error)
}

// Navigator moves the UI to another route.
type Navigator interface {
	Push(path string)
}

// AccountRemover deletes the selected account from its vault and the wallet.
type AccountRemover struct {
	State  State
	Vaults Vaults
	Nav    Navigator
	Text   i18n.Translator
	Log    *zap.Logger

	inflight atomic.Bool
}

// Remove unlocks the selected account's vault with pw and removes its secret.
// Vault failures are reported to the user as an "incorrect password" alert and
// yield Rejected with a nil error. Errors are returned only when the wallet
// state itself cannot be read or written, or another removal is running.
func (s *AccountRemover) Remove(ctx context.Context, pw vault.Password) (Outcome, error) {
	if !s.inflight.CompareAndSwap(false, true) {
		return Rejected, ErrRemovalInFlight
	}
	defer s.inflight.Store(false)

	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	name, err := s.State.SelectedAccountName(ctx)
	if err != nil {
		return Rejected, fmt.Errorf("selected account: %w", err)
	}
	meta, err := s.State.SelectedAccountMeta(ctx)
	if err != nil {
		return Rejected, fmt.Errorf("selected account meta: %w", err)
	}

	if err := s.removeSecret(ctx, pw, name, meta); err != nil {
		log.Debug("account removal rejected",
			zap.String("account", name),
			zap.String("vault", string(meta.Type)),
			zap.Bool("password", pw.Present()),
			zap.NamedError("cause", err))
		alertErr := s.State.GenerateAlert(ctx, state.SeverityError,
			s.Text.T("changePassword:incorrectPassword"),
			s.Text.T("changePassword:incorrectPasswordExplanation"))
		if alertErr != nil {
			return Rejected, alertErr
		}
		return Rejected, nil
	}

	if err := s.State.DeleteAccount(ctx, name); err != nil {
		return Rejected, err
	}
	s.Nav.Push(WalletRoute)
	if err := s.State.GenerateAlert(ctx, state.SeveritySuccess,
		s.Text.T("settings:accountDeleted"),
		s.Text.T("settings:accountDeletedExplanation")); err != nil {
		return Removed, err
	}
	log.Info("account removed", zap.String("account", name), zap.String("vault", string(meta.Type)))
	return Removed, nil
}

func (s *AccountRemover) removeSecret(ctx context.Context, pw vault.Password, name string, meta vault.Meta) error {
	acc, err := s.Vaults.Open(ctx, pw, name, meta)
	if err != nil {
		return err
	}
	return acc.RemoveAccount(ctx)
}
