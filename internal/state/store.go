// Package state is the wallet's global store: account selectors and the
// commands that mutate them.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/vaultwallet/internal/database"
	"github.com/jask/vaultwallet/internal/database/repository"
	"github.com/jask/vaultwallet/internal/vault"
)

// ErrNoSelection is returned by selectors when no account is selected.
var ErrNoSelection = errors.New("no account selected")

// Severity of a user-facing alert.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Alert is a queued user-facing notification.
type Alert struct {
	ID       string
	Severity Severity
	Title    string
	Message  string
}

// NotFoundError names a missing account and the closest existing one.
type NotFoundError struct {
	Name       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("account %q not found", e.Name)
	}
	return fmt.Sprintf("account %q not found (did you mean %q?)", e.Name, e.Suggestion)
}

func (e *NotFoundError) Unwrap() error { return repository.ErrNotFound }

// Store owns the account list, the selection and the alert queue.
type Store struct {
	db       *sql.DB
	accounts *repository.AccountRepo
	settings *repository.SettingsRepo
	alerts   *repository.AlertRepo
	log      *zap.Logger

	mu      sync.Mutex
	pending []Alert
}

func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:       db,
		accounts: repository.NewAccountRepo(db),
		settings: repository.NewSettingsRepo(db),
		alerts:   repository.NewAlertRepo(db),
		log:      log,
	}
}

func (s *Store) Accounts(ctx context.Context) ([]repository.Account, error) {
	return s.accounts.List(ctx)
}

// AddAccount stores a new account and selects it when nothing is selected.
func (s *Store) AddAccount(ctx context.Context, name string, meta vault.Meta) (repository.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Account{}, errors.New("account name required")
	}
	n, err := s.accounts.Count(ctx)
	if err != nil {
		return repository.Account{}, err
	}
	a := repository.Account{
		ID:        uuid.NewString(),
		Name:      name,
		VaultType: string(meta.Type),
		Meta:      meta.Fields,
		SortOrder: n,
	}
	if err := s.accounts.Upsert(ctx, a); err != nil {
		return repository.Account{}, fmt.Errorf("add account %q: %w", name, err)
	}
	if err := database.EnsureSelection(ctx, s.db); err != nil {
		return repository.Account{}, err
	}
	s.log.Info("account added", zap.String("account", name), zap.String("vault", a.VaultType))
	return s.accounts.ByName(ctx, name)
}

// SelectAccount fails with *NotFoundError for unknown names.
func (s *Store) SelectAccount(ctx context.Context, name string) error {
	if _, err := s.accounts.ByName(ctx, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.notFound(ctx, name)
		}
		return err
	}
	return s.settings.Set(ctx, database.SelectedAccountKey, name)
}

func (s *Store) notFound(ctx context.Context, name string) error {
	list, err := s.accounts.List(ctx)
	if err != nil {
		return err
	}
	nf := &NotFoundError{Name: name}
	best := -1
	for _, a := range list {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(a.Name))
		if d > len(a.Name)/2+1 {
			continue
		}
		if best < 0 || d < best {
			best = d
			nf.Suggestion = a.Name
		}
	}
	return nf
}

func (s *Store) SelectedAccount(ctx context.Context) (repository.Account, error) {
	name, err := s.settings.Get(ctx, database.SelectedAccountKey)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Account{}, ErrNoSelection
	}
	if err != nil {
		return repository.Account{}, err
	}
	a, err := s.accounts.ByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Account{}, ErrNoSelection
	}
	return a, err
}

func (s *Store) SelectedAccountName(ctx context.Context) (string, error) {
	a, err := s.SelectedAccount(ctx)
	if err != nil {
		return "", err
	}
	return a.Name, nil
}

func (s *Store) SelectedAccountMeta(ctx context.Context) (vault.Meta, error) {
	a, err := s.SelectedAccount(ctx)
	if err != nil {
		return vault.Meta{}, err
	}
	return MetaOf(a), nil
}

// MetaOf converts a stored account into its vault metadata.
func MetaOf(a repository.Account) vault.Meta {
	return vault.Meta{Type: vault.Type(a.VaultType), Fields: a.Meta}
}

// DeleteAccount drops name from the wallet and moves the selection to the
// first remaining account, or clears it.
func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.accounts.WithTx(tx).DeleteByName(ctx, name); err != nil {
			return err
		}
		settings := s.settings.WithTx(tx)
		current, err := settings.Get(ctx, database.SelectedAccountKey)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if current != name {
			return nil
		}
		rest, err := s.accounts.WithTx(tx).List(ctx)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return settings.Delete(ctx, database.SelectedAccountKey)
		}
		return settings.Set(ctx, database.SelectedAccountKey, rest[0].Name)
	})
	if err != nil {
		return fmt.Errorf("delete account %q: %w", name, err)
	}
	s.log.Info("account deleted", zap.String("account", name))
	return nil
}

// GenerateAlert records the alert and queues it for the UI.
func (s *Store) GenerateAlert(ctx context.Context, severity Severity, title, message string) error {
	a := Alert{ID: uuid.NewString(), Severity: severity, Title: title, Message: message}
	err := s.alerts.Insert(ctx, repository.Alert{
		ID:        a.ID,
		Severity:  string(severity),
		Title:     title,
		Message:   message,
		CreatedAt: database.Now(),
	})
	if err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	s.mu.Lock()
	s.pending = append(s.pending, a)
	s.mu.Unlock()
	return nil
}

// DrainAlerts returns queued alerts oldest first and empties the queue.
func (s *Store) DrainAlerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]Alert, error) {
	rows, err := s.alerts.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(rows))
	for _, r := range rows {
		out = append(out, Alert{ID: r.ID, Severity: Severity(r.Severity), Title: r.Title, Message: r.Message})
	}
	return out, nil
}
