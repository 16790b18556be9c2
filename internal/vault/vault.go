// Package vault holds the secret backends an account can live in and the
// registry that picks one by the account's backend tag.
package vault

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrUnknownBackend    = errors.New("vault: unknown backend")
	ErrPasswordRequired  = errors.New("vault: password required")
	ErrIncorrectPassword = errors.New("vault: incorrect password")
	ErrAccountNotFound   = errors.New("vault: account not found")
)

// Type tags the backend that stores an account's secret.
type Type string

const (
	TypeKeystore Type = "keystore"
	TypeSeedFile Type = "seedfile"
	TypeKeychain Type = "keychain"
	TypeLedger   Type = "ledger"
)

// Meta describes which backend an account uses plus backend-specific fields.
type Meta struct {
	Type   Type              `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Field returns the named backend field or "".
func (m Meta) Field(name string) string {
	return m.Fields[name]
}

// Password is an optional plaintext unlock password.
type Password struct {
	value string
	set   bool
}

// NoPassword is the absent password.
var NoPassword = Password{}

func PasswordOf(s string) Password {
	return Password{value: s, set: true}
}

func (p Password) Value() string { return p.value }
func (p Password) Present() bool { return p.set }

// String never reveals the password.
func (p Password) String() string {
	if !p.set {
		return "<none>"
	}
	return "<redacted>"
}

// Accessor is scoped to one account's stored secret.
type Accessor interface {
	RemoveAccount(ctx context.Context) error
}

// Backend opens accessors for accounts stored in it.
type Backend interface {
	Open(ctx context.Context, pw Password, account string, meta Meta) (Accessor, error)
	RequiresPassword() bool
}

// Registry dispatches on Meta.Type.
type Registry struct {
	mu       sync.RWMutex
	backends map[Type]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: map[Type]Backend{}}
}

// Register replaces any backend already registered under t.
func (r *Registry) Register(t Type, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[t] = b
}

func (r *Registry) backend(t Type) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[t]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "type %q", t)
	}
	return b, nil
}

// Open builds the accessor for account from the backend named by meta.Type.
func (r *Registry) Open(ctx context.Context, pw Password, account string, meta Meta) (Accessor, error) {
	b, err := r.backend(meta.Type)
	if err != nil {
		return nil, err
	}
	return b.Open(ctx, pw, account, meta)
}

// RequiresPassword reports whether removing from t needs a password.
// Unknown types report true so callers fall back to the password prompt.
func (r *Registry) RequiresPassword(t Type) bool {
	b, err := r.backend(t)
	if err != nil {
		return true
	}
	return b.RequiresPassword()
}

func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.backends))
	for t := range r.backends {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
