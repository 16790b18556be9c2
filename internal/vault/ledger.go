package vault

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Meta fields for hardware-backed accounts.
const (
	MetaDevice = "device"
	MetaIndex  = "index"
)

type pairing struct {
	Device   string    `json:"device"`
	Index    int       `json:"index"`
	PairedAt time.Time `json:"paired_at"`
}

// Ledger is the hardware backend. The secret never leaves the device, so only
// the local pairing record is stored and removing it needs no password.
type Ledger struct {
	mu   sync.Mutex
	path string
}

func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) RequiresPassword() bool { return false }

// Pair records account as derived at index on device.
func (l *Ledger) Pair(account, device string, index int) (Meta, error) {
	if device == "" {
		return Meta{}, errors.New("ledger: device id required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pairs, err := l.load()
	if err != nil {
		return Meta{}, err
	}
	pairs[account] = pairing{Device: device, Index: index, PairedAt: time.Now().UTC()}
	if err := writeJSON(l.path, pairs); err != nil {
		return Meta{}, err
	}
	return Meta{Type: TypeLedger, Fields: map[string]string{
		MetaDevice: device,
		MetaIndex:  strconv.Itoa(index),
	}}, nil
}

// Open ignores pw.
func (l *Ledger) Open(ctx context.Context, _ Password, account string, _ Meta) (Accessor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	pairs, err := l.load()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := pairs[account]; !ok {
		return nil, errors.Wrapf(ErrAccountNotFound, "ledger %q", account)
	}
	return &ledgerAccessor{ledger: l, account: account}, nil
}

func (l *Ledger) load() (map[string]pairing, error) {
	pairs := map[string]pairing{}
	if err := readJSON(l.path, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

type ledgerAccessor struct {
	ledger  *Ledger
	account string
}

func (a *ledgerAccessor) RemoveAccount(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.ledger.mu.Lock()
	defer a.ledger.mu.Unlock()
	pairs, err := a.ledger.load()
	if err != nil {
		return err
	}
	if _, ok := pairs[a.account]; !ok {
		return errors.Wrapf(ErrAccountNotFound, "ledger %q", a.account)
	}
	delete(pairs, a.account)
	return writeJSON(a.ledger.path, pairs)
}
