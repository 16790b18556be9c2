package vault

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/pkg/errors"
)

const seedFileVersion = 1

// seedEntry wraps a seed encrypted with the keystore's v3 scheme. Account is
// checked on open so an entry copied under another name is refused.
type seedEntry struct {
	Account string              `json:"account"`
	Params  keystore.CryptoJSON `json:"params"`
}

type seedDoc struct {
	Version int                  `json:"version"`
	Seeds   map[string]seedEntry `json:"seeds"`
}

// SeedFile is the software backend: encrypted seeds in one JSON file.
type SeedFile struct {
	mu      sync.Mutex
	path    string
	scryptN int
	scryptP int
}

func NewSeedFile(path string, scryptN, scryptP int) *SeedFile {
	return &SeedFile{path: path, scryptN: scryptN, scryptP: scryptP}
}

func (s *SeedFile) RequiresPassword() bool { return true }

// Store encrypts seed for account under password, replacing any previous entry.
func (s *SeedFile) Store(account, password string, seed []byte) (Meta, error) {
	if account == "" {
		return Meta{}, errors.New("seedfile: account name required")
	}
	params, err := keystore.EncryptDataV3(seed, []byte(password), s.scryptN, s.scryptP)
	if err != nil {
		return Meta{}, errors.Wrap(err, "seedfile: encrypt")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Meta{}, err
	}
	doc.Seeds[account] = seedEntry{Account: account, Params: params}
	if err := writeJSON(s.path, doc); err != nil {
		return Meta{}, err
	}
	return Meta{Type: TypeSeedFile}, nil
}

// Open decrypts the account's seed, which verifies the password.
func (s *SeedFile) Open(ctx context.Context, pw Password, account string, _ Meta) (Accessor, error) {
	if !pw.Present() {
		return nil, ErrPasswordRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	entry, ok := doc.Seeds[account]
	if !ok {
		return nil, errors.Wrapf(ErrAccountNotFound, "seedfile %q", account)
	}
	if _, err := openSeed(entry, account, pw.Value()); err != nil {
		return nil, err
	}
	return &seedAccessor{file: s, account: account}, nil
}

func (s *SeedFile) load() (seedDoc, error) {
	doc := seedDoc{Version: seedFileVersion}
	if err := readJSON(s.path, &doc); err != nil {
		return seedDoc{}, err
	}
	if doc.Version != seedFileVersion {
		return seedDoc{}, errors.Errorf("seedfile: unsupported version %d", doc.Version)
	}
	if doc.Seeds == nil {
		doc.Seeds = map[string]seedEntry{}
	}
	return doc, nil
}

type seedAccessor struct {
	file    *SeedFile
	account string
}

func (a *seedAccessor) RemoveAccount(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.file.mu.Lock()
	defer a.file.mu.Unlock()
	doc, err := a.file.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Seeds[a.account]; !ok {
		return errors.Wrapf(ErrAccountNotFound, "seedfile %q", a.account)
	}
	delete(doc.Seeds, a.account)
	return writeJSON(a.file.path, doc)
}

func openSeed(entry seedEntry, account, password string) ([]byte, error) {
	if entry.Account != account {
		return nil, errors.Wrapf(ErrAccountNotFound, "seedfile entry %q belongs to %q", account, entry.Account)
	}
	seed, err := keystore.DecryptDataV3(entry.Params, password)
	switch {
	case err == nil:
		return seed, nil
	case errors.Is(err, keystore.ErrDecrypt):
		return nil, errors.Wrapf(ErrIncorrectPassword, "seedfile %q", account)
	default:
		return nil, errors.Wrapf(err, "seedfile %q: decrypt", account)
	}
}
