package testdata

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/jask/vaultwallet/internal/database/repository"
	"github.com/jask/vaultwallet/internal/vault"
)

// DemoPassword unlocks every seeded account.
const DemoPassword = "password"

// Accounts is the part of the state store Seed writes to.
type Accounts interface {
	Accounts(ctx context.Context) ([]repository.Account, error)
	AddAccount(ctx context.Context, name string, meta vault.Meta) (repository.Account, error)
}

// Backends bundles the vault backends that can hold demo secrets.
type Backends struct {
	Keystore *vault.Keystore
	SeedFile *vault.SeedFile
	Keychain *vault.Keychain
	Ledger   *vault.Ledger
}

// Seed creates one demo account per backend. Accounts that already exist are left alone.
func Seed(ctx context.Context, accounts Accounts, b Backends) ([]string, error) {
	existing, err := accounts.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.Name] = true
	}

	type demo struct {
		name   string
		create func() (vault.Meta, error)
	}
	demos := []demo{
		{"Main Account", func() (vault.Meta, error) { return b.Keystore.Generate(DemoPassword) }},
		{"Savings", func() (vault.Meta, error) {
			seed, err := randomSeed()
			if err != nil {
				return vault.Meta{}, err
			}
			return b.SeedFile.Store("Savings", DemoPassword, seed)
		}},
		{"Trading", func() (vault.Meta, error) {
			seed, err := randomSeed()
			if err != nil {
				return vault.Meta{}, err
			}
			return b.Keychain.Store("Trading", DemoPassword, seed)
		}},
		{"Cold Storage", func() (vault.Meta, error) { return b.Ledger.Pair("Cold Storage", "Nano X", 0) }},
	}

	var created []string
	for _, d := range demos {
		if have[d.name] {
			continue
		}
		meta, err := d.create()
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", d.name, err)
		}
		if _, err := accounts.AddAccount(ctx, d.name, meta); err != nil {
			return created, fmt.Errorf("add %s: %w", d.name, err)
		}
		created = append(created, d.name)
	}
	return created, nil
}

func randomSeed() ([]byte, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}
