package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/vaultwallet/internal/config"
	"github.com/jask/vaultwallet/internal/database"
	"github.com/jask/vaultwallet/internal/i18n"
	"github.com/jask/vaultwallet/internal/logging"
	"github.com/jask/vaultwallet/internal/service"
	"github.com/jask/vaultwallet/internal/state"
	"github.com/jask/vaultwallet/internal/testdata"
	"github.com/jask/vaultwallet/internal/tui"
	"github.com/jask/vaultwallet/internal/vault"
)

// alertHistory is how many past alerts survive a restart.
const alertHistory = 200

func main() {
	dev := flag.Bool("dev", false, "seed demo accounts (password \""+testdata.DemoPassword+"\")")
	account := flag.String("account", "", "select this account on start")
	locale := flag.String("locale", "", "override the configured locale")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *locale != "" {
		cfg.UI.Locale = *locale
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.Migrations); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSelection(ctx, db); err != nil {
		log.Fatalf("ensure selection: %v", err)
	}

	maintenance := &service.MaintenanceService{DB: db}
	if n, err := maintenance.PruneAlerts(ctx, alertHistory); err != nil {
		logger.Warn("prune alerts", zap.Error(err))
	} else if n > 0 {
		logger.Debug("pruned alerts", zap.Int64("deleted", n))
	}

	text, err := i18n.Load(cfg.UI.Locale)
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}

	// vault backends
	backends := testdata.Backends{
		Keystore: vault.NewKeystore(cfg.Vault.KeystoreDir, cfg.Vault.ScryptN, cfg.Vault.ScryptP),
		SeedFile: vault.NewSeedFile(cfg.Vault.SeedFile, cfg.Vault.ScryptN, cfg.Vault.ScryptP),
		Keychain: vault.NewKeychain(cfg.Vault.KeychainDir),
		Ledger:   vault.NewLedger(cfg.Vault.LedgerFile),
	}
	vaults := vault.NewRegistry()
	vaults.Register(vault.TypeKeystore, backends.Keystore)
	vaults.Register(vault.TypeSeedFile, backends.SeedFile)
	vaults.Register(vault.TypeKeychain, backends.Keychain)
	vaults.Register(vault.TypeLedger, backends.Ledger)

	store := state.New(db, logger)

	if *dev {
		created, err := testdata.Seed(ctx, store, backends)
		if err != nil {
			log.Fatalf("seed demo accounts: %v", err)
		}
		logger.Info("demo accounts seeded", zap.Strings("accounts", created))
	}

	if *account != "" {
		if err := store.SelectAccount(ctx, *account); err != nil {
			var nf *state.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintln(os.Stderr, nf.Error())
				os.Exit(2)
			}
			log.Fatalf("select account: %v", err)
		}
	}

	router := tui.NewRouter(tui.RouteWallet)
	remover := &service.AccountRemover{
		State:  store,
		Vaults: vaults,
		Nav:    router,
		Text:   text,
		Log:    logger,
	}

	p := tea.NewProgram(tui.New(ctx, cfg, tui.Deps{
		State:   store,
		Remover: remover,
		Vaults:  vaults,
		Text:    text,
		Router:  router,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
