package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/vaultwallet/internal/config"
	"github.com/jask/vaultwallet/internal/database/repository"
	"github.com/jask/vaultwallet/internal/i18n"
	"github.com/jask/vaultwallet/internal/service"
	"github.com/jask/vaultwallet/internal/state"
	"github.com/jask/vaultwallet/internal/vault"
)

// WalletState is the part of the state store the views read and mutate.
type WalletState interface {
	Accounts(ctx context.Context) ([]repository.Account, error)
	SelectAccount(ctx context.Context, name string) error
	SelectedAccountName(ctx context.Context) (string, error)
	DrainAlerts() []state.Alert
}

type Remover interface {
	Remove(ctx context.Context, pw vault.Password) (service.Outcome, error)
}

// PasswordPolicy reports whether a vault backend needs a password to unlock.
type PasswordPolicy interface {
	RequiresPassword(t vault.Type) bool
}

// Deps are the collaborators the App is built from.
type Deps struct {
	State   WalletState
	Remover Remover
	Vaults  PasswordPolicy
	Text    i18n.Translator
	Router  *Router
}

// App ties together views.
type App struct {
	ctx        context.Context
	cfg        config.Config
	state      WalletState
	remover    Remover
	policy     PasswordPolicy
	text       i18n.Translator
	router     *Router
	accounts   []repository.Account
	selected   string
	cursor     int
	remove     removeView
	toast      *state.Alert
	status     string
	dateFormat string
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	router := deps.Router
	if router == nil {
		router = NewRouter(RouteWallet)
	}
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		state:      deps.State,
		remover:    deps.Remover,
		policy:     deps.Vaults,
		text:       deps.Text,
		router:     router,
		dateFormat: cfg.UI.DateFormat,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadAccounts()
}

func (a *App) loadAccounts() tea.Cmd {
	return func() tea.Msg {
		list, err := a.state.Accounts(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		name, err := a.state.SelectedAccountName(a.ctx)
		if err != nil && !errors.Is(err, state.ErrNoSelection) {
			return errMsg{err}
		}
		return accountsMsg{Accounts: list, Selected: name}
	}
}

func (a *App) selectCmd(name string) tea.Cmd {
	return func() tea.Msg {
		if err := a.state.SelectAccount(a.ctx, name); err != nil {
			return errMsg{err}
		}
		return selectedMsg(name)
	}
}

// openRemoveCmd persists acct as the selection before the removal view opens,
// so the removal acts on the account the view shows.
func (a *App) openRemoveCmd(acct repository.Account) tea.Cmd {
	return func() tea.Msg {
		if err := a.state.SelectAccount(a.ctx, acct.Name); err != nil {
			return errMsg{err}
		}
		return openRemoveMsg{Account: acct.Name, VaultType: vault.Type(acct.VaultType)}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.router.Current() == RouteRemove {
			return a.handleRemoveKey(m)
		}
		return a.handleWalletKey(m)
	case accountsMsg:
		a.accounts = m.Accounts
		a.selected = m.Selected
		if a.cursor >= len(a.accounts) {
			a.cursor = 0
		}
	case selectedMsg:
		a.selected = string(m)
	case openRemoveMsg:
		a.selected = m.Account
		a.remove = newRemoveView(m.Account, m.VaultType)
		a.toast = nil
		a.status = ""
		a.router.Push(RouteRemove)
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	case removalDoneMsg:
		a.remove.busy = false
		a.status = ""
		if m.Err != nil {
			a.status = "error: " + m.Err.Error()
		}
		if alerts := a.state.DrainAlerts(); len(alerts) > 0 {
			last := alerts[len(alerts)-1]
			a.toast = &last
		}
		return a, a.loadAccounts()
	}
	return a, nil
}

func (a *App) handleWalletKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, keys.Quit):
		return a, tea.Quit
	case key.Matches(m, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, keys.Down):
		if a.cursor < len(a.accounts)-1 {
			a.cursor++
		}
	case key.Matches(m, keys.Select):
		if len(a.accounts) > 0 {
			return a, a.selectCmd(a.accounts[a.cursor].Name)
		}
	case key.Matches(m, keys.Remove):
		if len(a.accounts) == 0 {
			a.status = a.text.T("wallet:noAccounts")
			return a, nil
		}
		return a, a.openRemoveCmd(a.accounts[a.cursor])
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.router.Current() {
	case RouteRemove:
		body = a.renderRemove()
	default:
		body = a.renderWallet()
	}
	if a.status != "" {
		body += "\n" + a.status
	}
	if a.toast != nil {
		body += "\n\n" + a.renderToast(*a.toast)
	}
	return body
}

type accountsMsg struct {
	Accounts []repository.Account
	Selected string
}

type selectedMsg string

type openRemoveMsg struct {
	Account   string
	VaultType vault.Type
}

type statusMsg string

type errMsg struct{ error }

type removalDoneMsg struct {
	Outcome service.Outcome
	Err     error
}

var titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

func (a *App) renderWallet() string {
	out := titleStyle.Render(a.text.T("wallet:title")) + "\n"
	out += a.text.T("wallet:accounts") + "\n"
	if len(a.accounts) == 0 {
		out += helpStyle.Render(a.text.T("wallet:noAccounts")) + "\n"
	}
	for i, acct := range a.accounts {
		marker := " "
		if i == a.cursor {
			marker = "▶"
		}
		line := fmt.Sprintf("%s %-20s %-9s %s", marker, acct.Name, acct.VaultType, acct.CreatedAt.Local().Format(a.dateFormat))
		if acct.Name == a.selected {
			line += "  (" + a.text.T("wallet:selected") + ")"
		}
		out += strings.TrimRight(line, " ") + "\n"
	}
	out += a.text.T("wallet:help")
	return out
}

func (a *App) renderToast(al state.Alert) string {
	color := successColor
	if al.Severity == state.SeverityError {
		color = negativeColor
	}
	style := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(color).Padding(0, 1)
	return style.Render(lipgloss.NewStyle().Bold(true).Foreground(color).Render(al.Title) + "\n" + al.Message)
}
