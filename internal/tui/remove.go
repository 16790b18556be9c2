package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/vaultwallet/internal/vault"
)

type removeStage int

const (
	stageIdle           removeStage = iota // info panel and delete button
	stageConfirmDialog                     // yes/no dialog, no password needed
	stageConfirmPending                    // password modal
)

// removeView is the account-removal screen for one account.
type removeView struct {
	stage     removeStage
	account   string
	vaultType vault.Type
	input     textinput.Model
	busy      bool
}

func newRemoveView(account string, vt vault.Type) removeView {
	in := textinput.New()
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 256
	return removeView{account: account, vaultType: vt, input: in}
}

var (
	negativeColor = lipgloss.Color("196")
	successColor  = lipgloss.Color("42")
	mutedColor    = lipgloss.Color("241")

	infoStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)
	buttonStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(negativeColor).Padding(0, 2)
	dialogStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(negativeColor).Padding(1, 2)
	negTitle    = lipgloss.NewStyle().Bold(true).Foreground(negativeColor)
	helpStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

func (a *App) handleRemoveKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.remove.stage {
	case stageConfirmPending:
		switch m.Type {
		case tea.KeyEsc:
			a.closePasswordModal()
			return a, nil
		case tea.KeyEnter:
			pw := a.remove.input.Value()
			a.closePasswordModal()
			return a, a.submitRemoval(vault.PasswordOf(pw))
		}
		var cmd tea.Cmd
		a.remove.input, cmd = a.remove.input.Update(m)
		return a, cmd
	case stageConfirmDialog:
		switch {
		case key.Matches(m, keys.Confirm):
			a.remove.stage = stageIdle
			return a, a.submitRemoval(vault.NoPassword)
		case key.Matches(m, keys.Cancel):
			a.remove.stage = stageIdle
		}
		return a, nil
	}

	switch {
	case key.Matches(m, keys.Quit):
		return a, tea.Quit
	case key.Matches(m, keys.Back):
		a.router.Back()
		a.status = ""
	case key.Matches(m, keys.Delete):
		if a.remove.busy {
			a.status = a.text.T("deleteAccount:removing")
			return a, nil
		}
		if a.policy.RequiresPassword(a.remove.vaultType) {
			a.remove.stage = stageConfirmPending
			a.remove.input.Reset()
			return a, a.remove.input.Focus()
		}
		a.remove.stage = stageConfirmDialog
	}
	return a, nil
}

func (a *App) closePasswordModal() {
	a.remove.stage = stageIdle
	a.remove.input.Reset()
	a.remove.input.Blur()
}

// submitRemoval runs the removal unless one is already in flight. The caller
// has already returned the view to stageIdle.
func (a *App) submitRemoval(pw vault.Password) tea.Cmd {
	if a.remove.busy {
		return nil
	}
	a.remove.busy = true
	a.status = a.text.T("deleteAccount:removing")
	return func() tea.Msg {
		out, err := a.remover.Remove(a.ctx, pw)
		return removalDoneMsg{Outcome: out, Err: err}
	}
}

func (a *App) renderRemove() string {
	if a.remove.stage == stageConfirmPending {
		return a.renderPasswordModal()
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(a.text.T("accountManagement:deleteAccount") + ": " + a.remove.account))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render(a.text.T("deleteAccount:yourSeedWillBeRemoved")))
	b.WriteString("\n\n")
	b.WriteString(buttonStyle.Render(a.text.T("accountManagement:deleteAccount")))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(a.text.T("deleteAccount:help")))
	if a.remove.stage == stageConfirmDialog {
		b.WriteString("\n\n")
		b.WriteString(a.renderConfirmDialog())
	}
	return b.String()
}

func (a *App) renderConfirmDialog() string {
	content := negTitle.Render(a.text.T("deleteAccount:areYouSure", "accountName", a.remove.account)) + "\n\n"
	content += a.text.T("deleteAccount:yourSeedWillBeRemoved") + "\n\n"
	content += helpStyle.Render(a.text.T("deleteAccount:dialogHelp"))
	return dialogStyle.Render(content)
}

func (a *App) renderPasswordModal() string {
	content := negTitle.Render(a.text.T("deleteAccount:enterPassword")) + "\n\n"
	content += a.text.T("deleteAccount:password") + ": " + a.remove.input.View() + "\n\n"
	content += helpStyle.Render(a.text.T("deleteAccount:modalHelp"))
	return dialogStyle.Render(content)
}
