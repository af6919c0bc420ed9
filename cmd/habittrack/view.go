package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	syncengine "habittrack/internal/sync"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func renderCategoryHeader(name string) string {
	return headerStyle.Render(name)
}

func renderState(state syncengine.State) string {
	switch state {
	case syncengine.StateIdle:
		return okStyle.Render(string(state))
	case syncengine.StateSyncing:
		return warnStyle.Render(string(state))
	case syncengine.StateError:
		return errStyle.Render(string(state))
	default:
		return dimStyle.Render(string(state))
	}
}

func printStatus(st syncengine.Status) {
	fmt.Printf("State:    %s\n", renderState(st.State))
	fmt.Printf("Enabled:  %v\n", st.Enabled)
	if st.Authenticated {
		fmt.Printf("Account:  %s\n", st.Email)
	} else {
		fmt.Printf("Account:  %s\n", dimStyle.Render("not logged in"))
	}
	fmt.Printf("Pending:  %d queued changes\n", st.Pending)
	if !st.LastPush.IsZero() {
		fmt.Printf("LastPush: %s\n", st.LastPush.Format(time.RFC3339))
	}
	if st.SyncError != "" {
		fmt.Printf("SyncErr:  %s\n", errStyle.Render(st.SyncError))
	}
	if st.LocalError != "" {
		fmt.Printf("LocalErr: %s\n", errStyle.Render(st.LocalError))
	}
}
