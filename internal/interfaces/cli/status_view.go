package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/plugmate/plugmate/internal/application/installer"
	"github.com/plugmate/plugmate/internal/core/domain"
)

// runInstallWatch runs the batch behind a live terminal view. Progress events
// from the orchestrator stream into the bubbletea program; the batch itself
// still runs sequentially.
func runInstallWatch(cmd *cobra.Command, container *Container) error {
	model := newInstallModel()
	program := tea.NewProgram(model, tea.WithOutput(cmd.OutOrStdout()))

	container.Installer.OnProgress = func(p installer.Progress) {
		program.Send(progressMsg(p))
	}
	defer func() { container.Installer.OnProgress = nil }()

	go func() {
		result, err := container.Installer.InstallAll(cmd.Context())
		program.Send(doneMsg{result: result, err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("status view failed: %w", err)
	}

	m := final.(installModel)
	if m.err != nil {
		return m.err
	}
	if m.result != nil {
		printInstallResult(cmd, m.result)
		if m.result.HasFailures() {
			return fmt.Errorf("%d plugin(s) failed", len(m.result.Failed))
		}
	}
	return nil
}

type progressMsg installer.Progress

type doneMsg struct {
	result *domain.InstallResult
	err    error
}

type pluginRow struct {
	name    string
	stage   string
	message string
}

type installModel struct {
	rows   []pluginRow
	result *domain.InstallResult
	err    error
}

func newInstallModel() installModel {
	return installModel{}
}

func (m installModel) Init() tea.Cmd {
	return nil
}

func (m installModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		for i, row := range m.rows {
			if row.name == msg.Name {
				m.rows[i].stage = msg.Stage
				m.rows[i].message = msg.Message
				return m, nil
			}
		}
		m.rows = append(m.rows, pluginRow{name: msg.Name, stage: msg.Stage, message: msg.Message})
		return m, nil
	case doneMsg:
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m installModel) View() string {
	var b strings.Builder
	b.WriteString(styleHeading.Render("Installing plugins") + "\n\n")
	for _, row := range m.rows {
		line := fmt.Sprintf("  %-24s %-12s %s", row.name, row.stage, row.message)
		switch row.stage {
		case installer.StageFailed:
			line = styleError.Render(line)
		case installer.StageInstalled:
			line = styleSuccess.Render(line)
		case installer.StageSkipped, installer.StageChecked:
			line = styleMuted.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
