package tthsdctl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tthsd/engine/internal/humanize"
)

// taskView is one Task's live progress, rebuilt from the engine's own
// startOne/update/endOne/err events. Grounded on the teacher's
// internal/tui download-row model (internal/tui/model.go), generalized
// from one download per TUI instance to N tasks in a batch.
type taskView struct {
	id         string
	showName   string
	downloaded int64
	total      int64
	done       bool
	failed     bool
	errText    string
	bar        progress.Model
}

// eventMsg wraps one engine event for delivery into the bubbletea program;
// the callback registered with the session runs on the engine's own
// dispatcher goroutine, so it must never touch tea.Model state directly.
type eventMsg struct {
	eventJSON string
	dataJSON  string
}

type rootModel struct {
	order []string
	tasks map[string]*taskView
	total int
	done  int
}

func newRootModel(expected int) rootModel {
	return rootModel{tasks: make(map[string]*taskView), total: expected}
}

func (m rootModel) Init() tea.Cmd { return nil }

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case eventMsg:
		return m.applyEvent(msg)
	}
	return m, nil
}

func (m rootModel) applyEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	env, data, err := decodeEvent(msg.eventJSON, msg.dataJSON)
	if err != nil {
		return m, nil
	}

	switch env.Type {
	case "startOne":
		tv := &taskView{id: env.ID, showName: env.ShowName, total: -1, bar: progress.New(progress.WithDefaultGradient())}
		m.tasks[env.ID] = tv
		m.order = append(m.order, env.ID)
	case "update":
		if tv, ok := m.tasks[env.ID]; ok {
			tv.downloaded = data.Downloaded
			if data.Total >= 0 {
				tv.total = data.Total
			}
		}
	case "endOne":
		if tv, ok := m.tasks[env.ID]; ok {
			tv.done = true
			if tv.total > 0 {
				tv.downloaded = tv.total
			}
			m.done++
		}
	case "err":
		if tv, ok := m.tasks[env.ID]; ok {
			tv.failed = true
			tv.errText = data.Error
			m.done++
		}
	case "end":
		if m.done >= m.total && m.total > 0 {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m rootModel) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("tthsdctl") + "\n\n")
	for _, id := range m.order {
		tv := m.tasks[id]
		b.WriteString(renderTaskView(tv) + "\n")
	}
	b.WriteString(fmt.Sprintf("\n%d/%d complete (q to quit)\n", m.done, m.total))
	return b.String()
}

func renderTaskView(tv *taskView) string {
	switch {
	case tv.failed:
		return fmt.Sprintf("%s  FAILED: %s", tv.showName, tv.errText)
	case tv.done:
		return fmt.Sprintf("%s  done", tv.showName)
	case tv.total > 0:
		pct := float64(tv.downloaded) / float64(tv.total)
		return fmt.Sprintf("%-24s %s  %s/%s", tv.showName, tv.bar.ViewAs(pct), humanize.Bytes(tv.downloaded), humanize.Bytes(tv.total))
	default:
		return fmt.Sprintf("%-24s %s", tv.showName, humanize.Bytes(tv.downloaded))
	}
}
