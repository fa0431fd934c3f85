package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxTranscript bounds how many evaluated entries stay on screen.
const maxTranscript = 50

type interactiveModel struct {
	err        error
	cfg        *Config
	log        *zap.Logger
	runner     *runner
	output     *bytes.Buffer
	input      textinput.Model
	transcript []entry
	history    []string
	historyIdx int
	busy       bool
}

type entry struct {
	err    error
	source string
	output string
	result string
}

func newInteractiveModel(cfg *Config, log *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("js> ")
	ti.Placeholder = "expression"
	ti.Width = 80
	ti.Focus()

	return &interactiveModel{
		cfg:    cfg,
		log:    log,
		output: &bytes.Buffer{},
		input:  ti,
	}
}

type loadedMsg struct {
	err    error
	runner *runner
}

type evalResultMsg struct {
	entry entry
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadRuntime)
}

func (m *interactiveModel) loadRuntime() tea.Msg {
	r, err := newRunner(m.cfg, m.log, m.output, m.output)
	return loadedMsg{runner: r, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			m.close()
			return m, tea.Quit

		case "up":
			if m.historyIdx > 0 {
				m.historyIdx--
				m.input.SetValue(m.history[m.historyIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.historyIdx < len(m.history)-1 {
				m.historyIdx++
				m.input.SetValue(m.history[m.historyIdx])
				m.input.CursorEnd()
			} else {
				m.historyIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			src := strings.TrimSpace(m.input.Value())
			if src == "" || m.busy || m.runner == nil {
				return m, nil
			}
			m.history = append(m.history, src)
			m.historyIdx = len(m.history)
			m.input.SetValue("")
			m.busy = true
			return m, m.evaluate(src)
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.runner = msg.runner

	case evalResultMsg:
		m.busy = false
		m.transcript = append(m.transcript, msg.entry)
		if len(m.transcript) > maxTranscript {
			m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) evaluate(src string) tea.Cmd {
	r := m.runner
	return func() tea.Msg {
		result, err := r.eval(src, "<repl>", true)
		e := entry{source: src, result: result, err: err}
		e.output = strings.TrimRight(m.output.String(), "\n")
		m.output.Reset()
		return evalResultMsg{entry: e}
	}
}

func (m *interactiveModel) close() {
	if m.runner != nil {
		m.runner.Close()
		m.runner = nil
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	if m.runner == nil {
		return "Starting runtime..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("JS REPL"))
	b.WriteString(" ")
	b.WriteString(m.runner.rt.Description())
	b.WriteString("\n\n")

	for _, e := range m.transcript {
		b.WriteString(promptStyle.Render("js> "))
		b.WriteString(e.source)
		b.WriteString("\n")
		if e.output != "" {
			b.WriteString(outputStyle.Render(e.output))
			b.WriteString("\n")
		}
		switch {
		case e.err != nil:
			b.WriteString(errorStyle.Render(fmt.Sprintf("Uncaught %v", e.err)))
			b.WriteString("\n")
		case e.result != "":
			b.WriteString(resultStyle.Render(e.result))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter evaluate • ↑/↓ history • ctrl+c quit"))

	return b.String()
}

func runInteractive(cfg *Config, log *zap.Logger) error {
	m := newInteractiveModel(cfg, log)
	defer m.close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
