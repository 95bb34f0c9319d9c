package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	fieldRows = iota
	fieldScale
	fieldOffset
)

type interactiveModel struct {
	err      error
	log      *zap.Logger
	report   *report
	base     pipeline
	inputs   []textinput.Model
	focusIdx int
	running  bool
}

type pipelineMsg struct {
	err    error
	report *report
}

func newInteractiveModel(p pipeline, log *zap.Logger) *interactiveModel {
	m := &interactiveModel{base: p, log: log}
	values := []string{
		joinSizes(p),
		strconv.FormatFloat(float64(p.scale), 'g', -1, 32),
		strconv.FormatFloat(float64(p.offset), 'g', -1, 32),
	}
	prompts := []string{"rows: ", "scale: ", "offset: "}
	m.inputs = make([]textinput.Model, len(values))
	for i := range values {
		ti := textinput.New()
		ti.Prompt = prompts[i]
		ti.SetValue(values[i])
		ti.Width = 40
		if i == fieldRows {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	return m
}

func joinSizes(p pipeline) string {
	parts := make([]string, len(p.sizes))
	for i, n := range p.sizes {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, ",")
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down":
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
			m.inputs[m.focusIdx].Focus()
			return m, nil

		case "shift+tab", "up":
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + len(m.inputs) - 1) % len(m.inputs)
			m.inputs[m.focusIdx].Focus()
			return m, nil

		case "enter":
			if m.running {
				return m, nil
			}
			p, err := m.pipeline()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.running = true
			return m, func() tea.Msg {
				r, err := p.run(context.Background(), m.log)
				return pipelineMsg{report: r, err: err}
			}
		}

	case pipelineMsg:
		m.running = false
		m.report = msg.report
		m.err = msg.err
		return m, nil
	}

	var cmds []tea.Cmd
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) pipeline() (pipeline, error) {
	p := m.base
	sizes, err := parseSizes(m.inputs[fieldRows].Value())
	if err != nil {
		return p, err
	}
	scale, err := strconv.ParseFloat(m.inputs[fieldScale].Value(), 32)
	if err != nil {
		return p, fmt.Errorf("scale: %w", err)
	}
	offset, err := strconv.ParseFloat(m.inputs[fieldOffset].Value(), 32)
	if err != nil {
		return p, fmt.Errorf("offset: %w", err)
	}
	p.sizes, p.scale, p.offset = sizes, float32(scale), float32(offset)
	return p, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("vecmem"))
	b.WriteString(" jagged linear transform\n\n")

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.running:
		b.WriteString("Running...\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.report != nil:
		b.WriteString(labelStyle.Render("device "))
		b.WriteString(m.report.device)
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("output\n"))
		b.WriteString(resultStyle.Render(formatRows(m.report.output)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab next field • enter run • esc quit"))
	return b.String()
}

func runInteractive(p pipeline, log *zap.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("interactive mode needs a terminal")
	}
	prog := tea.NewProgram(newInteractiveModel(p, log), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
