package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MotleyCoderDev/wasm2brs/brs"
	"github.com/MotleyCoderDev/wasm2brs/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	advisoryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB347"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))
)

// listWidth is the width of the function list column.
const listWidth = 44

type interactiveModel struct {
	err      error
	cfg      *config.Config
	report   *brs.Report
	filename string
	filter   textinput.Model
	code     viewport.Model
	visible  []int // indices into report.Functions matching the filter
	selected int
	ready    bool
}

func newInteractiveModel(filename string, cfg *config.Config) *interactiveModel {
	filter := textinput.New()
	filter.Placeholder = "filter functions"
	filter.Prompt = "/ "
	filter.Width = listWidth - 4

	return &interactiveModel{
		filename: filename,
		cfg:      cfg,
		filter:   filter,
		code:     viewport.New(80, 20),
	}
}

type generatedMsg struct {
	err    error
	report *brs.Report
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.generate
}

func (m *interactiveModel) generate() tea.Msg {
	_, report, err := convert(context.Background(), m.filename, m.cfg)
	return generatedMsg{report: report, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "esc", "enter":
				m.filter.Blur()
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "/":
			m.filter.Focus()
			return m, textinput.Blink

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.showSelected()
			}
			return m, nil

		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.showSelected()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.code.Width = max(msg.Width-listWidth-4, 20)
		m.code.Height = max(msg.Height-6, 5)

	case generatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.report = msg.report
		m.ready = true
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	return m, cmd
}

// applyFilter recomputes the visible functions and keeps the selection in
// range.
func (m *interactiveModel) applyFilter() {
	if m.report == nil {
		return
	}
	query := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, f := range m.report.Functions {
		if query == "" || strings.Contains(strings.ToLower(f.Name), query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
	m.showSelected()
}

func (m *interactiveModel) showSelected() {
	if len(m.visible) == 0 {
		m.code.SetContent("")
		return
	}
	f := m.report.Functions[m.visible[m.selected]]
	var b strings.Builder
	for _, a := range m.report.AdvisoriesFor(f.Name) {
		b.WriteString(advisoryStyle.Render("! " + a.String()))
		b.WriteString("\n")
	}
	b.WriteString(f.Code)
	m.code.SetContent(b.String())
	m.code.GotoTop()
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.ready {
		return "Generating..."
	}

	var header strings.Builder
	header.WriteString(titleStyle.Render("wasm2brs"))
	header.WriteString(" ")
	header.WriteString(m.filename)
	header.WriteString(statStyle.Render(fmt.Sprintf("  %d functions, %d advisories",
		len(m.report.Functions), len(m.report.Advisories))))

	return header.String() + "\n\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), paneStyle.Render(m.code.View())) + "\n" +
		helpStyle.Render("↑/↓ select • / filter • pgup/pgdn scroll • q quit")
}

func (m *interactiveModel) listView() string {
	var b strings.Builder
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	rows := max(m.code.Height-2, 1)
	first := 0
	if m.selected >= rows {
		first = m.selected - rows + 1
	}
	for row := first; row < len(m.visible) && row < first+rows; row++ {
		f := m.report.Functions[m.visible[row]]
		line := fmt.Sprintf("%-28s %s", truncate(f.Name, 28),
			statStyle.Render(fmt.Sprintf("L%d V%d", f.Labels, f.Variables())))
		if len(m.report.AdvisoriesFor(f.Name)) > 0 {
			line += " " + advisoryStyle.Render("!")
		}
		if row == m.selected {
			b.WriteString(selectedStyle.Render("> " + truncate(f.Name, 28)))
		} else {
			b.WriteString("  " + funcStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(listWidth).Render(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func runInteractive(filename string, cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(filename, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
