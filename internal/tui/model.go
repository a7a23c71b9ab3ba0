// Package tui implements the terminal report browser.
package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docrank/internal/domain"
)

// entry pairs a section with its excerpt.
type entry struct {
	section domain.ExtractedSection
	excerpt string
}

// Model is the Bubble Tea model for browsing a report.
type Model struct {
	report   domain.Report
	source   string
	input    textinput.Model
	viewport viewport.Model
	all      []entry
	visible  []entry
	status   string
	cursor   int
	ready    bool
	filter   string
}

// New creates a browser for report, loaded from source.
func New(report domain.Report, source string) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "Filter sections and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	entries := make([]entry, len(report.ExtractedSections))
	for i, s := range report.ExtractedSections {
		entries[i] = entry{section: s}
		if i < len(report.SubSectionAnalysis) {
			entries[i].excerpt = report.SubSectionAnalysis[i].RefinedText
		}
	}
	return Model{
		report:   report,
		source:   source,
		input:    ti,
		viewport: vp,
		all:      entries,
		visible:  entries,
		status:   fmt.Sprintf("%d sections. Up/Down to browse.", len(entries)),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + metadata
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			m.applyFilter(strings.TrimSpace(m.input.Value()))
			m.viewport.SetContent(m.renderCurrent())
			return m, nil
		case "down":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor + 1) % len(m.visible)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor - 1 + len(m.visible)) % len(m.visible)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyFilter keeps sections sharing at least one word with f. An empty
// filter shows everything.
func (m *Model) applyFilter(f string) {
	m.filter = f
	m.cursor = 0
	if f == "" {
		m.visible = m.all
		m.status = fmt.Sprintf("%d sections.", len(m.all))
		return
	}
	tokens := toTokenSet(f)
	var out []entry
	for _, e := range m.all {
		if tokenOverlapScore(tokens, e.section.SectionTitle+" "+e.excerpt) > 0 {
			out = append(out, e)
		}
	}
	m.visible = out
	m.status = fmt.Sprintf("%d of %d sections match %q", len(out), len(m.all), f)
}

// View renders the TUI layout and current section.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docrank: " + m.source)
	meta := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		fmt.Sprintf("%s | %s | %s", m.report.Metadata.Persona, m.report.Metadata.JobToBeDone, m.report.Metadata.Timestamp))
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + meta + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.visible) == 0 {
		return "No sections."
	}
	e := m.visible[m.cursor]
	title := fmt.Sprintf("#%d  %s  p.%d  (%d/%d)",
		e.section.ImportanceRank, e.section.Document, e.section.PageNumber, m.cursor+1, len(m.visible))
	heading := titleStyle.Render(e.section.SectionTitle)
	q := m.filter
	if q == "" {
		q = m.report.Metadata.Persona + " " + m.report.Metadata.JobToBeDone
	}
	return title + "\n" + heading + "\n\n" + highlightBestSentence(e.excerpt, q)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Underline(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence renders text with the sentence sharing the most
// words with query highlighted.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

// splitSentences splits on terminal punctuation, trims each sentence and
// keeps an unterminated tail as its own sentence.
func splitSentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		out = append(out, strings.TrimSpace(text[loc[0]:loc[1]]))
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
