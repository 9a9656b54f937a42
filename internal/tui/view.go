package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/storyforge/internal/session"
)

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#f4a261")).Italic(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	activeHeaderStyle  = sectionHeaderStyle.Copy().Underline(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	disabledHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Strikethrough(true)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	paragraphBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(0, 1)
	suggestionBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#a3be8c")).Padding(0, 1)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
)

func (m *model) View() string {
	snap := m.ctrl.Snapshot()
	parts := []string{
		m.heroView(),
		m.ideasView(snap.Ideas),
		m.promptView(snap.Prompt),
		m.paragraphView(snap.Paragraph),
		m.storyView(),
		m.suggestionView(snap.Suggestion),
		m.statusView(),
		m.help.View(m.keys),
		m.footerView(),
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("StoryForge"),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) header(title string, area focusArea) string {
	if m.focus == area {
		return activeHeaderStyle.Render("▸ " + title)
	}
	return sectionHeaderStyle.Render(title)
}

func (m *model) ideasView(ideas session.SliceView[[]string]) string {
	lines := []string{m.header("Brainstorm Ideas", focusIdeas)}
	switch {
	case ideas.Loading:
		lines = append(lines, helperStyle.Render(fmt.Sprintf("%s Summoning ideas…", m.spinner.View())))
	case ideas.Err != "":
		lines = append(lines, errorStyle.Render(ideas.Err))
	case len(ideas.Value) == 0:
		lines = append(lines, helperStyle.Render("Press ctrl+l for a batch of story premises."))
	default:
		width := m.layout.wrapWidth(4)
		for idx, idea := range ideas.Value {
			line := previewText(idea, ideasPreviewLimit)
			if len([]rune(line)) > width {
				line = previewText(line, width-1)
			}
			if idx == m.ideaCursor && m.focus == focusIdeas {
				lines = append(lines, currentLineStyle.Render(" ▸ "+line))
				continue
			}
			lines = append(lines, "   "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *model) promptView(prompt string) string {
	hint := "ctrl+g: generate paragraph"
	if strings.TrimSpace(prompt) == "" {
		hint = disabledHintStyle.Render(hint)
	} else {
		hint = helperStyle.Render(hint)
	}
	return strings.Join([]string{
		m.header("Craft Your Prompt", focusPrompt),
		m.prompt.View(),
		hint,
	}, "\n")
}

func (m *model) paragraphView(paragraph session.SliceView[string]) string {
	var parts []string
	if paragraph.Loading {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s Writing…", m.spinner.View())))
	}
	if paragraph.Err != "" {
		parts = append(parts, errorStyle.Render(paragraph.Err))
	}
	// A validation error leaves the previous paragraph in place; show both.
	if paragraph.Present && paragraph.Value != "" {
		text := wordwrap.String(paragraph.Value, m.layout.wrapWidth(4))
		parts = append(parts,
			paragraphBoxStyle.Render(text),
			helperStyle.Render("ctrl+o: add to story"),
		)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(append([]string{sectionHeaderStyle.Render("AI-Generated Paragraph")}, parts...), "\n")
}

func (m *model) storyView() string {
	return strings.Join([]string{
		m.header("Your Masterpiece", focusStory),
		m.story.View(),
		helperStyle.Render("ctrl+r: refine with AI • alt+c: copy"),
	}, "\n")
}

func (m *model) suggestionView(suggestion session.SliceView[string]) string {
	var parts []string
	if suggestion.Loading {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s Refining…", m.spinner.View())))
	}
	if suggestion.Err != "" {
		parts = append(parts, errorStyle.Render(suggestion.Err))
	}
	if suggestion.Present && suggestion.Value != "" {
		parts = append(parts,
			suggestionBoxStyle.Render(m.suggestion.View()),
			helperStyle.Render(fmt.Sprintf("ctrl+y: apply • ctrl+x: discard • pgup/pgdn: scroll (%3.f%%)", m.suggestion.ScrollPercent()*100)),
		)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(append([]string{sectionHeaderStyle.Render("AI Edit Suggestion")}, parts...), "\n")
}

func (m *model) statusView() string {
	if m.errorMessage != "" {
		return errorStyle.Render(m.errorMessage)
	}
	if m.infoMessage != "" {
		return helperStyle.Render(m.infoMessage)
	}
	return ""
}

func (m *model) footerView() string {
	provider := m.config.Provider
	if provider == "" {
		provider = "unknown model"
	}
	stats := []string{
		"Powered by " + provider,
		"Focus " + m.focus.String(),
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	} else if m.lastJob != nil {
		stats = append(stats, fmt.Sprintf("last %s %s in %s", m.lastJob.Kind, m.lastJob.Status, m.lastJob.Duration.Round(10*time.Millisecond)))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}
