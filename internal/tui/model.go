package tui

import (
	"context"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/csheth/storyforge/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Controller *session.Controller
	// Provider is shown in the footer, e.g. "Gemini (gemini-2.5-flash)".
	Provider string
	Logger   *zap.Logger
	// Context bounds every remote request started from the UI.
	Context context.Context
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Clipboard == nil {
		config.Clipboard = clipboard.WriteAll
	}

	prompt := textarea.New()
	prompt.Placeholder = promptPlaceholder
	prompt.ShowLineNumbers = false
	prompt.CharLimit = 2000

	story := textarea.New()
	story.Placeholder = storyPlaceholder
	story.ShowLineNumbers = false
	story.CharLimit = 0
	story.MaxHeight = 0

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 8)
	vp.MouseWheelEnabled = true

	m := &model{
		config:     config,
		ctrl:       config.Controller,
		logger:     config.Logger.Named("tui"),
		keys:       defaultKeyMap(),
		help:       help.New(),
		layout:     newPageLayout(),
		jobs:       newJobBus(config.Context, config.Logger),
		running:    map[string]jobSnapshot{},
		prompt:     prompt,
		story:      story,
		suggestion: vp,
		spinner:    spin,
		focus:      focusPrompt,
	}
	m.applyLayout(m.layout)
	snap := m.ctrl.Snapshot()
	m.prompt.SetValue(snap.Prompt)
	m.story.SetValue(snap.Story)
	m.prompt.Focus()
	if strings.TrimSpace(snap.Story) != "" {
		m.infoMessage = "Story loaded. Press ctrl+r for an edit pass or keep writing."
	} else {
		m.infoMessage = "Press ctrl+l to brainstorm ideas, or type a prompt and press ctrl+g."
	}
	return m
}

type model struct {
	config Config
	ctrl   *session.Controller
	logger *zap.Logger
	keys   keyMap
	help   help.Model
	layout pageLayout

	jobs    *jobBus
	running map[string]jobSnapshot
	lastJob *jobSnapshot

	prompt     textarea.Model
	story      textarea.Model
	suggestion viewport.Model
	spinner    spinner.Model

	focus          focusArea
	ideaCursor     int
	suggestionText string
	infoMessage    string
	errorMessage   string
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.ctrl.Snapshot().Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		layout := m.layout
		layout.Update(msg.Width, msg.Height)
		m.applyLayout(layout)
		return m, nil
	case jobSignalMsg:
		m.trackJob(msg.Snapshot)
		return m, nil
	case jobResultEnvelope:
		m.trackJob(msg.Snapshot)
		if payload, ok := msg.Payload.(outcomeMsg); ok {
			m.handleOutcome(payload.outcome)
		}
		return m, nil
	case clipboardResultMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard copy failed", zap.Error(msg.err))
			m.errorMessage = "Copy failed: " + msg.err.Error()
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = "Story copied to the clipboard."
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.suggestion, cmd = m.suggestion.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, m.updateFocusedEditor(msg)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		if m.focus != focusIdeas {
			return m, m.setFocus(focusIdeas)
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.NextFocus):
		return m, m.cycleFocus(1)
	case key.Matches(msg, m.keys.PrevFocus):
		return m, m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Brainstorm):
		return m, m.start(m.ctrl.RequestIdeas())
	case key.Matches(msg, m.keys.Generate):
		return m, m.start(m.ctrl.GenerateParagraph())
	case key.Matches(msg, m.keys.AddParagraph):
		m.addParagraph()
		return m, nil
	case key.Matches(msg, m.keys.Refine):
		if m.ctrl.Snapshot().Suggestion.Loading {
			m.infoMessage = "Already refining your story…"
			return m, nil
		}
		cmd := m.start(m.ctrl.RequestEditSuggestion())
		m.refreshSuggestion()
		return m, cmd
	case key.Matches(msg, m.keys.Apply):
		if m.ctrl.ApplyEditSuggestion() {
			m.syncEditors()
			m.refreshSuggestion()
			m.infoMessage = "Suggestion applied to your story."
		} else {
			m.infoMessage = "No edit suggestion to apply yet."
		}
		return m, nil
	case key.Matches(msg, m.keys.Discard):
		m.ctrl.DiscardEditSuggestion()
		m.refreshSuggestion()
		m.infoMessage = "Suggestion discarded."
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		story := m.ctrl.Snapshot().Story
		if strings.TrimSpace(story) == "" {
			m.infoMessage = "Nothing to copy yet."
			return m, nil
		}
		return m, copyStoryCmd(story, m.config.Clipboard)
	case key.Matches(msg, m.keys.ScrollUp):
		m.suggestion.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.suggestion.ViewDown()
		return m, nil
	}

	if m.focus == focusIdeas {
		return m.handleIdeasKey(msg)
	}
	return m, m.updateFocusedEditor(msg)
}

func (m *model) handleIdeasKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ideas := m.ctrl.Snapshot().Ideas.Value
	switch {
	case msg.String() == "b":
		return m, m.start(m.ctrl.RequestIdeas())
	case key.Matches(msg, m.keys.Up):
		if m.ideaCursor > 0 {
			m.ideaCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.ideaCursor < len(ideas)-1 {
			m.ideaCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.ideaCursor < 0 || m.ideaCursor >= len(ideas) {
			m.infoMessage = "No ideas yet. Press b or ctrl+l to brainstorm."
			return m, nil
		}
		m.ctrl.SelectIdea(ideas[m.ideaCursor])
		m.syncEditors()
		m.infoMessage = "Idea copied into your prompt. Press ctrl+g to draft a paragraph."
		return m, m.setFocus(focusPrompt)
	}
	return m, nil
}

// updateFocusedEditor forwards msg to the focused textarea and mirrors any
// edit into the controller.
func (m *model) updateFocusedEditor(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusPrompt:
		before := m.prompt.Value()
		m.prompt, cmd = m.prompt.Update(msg)
		if value := m.prompt.Value(); value != before {
			m.ctrl.UpdatePrompt(value)
		}
	case focusStory:
		before := m.story.Value()
		m.story, cmd = m.story.Update(msg)
		if value := m.story.Value(); value != before {
			m.ctrl.EditStoryDocument(value)
		}
	}
	return cmd
}

func (m *model) start(req *session.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	m.errorMessage = ""
	switch req.Kind() {
	case session.KindIdeas:
		m.infoMessage = "Brainstorming story ideas…"
		m.ideaCursor = 0
	case session.KindParagraph:
		m.infoMessage = "Drafting the next paragraph…"
	case session.KindSuggestion:
		m.infoMessage = "Reading your story for an edit pass…"
	}
	return tea.Batch(m.spinner.Tick, m.jobs.Start(req.Kind(), executeJob(m.ctrl, req)))
}

func (m *model) handleOutcome(out session.Outcome) {
	if !m.ctrl.Apply(out) {
		return
	}
	switch out.Kind {
	case session.KindIdeas:
		m.ideaCursor = 0
	case session.KindSuggestion:
		m.refreshSuggestion()
	}
	if notice := outcomeNotice(out); notice != "" {
		m.infoMessage = notice
	}
}

func (m *model) addParagraph() {
	if !m.ctrl.AddParagraphToStory() {
		m.infoMessage = "No generated paragraph to add yet."
		return
	}
	m.syncEditors()
	m.infoMessage = "Paragraph added to your story."
}

// syncEditors pushes controller-side changes back into the editors.
func (m *model) syncEditors() {
	snap := m.ctrl.Snapshot()
	if m.prompt.Value() != snap.Prompt {
		m.prompt.SetValue(snap.Prompt)
	}
	if m.story.Value() != snap.Story {
		m.story.SetValue(snap.Story)
	}
}

func (m *model) refreshSuggestion() {
	text := m.ctrl.Snapshot().Suggestion.Value
	if text == m.suggestionText {
		return
	}
	m.suggestionText = text
	m.suggestion.SetContent(wordwrap.String(text, m.layout.wrapWidth(2)))
	m.suggestion.GotoTop()
}

func (m *model) applyLayout(layout pageLayout) {
	m.layout = layout
	m.prompt.SetWidth(layout.editorWidth)
	m.prompt.SetHeight(layout.promptHeight)
	m.story.SetWidth(layout.editorWidth)
	m.story.SetHeight(layout.storyHeight)
	m.suggestion.Width = layout.editorWidth
	m.suggestion.Height = layout.suggestionHeight
	m.help.Width = layout.windowWidth
	if m.suggestionText != "" {
		m.suggestion.SetContent(wordwrap.String(m.suggestionText, layout.wrapWidth(2)))
	}
}

func (m *model) setFocus(target focusArea) tea.Cmd {
	m.focus = target
	m.prompt.Blur()
	m.story.Blur()
	switch target {
	case focusPrompt:
		return m.prompt.Focus()
	case focusStory:
		return m.story.Focus()
	}
	return nil
}

func (m *model) cycleFocus(delta int) tea.Cmd {
	idx := 0
	for i, area := range focusSequence {
		if area == m.focus {
			idx = i
			break
		}
	}
	next := (idx + delta + len(focusSequence)) % len(focusSequence)
	return m.setFocus(focusSequence[next])
}

func (m *model) trackJob(snapshot jobSnapshot) {
	if snapshot.Status == jobStatusRunning {
		m.running[snapshot.ID] = snapshot
		return
	}
	delete(m.running, snapshot.ID)
	m.lastJob = &snapshot
}

func (m *model) jobStatusBadges() []string {
	if len(m.running) == 0 {
		return nil
	}
	badges := make([]string, 0, len(m.running))
	for _, snapshot := range m.running {
		badges = append(badges, "⟳ "+snapshot.Kind.String())
	}
	sort.Strings(badges)
	return badges
}
