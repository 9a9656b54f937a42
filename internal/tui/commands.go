package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/storyforge/internal/session"
)

// executeJob runs req against the controller's service. The outcome is
// applied later, on the UI goroutine.
func executeJob(ctrl *session.Controller, req *session.Request) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		out := ctrl.Execute(ctx, req)
		return outcomeMsg{outcome: out}, out.Err
	}
}

func copyStoryCmd(story string, write func(string) error) tea.Cmd {
	return func() tea.Msg {
		err := write(story)
		return clipboardResultMsg{chars: len([]rune(story)), err: err}
	}
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func outcomeNotice(out session.Outcome) string {
	if out.Err != nil {
		switch out.Kind {
		case session.KindIdeas:
			return "Brainstorm failed. Press ctrl+l to retry."
		case session.KindParagraph:
			return "Drafting failed. Press ctrl+g to retry."
		case session.KindSuggestion:
			return "Refining failed. Press ctrl+r to retry."
		}
		return ""
	}
	switch out.Kind {
	case session.KindIdeas:
		return "Fresh ideas ready. Enter on one to use it as your prompt."
	case session.KindParagraph:
		return "Paragraph drafted. Press ctrl+o to add it to your story."
	case session.KindSuggestion:
		return "Edit suggestion ready. ctrl+y applies it, ctrl+x discards it."
	}
	return ""
}
