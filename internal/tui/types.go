package tui

import (
	"github.com/csheth/storyforge/internal/session"
)

type focusArea int

const (
	focusIdeas focusArea = iota
	focusPrompt
	focusStory
)

var focusSequence = []focusArea{
	focusIdeas,
	focusPrompt,
	focusStory,
}

func (f focusArea) String() string {
	switch f {
	case focusIdeas:
		return "Ideas"
	case focusPrompt:
		return "Prompt"
	case focusStory:
		return "Story"
	default:
		return "?"
	}
}

const heroTagline = "Brainstorm, draft and polish a story with an AI co-writer."

const (
	minEditorWidth          = 40
	editorHorizontalPadding = 4
	ideasPreviewLimit       = 160
)

const (
	promptPlaceholder = "Describe what happens next, or pick an idea above…"
	storyPlaceholder  = "Your story will grow here. Type freely or add generated paragraphs."
)

// outcomeMsg carries a finished controller request back into Update.
type outcomeMsg struct {
	outcome session.Outcome
}

type clipboardResultMsg struct {
	chars int
	err   error
}
