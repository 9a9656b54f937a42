package tui

import (
	"strings"
)

type pageLayout struct {
	windowWidth      int
	windowHeight     int
	editorWidth      int
	promptHeight     int
	storyHeight      int
	suggestionHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		editorWidth:      80,
		promptHeight:     3,
		storyHeight:      8,
		suggestionHeight: 8,
	}
}

// Update splits the window between the fixed chrome (hero, ideas, section
// headers, hints, footer) and the three resizable panes.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - editorHorizontalPadding
	if innerWidth < minEditorWidth {
		innerWidth = minEditorWidth
	}
	l.editorWidth = innerWidth
	l.promptHeight = 3
	const chrome = 24
	usable := height - chrome
	if usable < 12 {
		usable = 12
	}
	rest := usable - l.promptHeight
	l.storyHeight = rest / 2
	if l.storyHeight < 4 {
		l.storyHeight = 4
	}
	l.suggestionHeight = rest - l.storyHeight
	if l.suggestionHeight < 4 {
		l.suggestionHeight = 4
	}
}

func (l pageLayout) wrapWidth(padding int) int {
	width := l.editorWidth
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
