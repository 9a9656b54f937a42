package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// offlineClient answers from canned text so the app can run without a
// model, e.g. for demos and end-to-end tests.
type offlineClient struct{}

var offlineIdeas = []string{
	"A lighthouse keeper finds a message in a bottle addressed to herself, dated fifty years in the future.",
	"Every night the town's clocks run backwards for one hour, and only the baker remembers.",
	"A cartographer is hired to map a forest that rearranges itself whenever it is observed.",
	"Two rival ghosts haunting the same house must team up when the new owners turn out to be exorcists.",
	"A retired space courier receives one final delivery: a seed that hums.",
	"The last librarian on Earth discovers a book that writes back.",
	"A violinist's music can mend broken objects, but only while she forgets something she loves.",
}

func (offlineClient) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch prompt.System {
	case ideasSystemInstruction:
		var b strings.Builder
		for _, idea := range offlineIdeas[:defaultIdeasCount] {
			b.WriteString(ideaMarker)
			b.WriteRune(' ')
			b.WriteString(idea)
			b.WriteRune('\n')
		}
		return b.String(), nil
	case paragraphSystemInstruction:
		subject := prompt.User
		if idx := strings.LastIndex(subject, "Prompt: "); idx >= 0 {
			subject = subject[idx+len("Prompt: "):]
		}
		subject = strings.TrimSuffix(strings.TrimSpace(subject), ".")
		return fmt.Sprintf("It began, as these things do, with %s. The air held its breath, and for a moment nothing in the world moved at all.", lowerFirst(subject)), nil
	case editSystemInstruction:
		body := strings.TrimPrefix(prompt.User, "Here is the story to revise:\n\n")
		return tidyParagraphs(body), nil
	default:
		return prompt.User, nil
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	// Leave acronyms alone.
	if len(runes) > 1 && unicode.IsUpper(runes[1]) {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func tidyParagraphs(text string) string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.Join(strings.Fields(block), " ")
		if block == "" {
			continue
		}
		paragraphs = append(paragraphs, block)
	}
	return strings.Join(paragraphs, "\n\n")
}
