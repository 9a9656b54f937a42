package llm

import (
	"fmt"
	"regexp"
	"strings"
)

const ideaMarker = "IDEA:"

const (
	ideasSystemInstruction = "You are a creative writing coach who invents fresh, surprising story premises."

	paragraphSystemInstruction = "You are a creative writing assistant. Your task is to write a compelling and descriptive paragraph based on the user's prompt. " +
		"The paragraph should be engaging and suitable for a story. Focus on vivid imagery, strong narrative voice, and maintain a consistent tone." +
		"\n\nIf prior story context is provided, ensure your paragraph flows naturally from it, maintaining tone and style. " +
		"Otherwise, generate a fresh paragraph based on the prompt alone."

	editSystemInstruction = "You are an expert story editor. Analyze the provided text and provide a revised version that enhances its narrative quality, " +
		"clarity, pacing, word choice, and overall impact. IMPORTANT: Your response must ONLY be the complete, edited story text itself. " +
		"Do not include any preambles, explanations, apologies, or markdown formatting (like ```json or ```text) around the story text. " +
		"Just the revised story content, plain and simple."
)

var (
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	fenceRe      = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n(.*?)\\n?```$")
)

// clipTail keeps the end of text, which matters most for continuations.
func clipTail(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[len(runes)-limit:]))
}

func buildIdeasPrompt(count int) string {
	if count <= 0 {
		count = defaultIdeasCount
	}
	return fmt.Sprintf("Generate %d unique and inspiring story ideas. Each idea should be a concise, intriguing premise. "+
		"Present each idea on a new line, starting with '%s'. Do not number them.", count, ideaMarker)
}

func buildParagraphPrompt(prompt, priorContext string) string {
	prompt = strings.TrimSpace(prompt)
	priorContext = clipTail(priorContext, maxContextChars)
	if priorContext == "" {
		return "Prompt: " + prompt
	}
	var b strings.Builder
	b.WriteString("Prior story context:\n")
	b.WriteString(priorContext)
	b.WriteString("\n\nContinue the story with the next paragraph, matching its tone and style.\n")
	b.WriteString("Prompt: ")
	b.WriteString(prompt)
	return b.String()
}

// buildEditPrompt sends the whole document; the reply replaces it verbatim.
func buildEditPrompt(document string) string {
	return "Here is the story to revise:\n\n" + document
}

// parseIdeas extracts premises from lines that start with the IDEA: marker.
func parseIdeas(raw string) []string {
	var ideas []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•> ")
		line = strings.Trim(line, "*_")
		line = strings.TrimSpace(line)
		if len(line) < len(ideaMarker) || !strings.EqualFold(line[:len(ideaMarker)], ideaMarker) {
			continue
		}
		idea := strings.TrimSpace(line[len(ideaMarker):])
		idea = strings.Trim(idea, "*_")
		idea = whitespaceRe.ReplaceAllString(strings.TrimSpace(idea), " ")
		if idea == "" {
			continue
		}
		ideas = append(ideas, idea)
	}
	return ideas
}

// cleanSuggestion strips a markdown code fence wrapped around the whole reply.
func cleanSuggestion(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	return text
}
