package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgPromptRequired = "Please enter a prompt first."
	msgStoryRequired  = "There's no story content to edit yet. Write something in 'Your Masterpiece' first!"

	fallbackIdeas      = "An unknown error occurred while fetching ideas."
	fallbackParagraph  = "An unknown error occurred while generating the paragraph."
	fallbackSuggestion = "An unknown error occurred while suggesting edits."

	paragraphSeparator = "\n\n"
)

// Service is the remote text-generation capability the controller drives.
type Service interface {
	FetchIdeas(ctx context.Context) ([]string, error)
	GenerateParagraph(ctx context.Context, prompt, priorContext string) (string, error)
	SuggestEdits(ctx context.Context, document string) (string, error)
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStory seeds the story document.
func WithStory(text string) Option {
	return func(c *Controller) {
		c.story = text
	}
}

// Controller owns the state of one editing session and mediates between
// user actions and the remote Service.
type Controller struct {
	id     string
	svc    Service
	logger *zap.Logger

	mu         sync.Mutex
	ideas      Slice[[]string]
	prompt     string
	paragraph  Slice[string]
	story      string
	suggestion Slice[string]
}

// New returns a controller bound to svc.
func New(svc Service, opts ...Option) *Controller {
	c := &Controller{
		id:     uuid.NewString(),
		svc:    svc,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("session", c.id))
	return c
}

// ID identifies the session in logs.
func (c *Controller) ID() string {
	return c.id
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Ideas      SliceView[[]string]
	Prompt     string
	Paragraph  SliceView[string]
	Story      string
	Suggestion SliceView[string]
}

// Busy reports whether any remote request is in flight.
func (s Snapshot) Busy() bool {
	return s.Ideas.Loading || s.Paragraph.Loading || s.Suggestion.Loading
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	ideas := c.ideas.view()
	ideas.Value = append([]string(nil), ideas.Value...)
	return Snapshot{
		Ideas:      ideas,
		Prompt:     c.prompt,
		Paragraph:  c.paragraph.view(),
		Story:      c.story,
		Suggestion: c.suggestion.view(),
	}
}

// RequestIdeas starts a fresh ideas fetch.
func (c *Controller) RequestIdeas() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.ideas.begin()
	return c.issue(KindIdeas, seq, func(ctx context.Context, svc Service) (Outcome, error) {
		ideas, err := svc.FetchIdeas(ctx)
		return Outcome{Ideas: ideas}, err
	})
}

// SelectIdea copies idea into the prompt.
func (c *Controller) SelectIdea(idea string) {
	c.UpdatePrompt(idea)
}

// UpdatePrompt replaces the prompt text.
func (c *Controller) UpdatePrompt(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = text
}

// GenerateParagraph starts drafting a paragraph from the current prompt,
// passing the story so far as context. It returns nil when the prompt is
// blank; the validation message is stored in the paragraph slice.
func (c *Controller) GenerateParagraph() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(c.prompt) == "" {
		c.paragraph.reject(msgPromptRequired)
		c.logger.Debug("paragraph rejected", zap.String("reason", msgPromptRequired))
		return nil
	}
	prompt, story := c.prompt, c.story
	seq := c.paragraph.begin()
	return c.issue(KindParagraph, seq, func(ctx context.Context, svc Service) (Outcome, error) {
		text, err := svc.GenerateParagraph(ctx, prompt, story)
		return Outcome{Text: text}, err
	})
}

// AddParagraphToStory appends the generated paragraph to the story and
// clears the paragraph slot. It reports false when there was nothing to add.
func (c *Controller) AddParagraphToStory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paragraph.present || c.paragraph.value == "" {
		return false
	}
	if c.story == "" {
		c.story = c.paragraph.value
	} else {
		c.story = c.story + paragraphSeparator + c.paragraph.value
	}
	c.paragraph.clear()
	return true
}

// EditStoryDocument overwrites the story.
func (c *Controller) EditStoryDocument(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.story = text
}

// RequestEditSuggestion asks for a revised version of the whole story. It
// returns nil when the story is blank.
func (c *Controller) RequestEditSuggestion() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(c.story) == "" {
		c.suggestion.reject(msgStoryRequired)
		c.logger.Debug("edit suggestion rejected", zap.String("reason", msgStoryRequired))
		return nil
	}
	story := c.story
	seq := c.suggestion.begin()
	return c.issue(KindSuggestion, seq, func(ctx context.Context, svc Service) (Outcome, error) {
		text, err := svc.SuggestEdits(ctx, story)
		return Outcome{Text: text}, err
	})
}

// ApplyEditSuggestion replaces the story with the pending suggestion. An
// empty suggestion is never applied.
func (c *Controller) ApplyEditSuggestion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.suggestion.present || c.suggestion.value == "" {
		return false
	}
	c.story = c.suggestion.value
	c.suggestion.clear()
	return true
}

// DiscardEditSuggestion drops the pending suggestion.
func (c *Controller) DiscardEditSuggestion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestion.clear()
}

// Execute performs the remote call captured by req. It does not touch
// session state; hand the outcome to Apply.
func (c *Controller) Execute(ctx context.Context, req *Request) Outcome {
	started := time.Now()
	out, err := req.run(ctx, c.svc)
	out.Kind = req.kind
	out.Seq = req.seq
	out.Err = err
	out.Duration = time.Since(started)
	return out
}

// Apply folds a finished request into state. It returns false when the
// outcome belongs to a request that has since been superseded.
func (c *Controller) Apply(out Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := []zap.Field{
		zap.Stringer("kind", out.Kind),
		zap.Uint64("seq", out.Seq),
		zap.Duration("duration", out.Duration),
	}
	var applied bool
	switch out.Kind {
	case KindIdeas:
		applied = c.ideas.settle(out.Seq, out.Ideas, errorMessage(out.Err, fallbackIdeas))
	case KindParagraph:
		applied = c.paragraph.settle(out.Seq, out.Text, errorMessage(out.Err, fallbackParagraph))
	case KindSuggestion:
		applied = c.suggestion.settle(out.Seq, out.Text, errorMessage(out.Err, fallbackSuggestion))
	default:
		c.logger.Warn("unknown outcome kind", fields...)
		return false
	}
	switch {
	case !applied:
		c.logger.Info("stale response dropped", fields...)
	case out.Err != nil:
		c.logger.Warn("request failed", append(fields, zap.Error(out.Err))...)
	default:
		c.logger.Debug("request settled", fields...)
	}
	return applied
}

// Do executes req and applies its outcome. A nil request is a no-op.
func (c *Controller) Do(ctx context.Context, req *Request) bool {
	if req == nil {
		return false
	}
	return c.Apply(c.Execute(ctx, req))
}

func (c *Controller) issue(kind Kind, seq uint64, run runFunc) *Request {
	c.logger.Debug("request issued", zap.Stringer("kind", kind), zap.Uint64("seq", seq))
	return &Request{kind: kind, seq: seq, run: run}
}

func errorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
