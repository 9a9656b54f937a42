package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeService struct {
	mu sync.Mutex

	ideas     [][]string
	ideasErr  error
	paragraph string
	editText  string
	err       error

	ideaCalls      int
	paragraphCalls int
	editCalls      int
	lastPrompt     string
	lastContext    string
	lastDocument   string
}

func (f *fakeService) FetchIdeas(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ideaCalls++
	if f.ideasErr != nil {
		return nil, f.ideasErr
	}
	if len(f.ideas) == 0 {
		return nil, nil
	}
	batch := f.ideas[0]
	if len(f.ideas) > 1 {
		f.ideas = f.ideas[1:]
	}
	return batch, nil
}

func (f *fakeService) GenerateParagraph(ctx context.Context, prompt, priorContext string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paragraphCalls++
	f.lastPrompt = prompt
	f.lastContext = priorContext
	return f.paragraph, f.err
}

func (f *fakeService) SuggestEdits(ctx context.Context, document string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editCalls++
	f.lastDocument = document
	return f.editText, f.err
}

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestRequestIdeasReplacesList(t *testing.T) {
	svc := &fakeService{ideas: [][]string{
		{"a ghost ship", "a city under glass"},
		{"a clockwork bee"},
	}}
	c := New(svc)
	ctx := context.Background()

	require.True(t, c.Do(ctx, c.RequestIdeas()))
	snap := c.Snapshot()
	if diff := cmp.Diff([]string{"a ghost ship", "a city under glass"}, snap.Ideas.Value); diff != "" {
		t.Fatalf("first batch mismatch (-want +got):\n%s", diff)
	}

	require.True(t, c.Do(ctx, c.RequestIdeas()))
	snap = c.Snapshot()
	if diff := cmp.Diff([]string{"a clockwork bee"}, snap.Ideas.Value); diff != "" {
		t.Fatalf("ideas accumulated across calls (-want +got):\n%s", diff)
	}
	assert.False(t, snap.Ideas.Loading)
	assert.Empty(t, snap.Ideas.Err)
	assert.Equal(t, 2, svc.ideaCalls)
}

func TestRequestIdeasClearsBeforeIssuing(t *testing.T) {
	svc := &fakeService{ideas: [][]string{{"one"}}}
	c := New(svc)
	require.True(t, c.Do(context.Background(), c.RequestIdeas()))

	req := c.RequestIdeas()
	require.NotNil(t, req)
	snap := c.Snapshot()
	assert.True(t, snap.Ideas.Loading)
	assert.Empty(t, snap.Ideas.Value)
	assert.False(t, snap.Ideas.Present)
	assert.Equal(t, KindIdeas, req.Kind())
	c.Apply(c.Execute(context.Background(), req))
}

func TestSelectIdeaSetsPrompt(t *testing.T) {
	c := New(&fakeService{})
	c.UpdatePrompt("draft")
	c.SelectIdea("a lighthouse keeper finds a message in a bottle")
	assert.Equal(t, "a lighthouse keeper finds a message in a bottle", c.Snapshot().Prompt)
}

func TestGenerateParagraphBlankPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t "} {
		svc := &fakeService{paragraph: "never"}
		c := New(svc)
		c.UpdatePrompt(prompt)

		req := c.GenerateParagraph()
		assert.Nil(t, req)
		assert.False(t, c.Do(context.Background(), req))
		assert.Zero(t, svc.paragraphCalls)
		snap := c.Snapshot()
		assert.Equal(t, msgPromptRequired, snap.Paragraph.Err)
		assert.False(t, snap.Paragraph.Loading)
	}
}

func TestGenerateParagraphScenario(t *testing.T) {
	svc := &fakeService{paragraph: "The keeper turned the bottle..."}
	c := New(svc)
	c.UpdatePrompt("a lighthouse keeper finds a message in a bottle")

	req := c.GenerateParagraph()
	require.NotNil(t, req)
	assert.True(t, c.Snapshot().Paragraph.Loading)

	require.True(t, c.Apply(c.Execute(context.Background(), req)))
	snap := c.Snapshot()
	assert.Equal(t, "The keeper turned the bottle...", snap.Paragraph.Value)
	assert.False(t, snap.Paragraph.Loading)
	assert.Empty(t, snap.Paragraph.Err)
	assert.Equal(t, "a lighthouse keeper finds a message in a bottle", svc.lastPrompt)
	assert.Equal(t, "", svc.lastContext)
}

func TestGenerateParagraphCapturesInputsAtIssue(t *testing.T) {
	svc := &fakeService{paragraph: "next"}
	c := New(svc, WithStory("Once upon a time."))
	c.UpdatePrompt("the dragon wakes")

	req := c.GenerateParagraph()
	c.UpdatePrompt("something else entirely")
	c.EditStoryDocument("rewritten")
	c.Do(context.Background(), req)

	assert.Equal(t, "the dragon wakes", svc.lastPrompt)
	assert.Equal(t, "Once upon a time.", svc.lastContext)
	assert.Equal(t, "next", c.Snapshot().Paragraph.Value)
}

func TestAddParagraphToStory(t *testing.T) {
	cases := []struct {
		name  string
		story string
		para  string
		want  string
	}{
		{name: "empty story", story: "", para: "First.", want: "First."},
		{name: "existing story", story: "First.", para: "Second.", want: "First.\n\nSecond."},
		{name: "whitespace story", story: " ", para: "Second.", want: " \n\nSecond."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(&fakeService{paragraph: tc.para}, WithStory(tc.story))
			c.UpdatePrompt("prompt")
			require.True(t, c.Do(context.Background(), c.GenerateParagraph()))

			assert.True(t, c.AddParagraphToStory())
			snap := c.Snapshot()
			assert.Equal(t, tc.want, snap.Story)
			assert.False(t, snap.Paragraph.Present)
			assert.Empty(t, snap.Paragraph.Value)
		})
	}
}

func TestAddParagraphToStoryNoop(t *testing.T) {
	c := New(&fakeService{}, WithStory("kept"))
	assert.False(t, c.AddParagraphToStory())
	assert.Equal(t, "kept", c.Snapshot().Story)
}

func TestRequestEditSuggestionBlankStory(t *testing.T) {
	svc := &fakeService{editText: "never"}
	c := New(svc, WithStory("  \n"))

	assert.Nil(t, c.RequestEditSuggestion())
	assert.Zero(t, svc.editCalls)
	assert.Equal(t, msgStoryRequired, c.Snapshot().Suggestion.Err)
}

func TestApplyEditSuggestionScenario(t *testing.T) {
	svc := &fakeService{editText: "Once, long ago, in a time forgotten..."}
	c := New(svc)
	c.EditStoryDocument("Once upon a time.")

	require.True(t, c.Do(context.Background(), c.RequestEditSuggestion()))
	snap := c.Snapshot()
	assert.Equal(t, "Once, long ago, in a time forgotten...", snap.Suggestion.Value)
	assert.Equal(t, "Once upon a time.", svc.lastDocument)

	assert.True(t, c.ApplyEditSuggestion())
	snap = c.Snapshot()
	assert.Equal(t, "Once, long ago, in a time forgotten...", snap.Story)
	assert.False(t, snap.Suggestion.Present)
	assert.Empty(t, snap.Suggestion.Value)
}

func TestApplyEmptySuggestionKeepsStory(t *testing.T) {
	c := New(&fakeService{editText: ""}, WithStory("Keep me."))
	require.True(t, c.Do(context.Background(), c.RequestEditSuggestion()))
	require.True(t, c.Snapshot().Suggestion.Present)

	assert.False(t, c.ApplyEditSuggestion())
	assert.Equal(t, "Keep me.", c.Snapshot().Story)
}

func TestDiscardEditSuggestionKeepsStory(t *testing.T) {
	c := New(&fakeService{editText: "revised"}, WithStory("original"))
	require.True(t, c.Do(context.Background(), c.RequestEditSuggestion()))

	c.DiscardEditSuggestion()
	snap := c.Snapshot()
	assert.Equal(t, "original", snap.Story)
	assert.False(t, snap.Suggestion.Present)
	assert.False(t, c.ApplyEditSuggestion())
}

func TestRemoteFailureSetsError(t *testing.T) {
	svc := &fakeService{ideasErr: errors.New("network timeout"), err: errors.New("network timeout")}
	c := New(svc, WithStory("Once upon a time."))
	c.UpdatePrompt("prompt")
	ctx := context.Background()

	c.Do(ctx, c.RequestIdeas())
	c.Do(ctx, c.GenerateParagraph())
	c.Do(ctx, c.RequestEditSuggestion())

	snap := c.Snapshot()
	for name, view := range map[string]SliceView[string]{"paragraph": snap.Paragraph, "suggestion": snap.Suggestion} {
		assert.Equal(t, "network timeout", view.Err, name)
		assert.False(t, view.Loading, name)
		assert.False(t, view.Present, name)
	}
	assert.Equal(t, "network timeout", snap.Ideas.Err)
	assert.False(t, snap.Ideas.Loading)
	assert.Empty(t, snap.Ideas.Value)
}

func TestRemoteFailureFallbackMessage(t *testing.T) {
	c := New(&fakeService{ideasErr: emptyError{}})
	c.Do(context.Background(), c.RequestIdeas())
	assert.Equal(t, fallbackIdeas, c.Snapshot().Ideas.Err)
}

func TestErrorDoesNotBlockNextRequest(t *testing.T) {
	svc := &fakeService{err: errors.New("boom")}
	c := New(svc)
	c.UpdatePrompt("prompt")
	ctx := context.Background()

	c.Do(ctx, c.GenerateParagraph())
	require.Equal(t, "boom", c.Snapshot().Paragraph.Err)

	svc.err = nil
	svc.paragraph = "recovered"
	require.True(t, c.Do(ctx, c.GenerateParagraph()))
	snap := c.Snapshot()
	assert.Empty(t, snap.Paragraph.Err)
	assert.Equal(t, "recovered", snap.Paragraph.Value)
}

func TestStaleResponseDropped(t *testing.T) {
	svc := &fakeService{ideas: [][]string{{"old"}, {"new"}}}
	c := New(svc)
	ctx := context.Background()

	first := c.RequestIdeas()
	second := c.RequestIdeas()
	assert.Greater(t, second.Seq(), first.Seq())

	firstOut := c.Execute(ctx, first)
	secondOut := c.Execute(ctx, second)

	assert.True(t, c.Apply(secondOut))
	assert.False(t, c.Apply(firstOut))
	assert.Equal(t, []string{"new"}, c.Snapshot().Ideas.Value)
}

func TestSlicesAreIndependent(t *testing.T) {
	svc := &fakeService{ideas: [][]string{{"idea"}}, paragraph: "para", editText: "edit"}
	c := New(svc, WithStory("story"))
	c.UpdatePrompt("prompt")
	ctx := context.Background()

	ideasReq := c.RequestIdeas()
	paraReq := c.GenerateParagraph()
	editReq := c.RequestEditSuggestion()
	snap := c.Snapshot()
	require.True(t, snap.Busy())

	c.Apply(c.Execute(ctx, editReq))
	snap = c.Snapshot()
	assert.True(t, snap.Ideas.Loading)
	assert.True(t, snap.Paragraph.Loading)
	assert.Equal(t, "edit", snap.Suggestion.Value)

	c.Apply(c.Execute(ctx, paraReq))
	c.Apply(c.Execute(ctx, ideasReq))
	snap = c.Snapshot()
	assert.False(t, snap.Busy())
	assert.Equal(t, "para", snap.Paragraph.Value)
	assert.Equal(t, []string{"idea"}, snap.Ideas.Value)
}

func TestConcurrentRequests(t *testing.T) {
	svc := &fakeService{ideas: [][]string{{"x"}}, paragraph: "p", editText: "e"}
	c := New(svc, WithStory("story"))
	c.UpdatePrompt("prompt")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); c.Do(ctx, c.RequestIdeas()) }()
		go func() { defer wg.Done(); c.Do(ctx, c.GenerateParagraph()) }()
		go func() { defer wg.Done(); c.Do(ctx, c.RequestEditSuggestion()) }()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.False(t, snap.Busy())
	assert.Equal(t, "p", snap.Paragraph.Value)
	assert.Equal(t, "e", snap.Suggestion.Value)
}

func TestSnapshotCopiesIdeas(t *testing.T) {
	c := New(&fakeService{ideas: [][]string{{"keep"}}})
	c.Do(context.Background(), c.RequestIdeas())
	snap := c.Snapshot()
	snap.Ideas.Value[0] = "mutated"
	assert.Equal(t, "keep", c.Snapshot().Ideas.Value[0])
}

func TestValidationErrorLeavesData(t *testing.T) {
	c := New(&fakeService{paragraph: "draft"})
	c.UpdatePrompt("prompt")
	require.True(t, c.Do(context.Background(), c.GenerateParagraph()))

	c.UpdatePrompt("")
	assert.Nil(t, c.GenerateParagraph())
	snap := c.Snapshot()
	assert.Equal(t, "draft", snap.Paragraph.Value)
	assert.Equal(t, msgPromptRequired, snap.Paragraph.Err)
}
