package respond

import (
	"context"
	"errors"
	"testing"
	"time"

	"innbox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	matches []models.Match
	err     error
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ int) ([]models.Match, error) {
	f.queries = append(f.queries, query)
	return f.matches, f.err
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeNotifier struct {
	drafts []*models.Draft
	err    error
}

func (f *fakeNotifier) NotifyDraft(_ context.Context, draft *models.Draft) error {
	f.drafts = append(f.drafts, draft)
	return f.err
}

func unansweredSource(base time.Time) *fakeThreadSource {
	source := newFakeThreadSource()
	source.add("t1", models.SenderExternal, "Looking for a wedding date in June", base)
	source.add("t1", models.SenderOperator, "We have June 14 open", base.Add(time.Hour))
	source.add("t1", models.SenderExternal, "Great, what's the catering minimum?", base.Add(2*time.Hour))
	return source
}

func TestProcessUnanswered_GeneratesDraft(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := unansweredSource(base)

	retriever := &fakeRetriever{matches: []models.Match{
		{Message: models.Message{MessageID: "m", ThreadID: "t-similar"}, Similarity: 0.91},
	}}
	generator := &fakeGenerator{reply: "Our catering minimum is 40 guests."}
	notifier := &fakeNotifier{}

	o := NewOrchestrator(NewDetector(source), retriever, NewAssembler(source, 300), generator, notifier)
	drafts, err := o.ProcessUnanswered(context.Background(), base.Add(-time.Hour), 10, 3)
	require.NoError(t, err)

	require.Len(t, drafts, 1)
	draft := drafts[0]
	assert.Equal(t, models.DraftGenerated, draft.State)
	assert.Equal(t, "t1", draft.ThreadID)
	assert.Equal(t, "Great, what's the catering minimum?", draft.GuestText)
	assert.Equal(t, "Our catering minimum is 40 guests.", draft.Text)
	require.Len(t, draft.Matches, 1)
	assert.Equal(t, "t-similar", draft.Matches[0].ThreadID)
	assert.InDelta(t, 0.91, draft.Matches[0].Similarity, 1e-9)
	require.Len(t, notifier.drafts, 1)
}

func TestProcessUnanswered_NoContextSkipsGeneration(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := unansweredSource(base)

	retriever := &fakeRetriever{}
	generator := &fakeGenerator{reply: "should never be used"}

	o := NewOrchestrator(NewDetector(source), retriever, NewAssembler(source, 300), generator, nil)
	drafts, err := o.ProcessUnanswered(context.Background(), base.Add(-time.Hour), 10, 3)
	require.NoError(t, err)

	require.Len(t, drafts, 1)
	assert.Equal(t, models.DraftNoContext, drafts[0].State)
	assert.Empty(t, drafts[0].Text)
	assert.Empty(t, generator.prompts)
}

func TestProcessUnanswered_RetrievalFailureIsTerminal(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := unansweredSource(base)

	retriever := &fakeRetriever{err: errors.New("index unavailable")}
	o := NewOrchestrator(NewDetector(source), retriever, NewAssembler(source, 300), &fakeGenerator{}, nil)

	drafts, err := o.ProcessUnanswered(context.Background(), base.Add(-time.Hour), 10, 3)
	require.NoError(t, err)

	require.Len(t, drafts, 1)
	assert.Equal(t, models.DraftFailed, drafts[0].State)
	assert.Contains(t, drafts[0].Error, "retrieval failed")
}

func TestProcessUnanswered_GenerationFailureIsTerminal(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := unansweredSource(base)

	retriever := &fakeRetriever{matches: []models.Match{
		{Message: models.Message{ThreadID: "t-similar"}, Similarity: 0.8},
	}}
	generator := &fakeGenerator{err: errors.New("rate limited")}

	o := NewOrchestrator(NewDetector(source), retriever, NewAssembler(source, 300), generator, nil)
	drafts, err := o.ProcessUnanswered(context.Background(), base.Add(-time.Hour), 10, 3)
	require.NoError(t, err)

	require.Len(t, drafts, 1)
	assert.Equal(t, models.DraftFailed, drafts[0].State)
	assert.Contains(t, drafts[0].Error, "generation failed")
}

func TestProcessUnanswered_NotifierFailureKeepsDraft(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := unansweredSource(base)

	retriever := &fakeRetriever{matches: []models.Match{
		{Message: models.Message{ThreadID: "t-similar"}, Similarity: 0.8},
	}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	o := NewOrchestrator(NewDetector(source), retriever, NewAssembler(source, 300), &fakeGenerator{reply: "draft"}, notifier)
	drafts, err := o.ProcessUnanswered(context.Background(), base.Add(-time.Hour), 10, 3)
	require.NoError(t, err)

	require.Len(t, drafts, 1)
	assert.Equal(t, models.DraftGenerated, drafts[0].State)
}
