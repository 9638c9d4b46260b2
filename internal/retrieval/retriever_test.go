package retrieval

import (
	"context"
	"testing"

	"innbox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float32
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return f.vector, nil
}

type fakeLookup struct {
	messages map[string]models.Message
}

func (f *fakeLookup) FindByMessageIDs(_ context.Context, ids []string) ([]models.Message, error) {
	var out []models.Message
	for _, id := range ids {
		if m, ok := f.messages[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeVectorSource struct {
	records []models.EmbeddingRecord
}

func (f *fakeVectorSource) All(_ context.Context) ([]models.EmbeddingRecord, error) {
	return f.records, nil
}

func record(messageID, threadID string, vector []float32) models.EmbeddingRecord {
	return models.EmbeddingRecord{MessageID: messageID, ThreadID: threadID, Vector: vector}
}

func message(messageID, threadID, body string) models.Message {
	return models.Message{MessageID: messageID, ThreadID: threadID, BodyText: body}
}

func TestScanSearcher_RanksBySimilarity(t *testing.T) {
	source := &fakeVectorSource{records: []models.EmbeddingRecord{
		record("msg-far", "t1", []float32{0, 1, 0}),
		record("msg-near", "t2", []float32{1, 0, 0}),
		record("msg-mid", "t3", []float32{1, 1, 0}),
	}}

	searcher := NewScanSearcher(source)
	hits, err := searcher.Query(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "msg-near", hits[0].MessageID)
	assert.Equal(t, "msg-mid", hits[1].MessageID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestScanSearcher_MismatchedDimensionScoresZero(t *testing.T) {
	source := &fakeVectorSource{records: []models.EmbeddingRecord{
		record("msg-bad", "t1", []float32{1, 0}),
	}}

	searcher := NewScanSearcher(source)
	hits, err := searcher.Query(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.0, hits[0].Similarity)
}

func TestRetrieve_DiversifiesAcrossThreads(t *testing.T) {
	// Five vectors in two threads: diversification keeps only the best
	// hit of each thread even when k allows more
	source := &fakeVectorSource{records: []models.EmbeddingRecord{
		record("a1", "thread-a", []float32{1, 0}),
		record("a2", "thread-a", []float32{0.99, 0.1}),
		record("a3", "thread-a", []float32{0.98, 0.2}),
		record("b1", "thread-b", []float32{0.9, 0.4}),
		record("b2", "thread-b", []float32{0.8, 0.6}),
	}}
	lookup := &fakeLookup{messages: map[string]models.Message{
		"a1": message("a1", "thread-a", "pool hours"),
		"b1": message("b1", "thread-b", "late checkout"),
	}}

	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, NewScanSearcher(source), lookup, 3)
	matches, err := r.Retrieve(context.Background(), "what are the pool hours", 5)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "a1", matches[0].MessageID)
	assert.Equal(t, "b1", matches[1].MessageID)
}

func TestRetrieve_CapsAtK(t *testing.T) {
	source := &fakeVectorSource{records: []models.EmbeddingRecord{
		record("a", "t-a", []float32{1, 0}),
		record("b", "t-b", []float32{0.9, 0.1}),
		record("c", "t-c", []float32{0.8, 0.2}),
	}}
	lookup := &fakeLookup{messages: map[string]models.Message{
		"a": message("a", "t-a", ""),
		"b": message("b", "t-b", ""),
		"c": message("c", "t-c", ""),
	}}

	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, NewScanSearcher(source), lookup, 3)
	matches, err := r.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].MessageID)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, NewScanSearcher(&fakeVectorSource{}), &fakeLookup{}, 3)
	matches, err := r.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieve_SkipsOrphanedIndexEntries(t *testing.T) {
	source := &fakeVectorSource{records: []models.EmbeddingRecord{
		record("gone", "t-a", []float32{1, 0}),
		record("here", "t-b", []float32{0.5, 0.5}),
	}}
	lookup := &fakeLookup{messages: map[string]models.Message{
		"here": message("here", "t-b", "still stored"),
	}}

	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, NewScanSearcher(source), lookup, 3)
	matches, err := r.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "here", matches[0].MessageID)
}

func TestRetrieve_ZeroK(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, NewScanSearcher(&fakeVectorSource{}), &fakeLookup{}, 3)
	matches, err := r.Retrieve(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Nil(t, matches)
}
