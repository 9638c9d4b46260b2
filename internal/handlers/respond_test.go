package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"innbox/internal/models"
	"innbox/internal/respond"
	"innbox/internal/retrieval"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ThreadSource / MessageLookup / VectorSource
// backing the handler tests with a tiny fully wired pipeline.
type memoryStore struct {
	messages []models.Message
	vectors  []models.EmbeddingRecord
}

func (m *memoryStore) FindExternalSince(_ context.Context, since time.Time, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.SenderClass == models.SenderExternal && !msg.SentAt.Before(since) {
			out = append(out, msg)
		}
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) LatestByThread(_ context.Context, threadID string) (*models.Message, error) {
	var head *models.Message
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ThreadID != threadID {
			continue
		}
		if head == nil || msg.SentAt.After(head.SentAt) {
			head = msg
		}
	}
	return head, nil
}

func (m *memoryStore) FindByThread(_ context.Context, threadID string) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ThreadID == threadID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memoryStore) FindByMessageIDs(_ context.Context, ids []string) ([]models.Message, error) {
	var out []models.Message
	for _, id := range ids {
		for _, msg := range m.messages {
			if msg.MessageID == id {
				out = append(out, msg)
			}
		}
	}
	return out, nil
}

func (m *memoryStore) All(_ context.Context) ([]models.EmbeddingRecord, error) {
	return m.vectors, nil
}

type staticEmbedder struct {
	vector []float32
}

func (s *staticEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return s.vector, nil
}

type staticGenerator struct {
	reply string
}

func (s *staticGenerator) Complete(_ context.Context, _ string) (string, error) {
	return s.reply, nil
}

func pipelineFixture() *memoryStore {
	base := time.Now().Add(-24 * time.Hour)
	return &memoryStore{
		messages: []models.Message{
			{MessageID: "h1", ThreadID: "t-hist", SentAt: base, SenderClass: models.SenderExternal, BodyText: "What is the catering minimum?"},
			{MessageID: "h2", ThreadID: "t-hist", SentAt: base.Add(time.Hour), SenderClass: models.SenderOperator, BodyText: "Our minimum is 40 guests."},
			{MessageID: "g1", ThreadID: "t-open", SentAt: base.Add(2 * time.Hour), SenderClass: models.SenderExternal, Subject: "Catering", BodyText: "Do you cater for 35 people?"},
		},
		vectors: []models.EmbeddingRecord{
			{MessageID: "h1", ThreadID: "t-hist", Vector: []float32{1, 0}},
		},
	}
}

func TestRespondHandler_FullPipeline(t *testing.T) {
	store := pipelineFixture()
	retriever := retrieval.NewRetriever(&staticEmbedder{vector: []float32{1, 0}}, retrieval.NewScanSearcher(store), store, 3)
	orchestrator := respond.NewOrchestrator(
		respond.NewDetector(store),
		retriever,
		respond.NewAssembler(store, 300),
		&staticGenerator{reply: "Yes, 35 works with a small supplement."},
		nil,
	)

	e := echo.New()
	body := `{"days_back": 7, "limit": 5, "k": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/respond", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, RespondHandler(orchestrator)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.RespondResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.Len(t, response.Drafts, 1)

	draft := response.Drafts[0]
	assert.Equal(t, "t-open", draft.ThreadID)
	assert.Equal(t, models.DraftGenerated, draft.State)
	assert.Equal(t, "Yes, 35 works with a small supplement.", draft.Text)
	require.Len(t, draft.Matches, 1)
	assert.Equal(t, "t-hist", draft.Matches[0].ThreadID)
}

func TestSearchHandler(t *testing.T) {
	store := pipelineFixture()
	retriever := retrieval.NewRetriever(&staticEmbedder{vector: []float32{1, 0}}, retrieval.NewScanSearcher(store), store, 3)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query": "catering", "k": 3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, SearchHandler(retriever)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.Len(t, response.Matches, 1)
	assert.Equal(t, "h1", response.Matches[0].MessageID)
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	store := pipelineFixture()
	retriever := retrieval.NewRetriever(&staticEmbedder{vector: []float32{1, 0}}, retrieval.NewScanSearcher(store), store, 3)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query": ""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, SearchHandler(retriever)(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnansweredHandler(t *testing.T) {
	store := pipelineFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/unanswered?days_back=7&limit=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, UnansweredHandler(respond.NewDetector(store))(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.UnansweredResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Threads, 1)
	assert.Equal(t, "t-open", response.Threads[0].ThreadID)
}
