package respond

import (
	"context"
	"strings"
	"testing"
	"time"

	"innbox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContext_RendersThreadChronologically(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := newFakeThreadSource()
	// Inserted out of order on purpose
	source.add("t1", models.SenderExternal, "Great, what's the catering minimum?", base.Add(2*time.Hour))
	source.add("t1", models.SenderExternal, "Looking for a wedding date in June", base)
	source.add("t1", models.SenderOperator, "We have June 14 open", base.Add(time.Hour))

	assembler := NewAssembler(source, 300)
	matches := []models.Match{
		{Message: models.Message{ThreadID: "t1"}, Similarity: 0.87},
	}

	prompt, err := assembler.BuildContext(context.Background(), "catering cost", matches)
	require.NoError(t, err)

	assert.Contains(t, prompt, "catering cost")
	assert.Contains(t, prompt, "similarity 0.870")

	first := strings.Index(prompt, "External: Looking for a wedding date in June")
	second := strings.Index(prompt, "Operator: We have June 14 open")
	third := strings.Index(prompt, "External: Great, what's the catering minimum?")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, third)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestBuildContext_TruncatesLongBodies(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := newFakeThreadSource()
	source.add("t1", models.SenderExternal, strings.Repeat("x", 400), base)

	assembler := NewAssembler(source, 50)
	matches := []models.Match{
		{Message: models.Message{ThreadID: "t1"}, Similarity: 0.5},
	}

	prompt, err := assembler.BuildContext(context.Background(), "query", matches)
	require.NoError(t, err)

	assert.Contains(t, prompt, strings.Repeat("x", 50)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 51))
}

func TestBuildContext_MultipleMatchesKeepRetrievalOrder(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	source := newFakeThreadSource()
	source.add("t-best", models.SenderExternal, "about the pool", base)
	source.add("t-second", models.SenderExternal, "about parking", base)

	assembler := NewAssembler(source, 300)
	matches := []models.Match{
		{Message: models.Message{ThreadID: "t-best"}, Similarity: 0.9},
		{Message: models.Message{ThreadID: "t-second"}, Similarity: 0.7},
	}

	prompt, err := assembler.BuildContext(context.Background(), "query", matches)
	require.NoError(t, err)

	assert.Less(t, strings.Index(prompt, "about the pool"), strings.Index(prompt, "about parking"))
	assert.Contains(t, prompt, "Similar conversation 1 (similarity 0.900)")
	assert.Contains(t, prompt, "Similar conversation 2 (similarity 0.700)")
}
