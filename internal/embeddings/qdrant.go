package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"

	"innbox/internal/models"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantMirror keeps a Qdrant collection in step with the SQL vector store
// so similarity queries can use ANN search instead of a full scan.
type QdrantMirror struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantMirror connects to Qdrant and ensures the collection exists
func NewQdrantMirror(host string, port int, collection string, dimension int) (*QdrantMirror, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	m := &QdrantMirror{client: client, collection: collection, dimension: dimension}
	if err := m.ensureCollection(context.Background()); err != nil {
		return nil, err
	}

	fmt.Printf("[QDRANT] Connected to %s:%d (collection: %s)\n", host, port, collection)
	return m, nil
}

func (m *QdrantMirror) ensureCollection(ctx context.Context) error {
	exists, err := m.client.CollectionExists(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = m.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: m.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(m.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", m.collection, err)
	}
	return nil
}

// Upsert mirrors a batch of embedding records into the collection. Point
// ids derive from the message_id hash so re-mirroring the same record
// overwrites rather than duplicates.
func (m *QdrantMirror) Upsert(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(pointID(r.MessageID)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"message_id": r.MessageID,
				"thread_id":  r.ThreadID,
				"model_id":   r.ModelID,
			}),
		}
	}

	_, err := m.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: m.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query returns the message_ids of the nearest vectors with their scores
func (m *QdrantMirror) Query(ctx context.Context, vector []float32, limit int) ([]ScoredID, error) {
	results, err := m.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: m.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	scored := make([]ScoredID, 0, len(results))
	for _, point := range results {
		messageID := point.Payload["message_id"].GetStringValue()
		if messageID == "" {
			continue
		}
		scored = append(scored, ScoredID{
			MessageID:  messageID,
			ThreadID:   point.Payload["thread_id"].GetStringValue(),
			Similarity: float64(point.Score),
		})
	}
	return scored, nil
}

// ScoredID is a similarity hit by message_id
type ScoredID struct {
	MessageID  string
	ThreadID   string
	Similarity float64
}

func pointID(messageID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(messageID))
	return h.Sum64()
}
