package dedup

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"feedloop.app/triage/common/llm"
	"feedloop.app/triage/common/logger"
)

// Result is the duplicate-check stage record. Checked is false when the
// embedding or search failed; the pipeline then treats the item as novel
// rather than blocking on the vector store.
type Result struct {
	IsDuplicate bool
	DuplicateOf *int64
	Similarity  float64
	Checked     bool
}

type Config struct {
	IndexName string
	KeyPrefix string
	Threshold float64
	TopK      int
}

// Detector finds near-duplicate feedback using embeddings and KNN search
// over a Redis vector index.
type Detector struct {
	client   *redis.Client
	embedder llm.Embedder
	cfg      Config
}

func NewDetector(client *redis.Client, embedder llm.Embedder, cfg Config) *Detector {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "feedback:emb:"
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.85
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Detector{
		client:   client,
		embedder: embedder,
		cfg:      cfg,
	}
}

// EnsureIndex creates the HNSW vector index if it does not exist yet.
func (d *Detector) EnsureIndex(ctx context.Context) error {
	err := d.client.FTCreate(ctx, d.cfg.IndexName,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []any{d.cfg.KeyPrefix},
		},
		&redis.FieldSchema{
			FieldName: "feedback_id",
			FieldType: redis.SearchFieldTypeNumeric,
		},
		&redis.FieldSchema{
			FieldName: "embedding",
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				HNSWOptions: &redis.FTHNSWOptions{
					Type:           "FLOAT32",
					Dim:            d.embedder.Dimensions(),
					DistanceMetric: "COSINE",
				},
			},
		},
	).Err()
	if err != nil && !strings.Contains(err.Error(), "Index already exists") {
		return fmt.Errorf("creating vector index: %w", err)
	}
	return nil
}

// Check embeds the content and searches for the nearest stored feedback.
// The embedding is returned so the caller can index it later without a
// second API call. Any failure yields a not-duplicate result.
func (d *Detector) Check(ctx context.Context, feedbackID int64, content string) (Result, []float32) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.dedup",
	})

	vec, err := d.embedder.Embed(ctx, content)
	if err != nil {
		slog.WarnContext(ctx, "embedding failed, treating as not duplicate", "error", err)
		return Result{}, nil
	}

	match, similarity, err := d.nearest(ctx, feedbackID, vec)
	if err != nil {
		slog.WarnContext(ctx, "vector search failed, treating as not duplicate", "error", err)
		return Result{Checked: false}, vec
	}

	result := Result{Similarity: similarity, Checked: true}
	if match != nil && similarity >= d.cfg.Threshold {
		result.IsDuplicate = true
		result.DuplicateOf = match
		slog.InfoContext(ctx, "duplicate detected",
			"duplicate_of", *match,
			"similarity", similarity)
	}
	return result, vec
}

// Index upserts the embedding for a feedback item. Safe to call again on
// redelivery; the hash key is derived from the feedback ID.
func (d *Detector) Index(ctx context.Context, feedbackID int64, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding")
	}
	key := d.key(feedbackID)
	if err := d.client.HSet(ctx, key, map[string]any{
		"feedback_id": feedbackID,
		"embedding":   encodeVector(vec),
	}).Err(); err != nil {
		return fmt.Errorf("indexing embedding (key=%s): %w", key, err)
	}
	return nil
}

func (d *Detector) nearest(ctx context.Context, selfID int64, vec []float32) (*int64, float64, error) {
	query := fmt.Sprintf("*=>[KNN %d @embedding $vec AS vector_distance]", d.cfg.TopK)
	res, err := d.client.FTSearchWithArgs(ctx, d.cfg.IndexName, query,
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: "feedback_id"},
				{FieldName: "vector_distance"},
			},
			SortBy: []redis.FTSearchSortBy{
				{FieldName: "vector_distance", Asc: true},
			},
			DialectVersion: 2,
			Params: map[string]any{
				"vec": encodeVector(vec),
			},
			LimitOffset: 0,
			Limit:       d.cfg.TopK,
		},
	).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("knn search: %w", err)
	}

	for _, doc := range res.Docs {
		idStr, ok := doc.Fields["feedback_id"]
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id == selfID {
			continue
		}
		distStr, ok := doc.Fields["vector_distance"]
		if !ok {
			continue
		}
		dist, err := strconv.ParseFloat(distStr, 64)
		if err != nil {
			continue
		}
		// Cosine distance to similarity
		return &id, 1 - dist, nil
	}

	return nil, 0, nil
}

func (d *Detector) key(feedbackID int64) string {
	return d.cfg.KeyPrefix + strconv.FormatInt(feedbackID, 10)
}

// encodeVector packs float32 values as little-endian bytes, the layout
// RediSearch expects for FLOAT32 vector fields.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
