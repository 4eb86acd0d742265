package llm

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
)

// ScoredID is a recipe id with its similarity to a query.
type ScoredID struct {
	RecipeID string
	Score    float64
}

// VectorRepository stores recipe embeddings next to the recipe rows.
type VectorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewVectorRepository(d *sql.DB, logger *zap.Logger) *VectorRepository {
	return &VectorRepository{db: d, logger: logger}
}

func (r *VectorRepository) Save(ctx context.Context, recipeID string, embedding []float32) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recipe_embeddings (recipe_id, embedding) VALUES (?, ?)
		 ON CONFLICT(recipe_id) DO UPDATE SET embedding = excluded.embedding`,
		recipeID, float32SliceToByteSlice(embedding))
	if err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", recipeID, err)
	}
	return nil
}

func (r *VectorRepository) Get(ctx context.Context, recipeID string) ([]float32, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT embedding FROM recipe_embeddings WHERE recipe_id = ?`, recipeID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get embedding by recipe ID: %w", err)
	}

	embedding, err := byteSliceToFloat32Slice(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert byte slice to float32 slice: %w", err)
	}
	return embedding, nil
}

// FindSimilar scores every stored embedding against the query with cosine
// similarity and returns the best limit ids, highest score first.
func (r *VectorRepository) FindSimilar(ctx context.Context, queryEmbedding []float32, limit int, excludeIDs []string) ([]ScoredID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT recipe_id, embedding FROM recipe_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all embeddings: %w", err)
	}
	defer rows.Close()

	excludeMap := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excludeMap[id] = struct{}{}
	}

	var scored []ScoredID
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if _, excluded := excludeMap[id]; excluded {
			continue
		}

		embed, err := byteSliceToFloat32Slice(raw)
		if err != nil {
			r.logger.Warn("skipping malformed embedding", zap.String("recipe_id", id), zap.Error(err))
			continue
		}
		scored = append(scored, ScoredID{RecipeID: id, Score: cosineSimilarity(queryEmbedding, embed)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embeddings: %w", err)
	}

	slices.SortStableFunc(scored, func(a, b ScoredID) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

// float32SliceToByteSlice converts a slice of float32 to a byte slice.
func float32SliceToByteSlice(floats []float32) []byte {
	buf := make([]byte, 4*len(floats))
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(f))
	}
	return buf
}

// byteSliceToFloat32Slice converts a byte slice to a slice of float32.
func byteSliceToFloat32Slice(bytes []byte) ([]float32, error) {
	if len(bytes)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(bytes))
	}
	floats := make([]float32, len(bytes)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(bytes[i*4 : (i+1)*4]))
	}
	return floats, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
