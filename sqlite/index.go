package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ manx.IndexStore = (*IndexStore)(nil)

// IndexStore implements manx.IndexStore using SQLite. Similarity is computed
// in Go over every stored embedding.
type IndexStore struct {
	db *DB
}

// NewIndexStore creates a new IndexStore.
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// ReplaceSource stores source and its chunks in one transaction. Chunks
// previously stored for the same path are removed.
func (s *IndexStore) ReplaceSource(ctx context.Context, source *manx.Source, chunks []*manx.Chunk) error {
	if err := source.Validate(); err != nil {
		return err
	}
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sources WHERE path = ?", source.Path); err != nil {
		return err
	}

	source.ID = uuid.New().String()
	source.ChunkCount = len(chunks)
	source.IndexedAt = time.Now().UTC().Truncate(time.Second)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sources (id, path, source_type, title, content_hash, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, source.ID, source.Path, string(source.SourceType), source.Title, source.ContentHash,
		source.ChunkCount, source.IndexedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	for _, c := range chunks {
		if c.ID == "" {
			c.ID = fmt.Sprintf("%s_%d", c.SourcePath, c.ChunkIndex)
		}
		tags, err := sonic.MarshalString(c.Metadata.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		var modified string
		if !c.Metadata.Modified.IsZero() {
			modified = c.Metadata.Modified.UTC().Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, source_id, chunk_index, content, title, section, file_type, size, modified, tags, language, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, source.ID, c.ChunkIndex, c.Content, c.Title, c.Section, c.Metadata.FileType,
			c.Metadata.Size, modified, tags, c.Metadata.Language, encodeEmbedding(c.Embedding)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindSourceByPath retrieves a source by path.
func (s *IndexStore) FindSourceByPath(ctx context.Context, path string) (*manx.Source, error) {
	sources, err := s.FindSources(ctx, manx.SourceFilter{Path: &path, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, manx.Errorf(manx.ENOTFOUND, "source not found: %s", path)
	}
	return sources[0], nil
}

// FindSources retrieves sources matching the filter, ordered by path.
func (s *IndexStore) FindSources(ctx context.Context, filter manx.SourceFilter) ([]*manx.Source, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, path, source_type, title, content_hash, chunk_count, indexed_at FROM sources WHERE 1=1")

	if filter.Path != nil {
		query.WriteString(" AND path = ?")
		args = append(args, *filter.Path)
	}
	if filter.SourceType != nil {
		query.WriteString(" AND source_type = ?")
		args = append(args, string(*filter.SourceType))
	}
	query.WriteString(" ORDER BY path ASC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*manx.Source
	for rows.Next() {
		var src manx.Source
		var sourceType, indexedAt string
		if err := rows.Scan(&src.ID, &src.Path, &sourceType, &src.Title, &src.ContentHash,
			&src.ChunkCount, &indexedAt); err != nil {
			return nil, err
		}
		src.SourceType = manx.SourceType(sourceType)
		if src.IndexedAt, err = parseTime(indexedAt, "indexed_at"); err != nil {
			return nil, err
		}
		sources = append(sources, &src)
	}

	return sources, rows.Err()
}

// DeleteSource removes a source and its chunks.
func (s *IndexStore) DeleteSource(ctx context.Context, path string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE path = ?", path)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return manx.Errorf(manx.ENOTFOUND, "source not found: %s", path)
	}
	return nil
}

const chunkColumns = `c.id, c.content, s.path, s.source_type, c.title, c.section,
	c.file_type, c.size, c.modified, c.tags, c.language, c.embedding`

// SearchChunks scores every embedded chunk against embedding and returns
// those at or above opts.MinScore, best first.
func (s *IndexStore) SearchChunks(ctx context.Context, embedding []float32, opts manx.SearchOptions) ([]manx.RAGResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks c JOIN sources s ON s.id = c.source_id
		WHERE c.embedding IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []manx.RAGResult
	for rows.Next() {
		r, stored, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		r.Score = manx.CosineSimilarity(embedding, stored)
		if r.Score >= opts.MinScore {
			results = append(results, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rank(results, opts.Limit), nil
}

// KeywordSearch scores chunks by the fraction of terms they contain,
// case-insensitively. Chunks matching no term are omitted.
func (s *IndexStore) KeywordSearch(ctx context.Context, terms []string, opts manx.SearchOptions) ([]manx.RAGResult, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var query strings.Builder
	args := make([]any, 0, len(terms))
	query.WriteString("SELECT " + chunkColumns + " FROM chunks c JOIN sources s ON s.id = c.source_id WHERE ")
	for i, term := range terms {
		if i > 0 {
			query.WriteString(" OR ")
		}
		query.WriteString("instr(lower(c.content), ?) > 0")
		args = append(args, strings.ToLower(term))
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []manx.RAGResult
	for rows.Next() {
		r, _, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		content := strings.ToLower(r.Content)
		var matched int
		for _, term := range terms {
			if strings.Contains(content, strings.ToLower(term)) {
				matched++
			}
		}
		r.Score = float32(matched) / float32(len(terms))
		if matched > 0 && r.Score >= opts.MinScore {
			results = append(results, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rank(results, opts.Limit), nil
}

// Stats summarizes the index.
func (s *IndexStore) Stats(ctx context.Context) (*manx.IndexStats, error) {
	var stats manx.IndexStats
	var lastUpdated sql.NullString

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(indexed_at) FROM sources",
	).Scan(&stats.Documents, &lastUpdated); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(content) + COALESCE(LENGTH(embedding), 0)), 0) FROM chunks",
	).Scan(&stats.Chunks, &stats.SizeBytes); err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		t, err := parseTime(lastUpdated.String, "indexed_at")
		if err != nil {
			return nil, err
		}
		stats.LastUpdated = t
	}

	sources, err := s.FindSources(ctx, manx.SourceFilter{})
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		stats.Sources = append(stats.Sources, src.Path)
	}

	return &stats, nil
}

// Clear removes all sources and chunks.
func (s *IndexStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sources")
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner) (manx.RAGResult, []float32, error) {
	var r manx.RAGResult
	var sourceType, modified, tags string
	var blob []byte

	if err := row.Scan(&r.ID, &r.Content, &r.SourcePath, &sourceType, &r.Title, &r.Section,
		&r.Metadata.FileType, &r.Metadata.Size, &modified, &tags, &r.Metadata.Language, &blob); err != nil {
		return r, nil, err
	}
	r.SourceType = manx.SourceType(sourceType)
	if modified != "" {
		t, err := parseTime(modified, "modified")
		if err != nil {
			return r, nil, err
		}
		r.Metadata.Modified = t
	}
	if tags != "" {
		if err := sonic.UnmarshalString(tags, &r.Metadata.Tags); err != nil {
			return r, nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	return r, decodeEmbedding(blob), nil
}

// rank sorts results by descending score and applies limit when positive.
func rank(results []manx.RAGResult, limit int) []manx.RAGResult {
	slices.SortStableFunc(results, func(a, b manx.RAGResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// encodeEmbedding stores vectors as little-endian float32 values.
func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func decodeEmbedding(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

func parseTime(value, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}
