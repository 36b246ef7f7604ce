package pgvectore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/vectorstore"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const (
	storeName        = "pgvector"
	DefaultTableName = "document_chunks"
	DefaultDimension = 384
)

// Distance represents the distance calculation method
type Distance string

const (
	Cosine       Distance = "cosine"
	Euclidean    Distance = "euclidean"
	InnerProduct Distance = "inner_product"
)

// IsValid checks if the distance metric is valid
func (d Distance) IsValid() bool {
	switch d {
	case Cosine, Euclidean, InnerProduct:
		return true
	default:
		return false
	}
}

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Abraxas-365/docingest/chunk"))

// ChunkID derives a stable row id from a chunk's source, page and content so
// re-ingesting the same file overwrites rather than duplicates.
func ChunkID(doc vectorstore.Document) uuid.UUID {
	key := doc.Metadata.Source() + "\x00" +
		strconv.Itoa(doc.Metadata.Int(document.MetadataPage)) + "\x00" +
		doc.PageContent
	return uuid.NewSHA1(chunkNamespace, []byte(key))
}

type PGVectorStore struct {
	pool      Pool
	tableName string
	dimension int
	distance  Distance
}

var (
	_ vectorstore.Store    = (*PGVectorStore)(nil)
	_ vectorstore.Replacer = (*PGVectorStore)(nil)
)

type Options struct {
	TableName string
	Dimension int
	Distance  Distance
}

func (o *Options) setDefaults() error {
	if o.TableName == "" {
		o.TableName = DefaultTableName
	}
	if o.Dimension == 0 {
		o.Dimension = DefaultDimension
	}
	if o.Distance == "" {
		o.Distance = Cosine
	}
	if !o.Distance.IsValid() {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("invalid distance metric: %s", o.Distance))
	}
	if o.Dimension < 0 {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("invalid dimension: %d", o.Dimension))
	}
	return nil
}

// getOperatorAndFunction returns the appropriate operator and index operator class based on distance metric
func (p *PGVectorStore) getOperatorAndFunction() (string, string) {
	switch p.distance {
	case Euclidean:
		return "<->", "vector_l2_ops"
	case InnerProduct:
		return "<#>", "vector_ip_ops"
	default: // Cosine
		return "<=>", "vector_cosine_ops"
	}
}

// NewPGVectorStore connects a pgx pool to connString.
func NewPGVectorStore(ctx context.Context, connString string, opts Options) (*PGVectorStore, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, vectorstore.NewInitFailedError(storeName, fmt.Errorf("error parsing connection string: %w", err))
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating connection pool: %w", err))
	}

	return NewWithPool(pool, opts)
}

// NewWithPool builds a store over an existing pool.
func NewWithPool(pool Pool, opts Options) (*PGVectorStore, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	return &PGVectorStore{
		pool:      pool,
		tableName: opts.TableName,
		dimension: opts.Dimension,
		distance:  opts.Distance,
	}, nil
}

func (p *PGVectorStore) table() string {
	return pq.QuoteIdentifier(p.tableName)
}

// InitDB initializes the database schema
func (p *PGVectorStore) InitDB(ctx context.Context, forceRecreate bool) error {
	// Enable pgvector extension
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating vector extension: %w", err))
	}

	if forceRecreate {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", p.table())); err != nil {
			return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error dropping table: %w", err))
		}
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`, p.table(), p.dimension)
	if _, err := p.pool.Exec(ctx, createTableSQL); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating table: %w", err))
	}

	_, opClass := p.getOperatorAndFunction()
	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s
		ON %s
		USING ivfflat (embedding %s)
		WITH (lists = 100)
	`, pq.QuoteIdentifier(p.tableName+"_embedding_idx"), p.table(), opClass)
	if _, err := p.pool.Exec(ctx, indexSQL); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating index: %w", err))
	}

	sourceIndexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s
		ON %s ((metadata->>'source'))
	`, pq.QuoteIdentifier(p.tableName+"_source_idx"), p.table())
	if _, err := p.pool.Exec(ctx, sourceIndexSQL); err != nil {
		return vectorstore.NewInitFailedError(storeName, fmt.Errorf("error creating source index: %w", err))
	}

	return nil
}

// AddDocuments upserts all documents in one transaction.
func (p *PGVectorStore) AddDocuments(ctx context.Context, docs []vectorstore.Document, vectors [][]float32) error {
	metadata, err := p.prepare(docs, vectors)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return vectorstore.NewAddFailedError(storeName, err)
	}
	if err := p.upsert(ctx, tx, docs, metadata, vectors); err != nil {
		_ = tx.Rollback(ctx)
		return vectorstore.NewAddFailedError(storeName, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return vectorstore.NewAddFailedError(storeName, err)
	}
	return nil
}

// ReplaceDocuments deletes the rows matching filter and upserts docs in one
// transaction.
func (p *PGVectorStore) ReplaceDocuments(ctx context.Context, filter vectorstore.Filter, docs []vectorstore.Document, vectors [][]float32) error {
	where, args, err := whereClause(filter, nil)
	if err != nil {
		return err
	}
	metadata, err := p.prepare(docs, vectors)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return vectorstore.NewReplaceFailedError(storeName, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s %s", p.table(), where), args...); err != nil {
		_ = tx.Rollback(ctx)
		return vectorstore.NewReplaceFailedError(storeName, fmt.Errorf("error deleting documents: %w", err))
	}
	if err := p.upsert(ctx, tx, docs, metadata, vectors); err != nil {
		_ = tx.Rollback(ctx)
		return vectorstore.NewReplaceFailedError(storeName, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return vectorstore.NewReplaceFailedError(storeName, err)
	}
	return nil
}

// prepare validates vectors and encodes metadata before any statement runs.
func (p *PGVectorStore) prepare(docs []vectorstore.Document, vectors [][]float32) ([][]byte, error) {
	if len(docs) != len(vectors) {
		return nil, vectorstore.NewVectorCountMismatchError(storeName, len(docs), len(vectors))
	}

	metadata := make([][]byte, len(docs))
	for i, doc := range docs {
		if p.dimension > 0 && len(vectors[i]) != p.dimension {
			return nil, vectorstore.NewInvalidDimensionsError(storeName, p.dimension, len(vectors[i]))
		}
		meta := doc.Metadata
		if meta == nil {
			meta = document.Metadata{}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, vectorstore.NewAddFailedError(storeName, fmt.Errorf("error encoding metadata of document %d: %w", i, err))
		}
		metadata[i] = raw
	}
	return metadata, nil
}

func (p *PGVectorStore) upsert(ctx context.Context, tx pgx.Tx, docs []vectorstore.Document, metadata [][]byte, vectors [][]float32) error {
	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1::uuid, $2, $3::jsonb, $4::vector)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding
	`, p.table())

	for i, doc := range docs {
		if _, err := tx.Exec(ctx, upsertSQL, ChunkID(doc).String(), doc.PageContent, metadata[i], formatVectorForPG(vectors[i])); err != nil {
			return fmt.Errorf("error inserting document %d: %w", i, err)
		}
	}
	return nil
}

// whereClause renders filter as metadata equality conditions. Parameters
// are numbered from len(args)+1.
func whereClause(filter vectorstore.Filter, args []any) (string, []any, error) {
	if err := filter.Validate(storeName); err != nil {
		return "", nil, err
	}
	if len(filter) == 0 {
		return "", args, nil
	}
	conditions := make([]string, 0, len(filter))
	for _, key := range filter.Keys() {
		args = append(args, key, fmt.Sprint(filter[key]))
		conditions = append(conditions, fmt.Sprintf("metadata->>$%d::text = $%d", len(args)-1, len(args)))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

func (p *PGVectorStore) SimilaritySearch(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	if p.dimension > 0 && len(vector) != p.dimension {
		return nil, vectorstore.NewInvalidDimensionsError(storeName, p.dimension, len(vector))
	}
	operator, _ := p.getOperatorAndFunction()

	where, args, err := whereClause(filter, []any{formatVectorForPG(vector), limit})
	if err != nil {
		return nil, err
	}

	// Adjust score calculation based on distance metric
	var scoreExpr string
	switch p.distance {
	case InnerProduct:
		scoreExpr = fmt.Sprintf("(embedding %s $1::vector) * -1", operator)
	case Euclidean:
		scoreExpr = fmt.Sprintf("1 / (1 + (embedding %s $1::vector))", operator)
	default:
		scoreExpr = fmt.Sprintf("1 - (embedding %s $1::vector)", operator)
	}

	query := fmt.Sprintf(`
		SELECT
			content,
			metadata,
			(%s)::real AS similarity
		FROM %s
		%s
		ORDER BY embedding %s $1::vector
		LIMIT $2
	`, scoreExpr, p.table(), where, operator)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, vectorstore.NewSearchFailedError(storeName, err)
	}
	defer rows.Close()

	docs := []vectorstore.Document{}
	for rows.Next() {
		var (
			doc  vectorstore.Document
			meta []byte
		)
		if err := rows.Scan(&doc.PageContent, &meta, &doc.Score); err != nil {
			return nil, vectorstore.NewSearchFailedError(storeName, fmt.Errorf("error scanning row: %w", err))
		}
		doc.Metadata = document.Metadata{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
				return nil, vectorstore.NewSearchFailedError(storeName, fmt.Errorf("error decoding metadata: %w", err))
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, vectorstore.NewSearchFailedError(storeName, fmt.Errorf("error iterating rows: %w", err))
	}

	return docs, nil
}

// formatVectorForPG converts a float32 slice to a PostgreSQL vector format
func formatVectorForPG(vector []float32) string {
	var b strings.Builder
	b.WriteString("[")
	for i, v := range vector {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteString("]")
	return b.String()
}

// Delete removes every row matching filter. An empty filter empties the table.
func (p *PGVectorStore) Delete(ctx context.Context, filter vectorstore.Filter) error {
	where, args, err := whereClause(filter, nil)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s %s", p.table(), where)

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return vectorstore.NewDeleteFailedError(storeName, err)
	}
	return nil
}

// Close closes the database connection pool
func (p *PGVectorStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
