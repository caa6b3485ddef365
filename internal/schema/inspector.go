package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/schemakit/schemakit/internal/logger"
)

// Inspector reads the physical catalog. Snapshots are recomputed on
// every call; nothing is cached between calls.
type Inspector struct {
	db         *sql.DB
	schemaName string
	cfg        Config
	log        *slog.Logger
}

// NewInspector creates an inspector bound to one database schema.
func NewInspector(db *sql.DB, schemaName string, cfg Config) *Inspector {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Inspector{
		db:         db,
		schemaName: schemaName,
		cfg:        cfg.normalized(),
		log:        logger.Get(),
	}
}

// SchemaName returns the database schema the inspector reads.
func (i *Inspector) SchemaName() string { return i.schemaName }

const columnsQuery = `
SELECT
    c.table_name,
    c.column_name,
    c.ordinal_position,
    c.data_type,
    c.is_nullable,
    c.column_default
FROM information_schema.columns c
WHERE c.table_schema = $1
  AND c.table_name = ANY($2)
ORDER BY c.table_name, c.ordinal_position`

const indexedColumnsQuery = `
SELECT DISTINCT t.relname, a.attname
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname = $1
  AND t.relname = ANY($2)`

// Introspect reads the column shape of a single table. A table that
// does not exist yields a snapshot with Exists=false, not an error.
func (i *Inspector) Introspect(ctx context.Context, table string) (*Snapshot, error) {
	snapshots, err := i.IntrospectAll(ctx, []string{table})
	if err != nil {
		return nil, err
	}
	return snapshots[table], nil
}

// IntrospectAll reads the column shapes of many tables in as few
// catalog round trips as possible: tables are chunked into batches of
// IntrospectBatchSize, each batch costs two queries (columns and index
// membership), and batches run concurrently under the configured cap.
func (i *Inspector) IntrospectAll(ctx context.Context, tables []string) (map[string]*Snapshot, error) {
	snapshots := make(map[string]*Snapshot, len(tables))
	for _, table := range tables {
		snapshots[table] = &Snapshot{Table: table}
	}
	if len(tables) == 0 {
		return snapshots, nil
	}

	sem := semaphore.NewWeighted(int64(i.cfg.MaxConcurrentIntrospections))
	g, ctx := errgroup.WithContext(ctx)

	for start := 0; start < len(tables); start += i.cfg.IntrospectBatchSize {
		end := start + i.cfg.IntrospectBatchSize
		if end > len(tables) {
			end = len(tables)
		}
		batch := tables[start:end]

		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return i.introspectBatch(ctx, batch, snapshots)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// introspectBatch fills the snapshots for one batch of tables. Each
// snapshot in the batch is written by exactly one goroutine, so no
// locking is needed on the shared map's values.
func (i *Inspector) introspectBatch(ctx context.Context, tables []string, snapshots map[string]*Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.IntrospectTimeout)
	defer cancel()

	i.log.Debug("introspecting tables", "schema", i.schemaName, "count", len(tables))

	rows, err := i.db.QueryContext(ctx, columnsQuery, i.schemaName, tables)
	if err != nil {
		return fmt.Errorf("failed to read columns for schema %q: %w", i.schemaName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tableName  string
			col        Column
			isNullable string
			colDefault sql.NullString
		)
		if err := rows.Scan(&tableName, &col.Name, &col.Position, &col.DataType, &isNullable, &colDefault); err != nil {
			return fmt.Errorf("failed to scan column row: %w", err)
		}
		col.IsNullable = isNullable == "YES"
		if colDefault.Valid {
			col.Default = &colDefault.String
		}

		snap := snapshots[tableName]
		if snap == nil {
			continue
		}
		if snap.Columns == nil {
			snap.Exists = true
			snap.Columns = make(map[string]*Column)
		}
		c := col
		snap.Columns[c.Name] = &c
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read columns for schema %q: %w", i.schemaName, err)
	}

	return i.markIndexedColumns(ctx, tables, snapshots)
}

func (i *Inspector) markIndexedColumns(ctx context.Context, tables []string, snapshots map[string]*Snapshot) error {
	rows, err := i.db.QueryContext(ctx, indexedColumnsQuery, i.schemaName, tables)
	if err != nil {
		return fmt.Errorf("failed to read index membership for schema %q: %w", i.schemaName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return fmt.Errorf("failed to scan index row: %w", err)
		}
		if snap := snapshots[tableName]; snap != nil {
			if col, ok := snap.Columns[columnName]; ok {
				col.Indexed = true
			}
		}
	}
	return rows.Err()
}
