package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/modelgraph/internal/schema"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db, path: path}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// Source returns the label recorded as provenance for imported entities
func (c *SQLiteClient) Source() string {
	return "sqlite://" + c.path
}

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the given tables, or every table in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted := make([]table, 0, len(tableNames))
	for _, tableName := range tableNames {
		t, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extracted = append(extracted, *t)
	}

	return buildSchema(e.client.Source(), "main", extracted), nil
}

func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	return queryStrings(ctx, e.client.db, query)
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*table, error) {
	t := &table{name: tableName}

	if err := e.extractColumns(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(t.columns) == 0 {
		return nil, fmt.Errorf("no such table")
	}

	unique, err := e.extractUniqueColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract unique columns: %w", err)
	}
	t.unique = unique

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	t.foreignKeys = fks

	return t, nil
}

// extractColumns fills in column names and the primary key from table_info
func (e *SQLiteExtractor) extractColumns(ctx context.Context, t *table) error {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(t.name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	type pkColumn struct {
		name  string
		order int
	}
	var pk []pkColumn

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pkOrder int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder); err != nil {
			return err
		}

		t.columns = append(t.columns, name)
		if pkOrder > 0 {
			pk = append(pk, pkColumn{name: name, order: pkOrder})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	t.primaryKey = make([]string, len(pk))
	for _, c := range pk {
		t.primaryKey[c.order-1] = c.name
	}
	return nil
}

// extractUniqueColumns returns columns covered by a single-column unique index
func (e *SQLiteExtractor) extractUniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var uniqueIndexes []string
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		// partial indexes do not constrain every row
		if unique == 1 && partial == 0 && origin != "pk" {
			uniqueIndexes = append(uniqueIndexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	result := make(map[string]bool)
	for _, name := range uniqueIndexes {
		columns, err := e.indexColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 1 {
			result[columns[0]] = true
		}
	}

	return result, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKey
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		fks = append(fks, foreignKey{column: fromCol, targetTable: targetTable})
	}

	return fks, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
