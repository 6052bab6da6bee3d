package explore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Column is one column of an inspected object.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Category string `json:"category"`
}

// CombinationRow is one distinct combination with its frequency.
type CombinationRow struct {
	Values  []string `json:"values"`
	Count   int64    `json:"count"`
	Percent float64  `json:"percent"`
}

// CombinationResult holds the counted combinations and the SQL that produced them.
type CombinationResult struct {
	SQL     string           `json:"sql"`
	Columns []string         `json:"columns"`
	Rows    []CombinationRow `json:"rows"`
	Total   int64            `json:"total"`
}

// Explorer runs discovery queries against one database.
type Explorer struct {
	db      *sql.DB
	dialect Dialect
}

// NewExplorer wraps an open database handle.
func NewExplorer(db *sql.DB, dialect Dialect) *Explorer {
	return &Explorer{db: db, dialect: dialect}
}

// Open connects to the database and verifies the connection. Postgres and
// Redshift go through the pgx driver, MySQL through go-sql-driver/mysql.
func Open(ctx context.Context, dsn string, dialect Dialect) (*Explorer, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewExplorer(db, dialect), nil
}

// Dialect returns the SQL dialect queries are built for.
func (e *Explorer) Dialect() Dialect {
	return e.dialect
}

// Close releases the underlying connection pool.
func (e *Explorer) Close() error {
	return e.db.Close()
}

// Columns lists the columns of schema.object in catalog order.
func (e *Explorer) Columns(ctx context.Context, schema, object string, objectType ObjectType) ([]Column, error) {
	if err := ValidateIdentifier("schema", schema); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier("object", object); err != nil {
		return nil, err
	}
	query, err := SchemaQuery(e.dialect, objectType)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, query, schema, object)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s.%s: %w", schema, object, err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Category = MapDataType(c.DataType)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return out, nil
}

// RowCount returns the number of rows in schema.object.
func (e *Explorer) RowCount(ctx context.Context, schema, object string) (int64, error) {
	query, err := CountQuery(e.dialect, schema, object)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := e.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows of %s.%s: %w", schema, object, err)
	}
	return total, nil
}

// CombinationCounts counts rows per distinct combination of columns and
// computes each combination's share of the total.
func (e *Explorer) CombinationCounts(ctx context.Context, schema, object string, columns []CombinationColumn) (*CombinationResult, error) {
	query, err := CombinationCountQuery(e.dialect, schema, object, columns)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count combinations: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("combination query returned %d columns", len(names))
	}

	result := &CombinationResult{SQL: query, Columns: names[:len(names)-1]}
	for rows.Next() {
		values := make([]sql.NullString, len(names)-1)
		dest := make([]any, 0, len(names))
		for i := range values {
			dest = append(dest, &values[i])
		}
		var count int64
		dest = append(dest, &count)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan combination: %w", err)
		}

		row := CombinationRow{Values: make([]string, len(values)), Count: count}
		for i, v := range values {
			if v.Valid {
				row.Values[i] = v.String
			} else {
				row.Values[i] = "NULL"
			}
		}
		result.Rows = append(result.Rows, row)
		result.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate combinations: %w", err)
	}

	if result.Total > 0 {
		for i := range result.Rows {
			result.Rows[i].Percent = round2(float64(result.Rows[i].Count) / float64(result.Total) * 100)
		}
	}
	return result, nil
}
