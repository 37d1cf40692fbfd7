package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Engine runs a single-value query against a database file.
type Engine interface {
	Scalar(ctx context.Context, dbPath, query string) (string, error)
}

// SQLite opens database files read-only, so a missing file is an error rather
// than a freshly created empty database.
type SQLite struct{}

func NewSQLite() *SQLite {
	return &SQLite{}
}

// Scalar returns the first column of the first row formatted as text. NULL
// (for example SUM over no rows) is reported as "0" rather than "None", so
// the output file always holds a number.
func (s *SQLite) Scalar(ctx context.Context, dbPath, query string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var value any
	if err := db.QueryRowContext(ctx, query).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "0", nil
		}
		return "", fmt.Errorf("run query: %w", err)
	}
	return format(value), nil
}

func dsn(path string) string {
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	return u.String()
}

func format(v any) string {
	switch val := v.(type) {
	case nil:
		return "0"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []byte:
		return string(val)
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
