package load

import (
	"fmt"
	"strings"

	"github.com/jorundl/costofliving-etl/transform"
)

// sanitizeIdentifier turns a CSV header field or table name into an unquoted
// Snowflake identifier: uppercased, non-alphanumerics folded to underscores.
func sanitizeIdentifier(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("empty identifier")
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(trimmed) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	ident := b.String()
	if ident[0] >= '0' && ident[0] <= '9' {
		ident = "_" + ident
	}

	return ident, nil
}

// createTableSQL builds a CREATE TABLE IF NOT EXISTS statement with one
// VARCHAR column per CSV header field. The source performs no typing of its
// own; anything stricter belongs to downstream models in the warehouse.
func createTableSQL(table string, columns []string) (string, error) {
	tableIdent, err := sanitizeIdentifier(table)
	if err != nil {
		return "", fmt.Errorf("invalid table name %q: %w", table, err)
	}

	defs := make([]string, 0, len(columns))
	seen := make(map[string]bool)
	for _, col := range columns {
		ident, err := sanitizeIdentifier(col)
		if err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", col, err)
		}
		if seen[ident] {
			return "", fmt.Errorf("duplicate column name %q after sanitizing", ident)
		}
		seen[ident] = true
		defs = append(defs, fmt.Sprintf("%s VARCHAR", ident))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableIdent, strings.Join(defs, ", ")), nil
}

func truncateSQL(table string) (string, error) {
	tableIdent, err := sanitizeIdentifier(table)
	if err != nil {
		return "", fmt.Errorf("invalid table name %q: %w", table, err)
	}
	return fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", tableIdent), nil
}

// insertSQL builds one multi-row INSERT covering the whole dataset, with a
// bound argument per cell. There is no ON CONFLICT or MERGE clause: loading
// the same dataset twice stores every row twice.
func insertSQL(table string, dataset *transform.Dataset) (string, []any, error) {
	tableIdent, err := sanitizeIdentifier(table)
	if err != nil {
		return "", nil, fmt.Errorf("invalid table name %q: %w", table, err)
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(dataset.Columns)), ", ") + ")"

	tuples := make([]string, len(dataset.Rows))
	args := make([]any, 0, len(dataset.Rows)*len(dataset.Columns))
	for i, row := range dataset.Rows {
		if len(row) != len(dataset.Columns) {
			return "", nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(dataset.Columns))
		}
		tuples[i] = placeholders
		for _, cell := range row {
			args = append(args, cell)
		}
	}

	stmt := fmt.Sprintf("INSERT INTO %s VALUES %s", tableIdent, strings.Join(tuples, ", "))

	return stmt, args, nil
}
