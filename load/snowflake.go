package load

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/jorundl/costofliving-etl/config"
	"github.com/jorundl/costofliving-etl/transform"
)

var (
	// ErrAuthentication means Snowflake rejected the credentials.
	ErrAuthentication = errors.New("warehouse authentication failed")
	// ErrConnection covers failures to reach or open a warehouse session.
	ErrConnection = errors.New("warehouse connection failed")
	// ErrInsert covers create-table, truncate and insert failures.
	ErrInsert = errors.New("warehouse insert failed")
)

// Snowflake auth failures surface as SnowflakeError numbers in the 390xxx
// range (390100 is incorrect username or password).
const (
	authErrNumberMin = 390100
	authErrNumberMax = 390200
)

type Snowflake struct {
	Logger        *slog.Logger
	DB            *sql.DB
	TruncateFirst bool
}

// NewSnowflake opens a session against the warehouse account and verifies it
// with a ping, so credential problems surface before any insert is attempted.
func NewSnowflake(ctx context.Context, cfg *config.Config, secrets config.Secrets, logger *slog.Logger) (*Snowflake, error) {
	dsn, err := buildDSN(cfg, secrets)
	if err != nil {
		return nil, fmt.Errorf("%w: building DSN: %v", ErrConnection, err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classifySessionError(err)
	}

	logger.Info("Connected to Snowflake", "account", secrets.SnowflakeAccount, "database", cfg.Snowflake.Database)

	return &Snowflake{
		Logger:        logger,
		DB:            db,
		TruncateFirst: cfg.Snowflake.TruncateFirst,
	}, nil
}

func buildDSN(cfg *config.Config, secrets config.Secrets) (string, error) {
	return sf.DSN(&sf.Config{
		Account:   secrets.SnowflakeAccount,
		User:      secrets.SnowflakeUser,
		Password:  secrets.SnowflakePassword,
		Warehouse: cfg.Snowflake.Warehouse,
		Database:  cfg.Snowflake.Database,
		Schema:    cfg.Snowflake.Schema,
	})
}

func (db *Snowflake) Close() error {
	return db.DB.Close()
}

// Load ensures the target table exists, optionally truncates it, and inserts
// the whole dataset in a single multi-row statement. Rerunning without
// TruncateFirst appends: the load is not idempotent.
func (db *Snowflake) Load(ctx context.Context, table string, dataset *transform.Dataset) (int64, error) {
	if dataset == nil || dataset.Count() == 0 {
		return 0, fmt.Errorf("%w: refusing to load an empty dataset", ErrInsert)
	}

	createStmt, err := createTableSQL(table, dataset.Columns)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInsert, err)
	}
	db.Logger.Debug("Ensuring target table", "query", createStmt)
	if _, err := db.DB.ExecContext(ctx, createStmt); err != nil {
		return 0, fmt.Errorf("%w: ensuring table %s: %v", ErrInsert, table, err)
	}

	if db.TruncateFirst {
		truncStmt, err := truncateSQL(table)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInsert, err)
		}
		db.Logger.Info("Truncating target table before load", "table", table)
		if _, err := db.DB.ExecContext(ctx, truncStmt); err != nil {
			return 0, fmt.Errorf("%w: truncating table %s: %v", ErrInsert, table, err)
		}
	}

	insertStmt, args, err := insertSQL(table, dataset)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInsert, err)
	}

	res, err := db.DB.ExecContext(ctx, insertStmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting %d rows into %s: %v", ErrInsert, dataset.Count(), table, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		// The insert succeeded; fall back to the dataset size.
		return int64(dataset.Count()), nil
	}

	return rows, nil
}

func classifySessionError(err error) error {
	var snowErr *sf.SnowflakeError
	if errors.As(err, &snowErr) && snowErr.Number >= authErrNumberMin && snowErr.Number < authErrNumberMax {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
