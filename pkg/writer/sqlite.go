package writer

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/dataset"
)

// SQLiteFileName is the SQLite dataset artifact.
const SQLiteFileName = "music_info_df.sqlite"

// SQLiteTable holds the dataset rows.
const SQLiteTable = "music_info"

// SQLiteWriter recreates the music_info table and fills it in one transaction.
type SQLiteWriter struct {
	log zerolog.Logger
}

// NewSQLiteWriter creates a SQLiteWriter.
func NewSQLiteWriter(log zerolog.Logger) *SQLiteWriter {
	return &SQLiteWriter{log: log.With().Str("writer", FormatSQLite).Logger()}
}

func (w *SQLiteWriter) Format() string   { return FormatSQLite }
func (w *SQLiteWriter) FileName() string { return SQLiteFileName }

// Metadata columns carry no declared type so values keep their storage class.
func createTableSQL() string {
	cols := make([]string, len(dataset.Columns))
	for i, c := range dataset.Columns {
		switch c {
		case dataset.ColRelativePath, dataset.ColInstrumentName:
			cols[i] = c + " TEXT NOT NULL"
		default:
			cols[i] = c
		}
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", SQLiteTable, strings.Join(cols, ", "))
}

func insertSQL() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(dataset.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", SQLiteTable, strings.Join(dataset.Columns, ", "), marks)
}

// Write stores ds in the database at path.
func (w *SQLiteWriter) Write(ds *dataset.Dataset, path string) error {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + SQLiteTable); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.Exec(createTableSQL()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := tx.Prepare(insertSQL())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range ds.Rows() {
		if _, err := stmt.Exec(r.Values()...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert row %s: %w", r.RelativePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	w.log.Debug().Str("path", path).Int("rows", ds.Len()).Msg("SQLite table written")
	return nil
}
