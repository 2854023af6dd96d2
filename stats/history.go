/*
NaiveSystems Suppress - A suppression list manager for C static analysis
Copyright (C) 2024  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// HistoryStore records one row per analysis run in PostgreSQL so that
// violation and suppression counts can be charted over time. It is
// optional; runs without a DSN never touch it.
type HistoryStore struct {
	db *sql.DB
}

func OpenHistory(dsn string) (*HistoryStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed: %v", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("cannot reach the history database: %v", err)
	}
	return &HistoryStore{db: db}, nil
}

// NewHistoryStore wraps an existing connection. Used in tests.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id SERIAL PRIMARY KEY,
		commit_hash TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		suppressed_count INTEGER NOT NULL,
		stale_count INTEGER NOT NULL,
		lines_of_code INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("cannot create the runs table: %v", err)
	}
	return nil
}

func (s *HistoryStore) Record(summary Summary, when time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (commit_hash, result_count, suppressed_count, stale_count, lines_of_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		summary.CommitHash,
		summary.ResultCount,
		summary.SuppressedCount,
		len(summary.StaleEntries),
		summary.LinesOfCode,
		when,
	)
	if err != nil {
		return fmt.Errorf("cannot record the run: %v", err)
	}
	return nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}
