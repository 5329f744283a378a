// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package viewstate

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eclipse-hono/regctl/storage"
)

// SqliteStore persists view state across regctl invocations.
type SqliteStore struct {
	db *storage.DbHandle

	stmtGet    stmtStateGet
	stmtSet    stmtStateSet
	stmtRemove stmtStateRemove
	stmtPrune  stmtStatePrune
}

// MaxAge is how long a key lives without being written. Keys are normally
// removed when a view closes; this drops what an aborted command left.
const MaxAge = 30 * 24 * time.Hour

func NewSqliteStore(db *storage.DbHandle) (*SqliteStore, error) {
	s := SqliteStore{db: db}
	if err := db.InitStmt(&s.stmtGet, &s.stmtSet, &s.stmtRemove, &s.stmtPrune); err != nil {
		return nil, err
	}
	return &s, nil
}

// OpenSqliteStore opens or creates the database file and its store, and
// prunes keys older than MaxAge.
func OpenSqliteStore(dbfile string) (*SqliteStore, error) {
	db, err := storage.NewDb(dbfile)
	if err != nil {
		return nil, fmt.Errorf("unable to open view state db %s: %w", dbfile, err)
	}
	s, err := NewSqliteStore(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if err := s.Prune(time.Now().Add(-MaxAge)); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	return s, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) Get(key string) (string, error) {
	return s.stmtGet.run(key)
}

func (s *SqliteStore) Set(key, value string) error {
	return s.stmtSet.run(key, value, time.Now().Unix())
}

func (s *SqliteStore) Remove(key string) error {
	return s.stmtRemove.run(key)
}

// Prune removes the keys last written before t.
func (s *SqliteStore) Prune(t time.Time) error {
	return s.stmtPrune.run(t.Unix())
}

type stmtStateGet storage.DbStmt

func (s *stmtStateGet) Init(db storage.DbHandle) (err error) {
	s.Stmt, err = db.Prepare("stateGet", `
		SELECT value FROM view_state
		WHERE key = ?`,
	)
	return
}

func (s *stmtStateGet) run(key string) (value string, err error) {
	err = s.Stmt.QueryRow(key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	} else if err != nil {
		err = fmt.Errorf("unable to read view state %s: %w", key, err)
	}
	return
}

type stmtStateSet storage.DbStmt

func (s *stmtStateSet) Init(db storage.DbHandle) (err error) {
	s.Stmt, err = db.Prepare("stateSet", `
		INSERT INTO view_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	)
	return
}

func (s *stmtStateSet) run(key, value string, now int64) error {
	if _, err := s.Stmt.Exec(key, value, now); err != nil {
		return fmt.Errorf("unable to write view state %s: %w", key, err)
	}
	return nil
}

type stmtStateRemove storage.DbStmt

func (s *stmtStateRemove) Init(db storage.DbHandle) (err error) {
	s.Stmt, err = db.Prepare("stateRemove", `
		DELETE FROM view_state
		WHERE key = ?`,
	)
	return
}

func (s *stmtStateRemove) run(key string) error {
	if _, err := s.Stmt.Exec(key); err != nil {
		return fmt.Errorf("unable to remove view state %s: %w", key, err)
	}
	return nil
}

type stmtStatePrune storage.DbStmt

func (s *stmtStatePrune) Init(db storage.DbHandle) (err error) {
	s.Stmt, err = db.Prepare("statePrune", `
		DELETE FROM view_state
		WHERE updated_at < ?`,
	)
	return
}

func (s *stmtStatePrune) run(before int64) error {
	if _, err := s.Stmt.Exec(before); err != nil {
		return fmt.Errorf("unable to prune view state: %w", err)
	}
	return nil
}
