// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package storage owns the local sqlite database regctl keeps next to its
// configuration file.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// migrations are applied in order. The schema version is kept in the
// user_version pragma, so entries must never be edited or reordered.
var migrations = []string{
	`CREATE TABLE view_state (
		key        VARCHAR(256) NOT NULL PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INT DEFAULT 0
	) WITHOUT ROWID;`,
	`CREATE INDEX view_state_updated_at ON view_state (updated_at);`,
}

type DbHandle struct {
	db *sql.DB
}

// NewDb opens dbfile, creating it when missing, and brings its schema up to
// date.
func NewDb(dbfile string) (*DbHandle, error) {
	db, err := sql.Open("sqlite3", "file:"+dbfile+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &DbHandle{db: db}, nil
}

func (d DbHandle) Close() error {
	return d.db.Close()
}

// SchemaVersion returns the number of applied migrations.
func (d DbHandle) SchemaVersion() (version int, err error) {
	err = d.db.QueryRow("PRAGMA user_version").Scan(&version)
	return
}

func (d DbHandle) Prepare(name, query string) (stmt *sql.Stmt, err error) {
	if stmt, err = d.db.Prepare(query); err != nil {
		err = fmt.Errorf("unable to prepare '%s' statement: %w", name, err)
	}
	return
}

func (d DbHandle) InitStmt(stmt ...DbStmtInit) (err error) {
	for _, s := range stmt {
		if err = s.Init(d); err != nil {
			break
		}
	}
	return
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("unable to read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this regctl supports (%d)", version, len(migrations))
	}
	for i := version; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			return errors.Join(fmt.Errorf("unable to apply schema migration %d: %w", i+1, err), tx.Rollback())
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return errors.Join(err, tx.Rollback())
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

type DbStmt struct {
	Stmt *sql.Stmt
}

type DbStmtInit interface {
	Init(db DbHandle) error
}
