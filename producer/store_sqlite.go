/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package producer

import (
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS content (
	title      TEXT    NOT NULL,
	resolution TEXT    NOT NULL,
	chunk      INTEGER NOT NULL,
	data       BLOB    NOT NULL,
	PRIMARY KEY (title, resolution, chunk)
)`

// SqliteStore keeps content in a sqlite table.
type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Get(key Key) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM content WHERE title=? AND resolution=? AND chunk=?",
		key.Title, key.Resolution, int64(key.Chunk)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return data, err
}

func (s *SqliteStore) Put(key Key, content []byte) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO content (title, resolution, chunk, data) VALUES (?, ?, ?, ?)",
		key.Title, key.Resolution, int64(key.Chunk), content)
	return err
}

func (s *SqliteStore) Remove(key Key) error {
	_, err := s.db.Exec("DELETE FROM content WHERE title=? AND resolution=? AND chunk=?",
		key.Title, key.Resolution, int64(key.Chunk))
	return err
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
