// Package store persists persons, conversations and memories in SQLite.
//
// Every operation runs behind one mutex on a single connection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// Store is the SQLite implementation of coretypes.Store.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

var _ coretypes.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies
// migrations. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("Store opened", "path", path)
	return &Store{db: db}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func storeErr(op string, err error) error {
	return &coretypes.StoreError{Op: op, Err: err}
}

// ListActivePersons returns every person with is_active set, oldest first.
func (s *Store) ListActivePersons(ctx context.Context) ([]coretypes.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, notes, is_active, created_at FROM persons WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, storeErr("list persons", err)
	}
	defer rows.Close()

	persons := []coretypes.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, storeErr("list persons", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list persons", err)
	}
	return persons, nil
}

// GetPerson returns one person, active or not.
func (s *Store) GetPerson(ctx context.Context, id int64) (coretypes.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, notes, is_active, created_at FROM persons WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return coretypes.Person{}, storeErr("get person", fmt.Errorf("person %d: %w", id, coretypes.ErrNotFound))
	}
	if err != nil {
		return coretypes.Person{}, storeErr("get person", err)
	}
	return p, nil
}

// CreatePerson inserts an active person and returns its id.
func (s *Store) CreatePerson(ctx context.Context, name string, notes *string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `INSERT INTO persons (name, notes) VALUES (?, ?)`, name, nullString(notes))
	if err != nil {
		return 0, storeErr("create person", err)
	}
	return lastInsertID("create person", res)
}

// UpdatePerson overwrites name, notes and is_active.
func (s *Store) UpdatePerson(ctx context.Context, id int64, name string, notes *string, isActive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET name = ?, notes = ?, is_active = ? WHERE id = ?`,
		name, nullString(notes), isActive, id)
	if err != nil {
		return storeErr("update person", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update person", err)
	}
	if n == 0 {
		return storeErr("update person", fmt.Errorf("person %d: %w", id, coretypes.ErrNotFound))
	}
	return nil
}

// ListConversations returns a person's conversations, newest first.
func (s *Store) ListConversations(ctx context.Context, personID int64) ([]coretypes.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_id, content, context, created_at FROM conversations
		 WHERE person_id = ? ORDER BY created_at DESC, id DESC`, personID)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}
	defer rows.Close()

	convs := []coretypes.Conversation{}
	for rows.Next() {
		var (
			c        coretypes.Conversation
			convText sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.PersonID, &c.Content, &convText, &c.CreatedAt); err != nil {
			return nil, storeErr("list conversations", err)
		}
		c.Context = stringPtr(convText)
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list conversations", err)
	}
	return convs, nil
}

// CreateConversation inserts a conversation for an existing person.
func (s *Store) CreateConversation(ctx context.Context, personID int64, content string, convContext *string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requirePerson(ctx, "create conversation", personID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (person_id, content, context) VALUES (?, ?, ?)`,
		personID, content, nullString(convContext))
	if err != nil {
		return 0, storeErr("create conversation", err)
	}
	return lastInsertID("create conversation", res)
}

// ListMemories returns a person's memories, most important first.
func (s *Store) ListMemories(ctx context.Context, personID int64) ([]coretypes.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_id, key, value, importance, created_at FROM memories
		 WHERE person_id = ? ORDER BY importance DESC, id ASC`, personID)
	if err != nil {
		return nil, storeErr("list memories", err)
	}
	defer rows.Close()

	memories := []coretypes.Memory{}
	for rows.Next() {
		var m coretypes.Memory
		if err := rows.Scan(&m.ID, &m.PersonID, &m.Key, &m.Value, &m.Importance, &m.CreatedAt); err != nil {
			return nil, storeErr("list memories", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list memories", err)
	}
	return memories, nil
}

// CreateMemory inserts a memory for an existing person.
func (s *Store) CreateMemory(ctx context.Context, personID int64, key, value string, importance int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requirePerson(ctx, "create memory", personID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (person_id, key, value, importance) VALUES (?, ?, ?, ?)`,
		personID, key, value, importance)
	if err != nil {
		return 0, storeErr("create memory", err)
	}
	return lastInsertID("create memory", res)
}

// requirePerson must be called with s.mu held.
func (s *Store) requirePerson(ctx context.Context, op string, id int64) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM persons WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return storeErr(op, fmt.Errorf("person %d: %w", id, coretypes.ErrNotFound))
	}
	if err != nil {
		return storeErr(op, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (coretypes.Person, error) {
	var (
		p     coretypes.Person
		notes sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &notes, &p.IsActive, &p.CreatedAt); err != nil {
		return coretypes.Person{}, err
	}
	p.Notes = stringPtr(notes)
	return p, nil
}

func lastInsertID(op string, res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr(op, err)
	}
	return id, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
