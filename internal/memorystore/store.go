// Package memorystore implements the memory tool collaborator (A7): named,
// freeform project notes persisted two ways at once — a plain Markdown file
// per memory under .serena/memories/, so an agent or a human can read one
// directly, and a SQLite index at .serena/memories.db tracking the same
// name/content/tags/size metadata for queries. Grounded on original_source's
// serena-memory/src/store.rs schema, re-expressed with database/sql and
// modernc.org/sqlite, and on loom's internal/memory.Store for the
// rootDir + RWMutex-guarded-cache shape around it.
package memorystore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one memory's metadata, mirrored between the SQLite index and
// its paired Markdown file's content.
type Record struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags"`
	SizeBytes int64     `json:"size_bytes"`
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	name       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	tags       TEXT NOT NULL DEFAULT '[]',
	size_bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_updated_at ON memories(updated_at);
`

// Store manages a project's memories under <root>/.serena/: Markdown bodies
// in memories/<name>.md, metadata indexed in memories.db.
type Store struct {
	mu  sync.RWMutex
	dir string
	db  *sql.DB
}

// Open opens (or creates) the memory store rooted at projectRoot.
func Open(projectRoot string) (*Store, error) {
	root := filepath.Join(projectRoot, ".serena")
	dir := filepath.Join(root, "memories")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating memories directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "memories.db"))
	if err != nil {
		return nil, fmt.Errorf("opening memory index: %w", err)
	}
	// The driver multiplexes writers over one os-level connection; pin the
	// pool to one so statements never race each other into SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing memory index schema: %w", err)
	}

	return &Store{dir: dir, db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+".md")
}

func validateName(name string) error {
	if name == "" || !nameRe.MatchString(name) {
		return fmt.Errorf("invalid memory name %q: must be non-empty and contain only letters, digits, '.', '_', '-'", name)
	}
	return nil
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

func unmarshalTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

// parseTime matches store.rs's parse_from_rfc3339: timestamps round-trip
// through the driver as plain TEXT, not a driver-specific time type.
func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Write creates or overwrites a memory's content, keeping its existing tags
// (or none, for a brand new memory), and returns its updated Record.
func (s *Store) Write(name, content string) (Record, error) {
	return s.write(name, content, nil, false)
}

// WriteTags creates or overwrites a memory with an explicit tag set.
func (s *Store) WriteTags(name, content string, tags []string) (Record, error) {
	return s.write(name, content, tags, true)
}

func (s *Store) write(name, content string, tags []string, setTags bool) (Record, error) {
	if err := validateName(name); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	createdAt := now
	var existingCreatedAt, existingTags string
	err := s.db.QueryRow(`SELECT created_at, tags FROM memories WHERE name = ?`, name).Scan(&existingCreatedAt, &existingTags)
	switch {
	case err == sql.ErrNoRows:
		// New memory: createdAt stays now; tags default to whatever setTags gave.
	case err != nil:
		return Record{}, fmt.Errorf("reading memory %q: %w", name, err)
	default:
		createdAt = parseTime(existingCreatedAt)
		if !setTags {
			tags = unmarshalTags(existingTags)
		}
	}

	if err := os.WriteFile(s.pathFor(name), []byte(content), 0o644); err != nil {
		return Record{}, fmt.Errorf("writing memory %q: %w", name, err)
	}

	size := int64(len(content))
	_, err = s.db.Exec(`
		INSERT INTO memories (name, content, created_at, updated_at, tags, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at,
			tags = excluded.tags,
			size_bytes = excluded.size_bytes
	`, name, content, createdAt.Format(time.RFC3339), now.Format(time.RFC3339), marshalTags(tags), size)
	if err != nil {
		return Record{}, fmt.Errorf("indexing memory %q: %w", name, err)
	}

	return Record{Name: name, CreatedAt: createdAt, UpdatedAt: now, Tags: tags, SizeBytes: size}, nil
}

// Read returns a memory's Markdown content.
func (s *Store) Read(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var content string
	err := s.db.QueryRow(`SELECT content FROM memories WHERE name = ?`, name).Scan(&content)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("memory %q not found", name)
	}
	if err != nil {
		return "", fmt.Errorf("reading memory %q: %w", name, err)
	}
	return content, nil
}

// List returns every memory's Record, sorted by name.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT name, created_at, updated_at, tags, size_bytes FROM memories`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var createdAt, updatedAt, tagsJSON string
		if err := rows.Scan(&r.Name, &createdAt, &updatedAt, &tagsJSON, &r.SizeBytes); err != nil {
			continue
		}
		r.CreatedAt, r.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		r.Tags = unmarshalTags(tagsJSON)
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

// Delete removes a memory entirely, file and index row alike.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM memories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting memory %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %q not found", name)
	}
	if err := os.Remove(s.pathFor(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting memory file %q: %w", name, err)
	}
	return nil
}

// Has reports whether a memory exists.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	_ = s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM memories WHERE name = ?)`, name).Scan(&exists)
	return exists
}
