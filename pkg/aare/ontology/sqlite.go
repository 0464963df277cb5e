package ontology

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/bmatcuk/doublestar/v4"
)

// cacheEntry is one file's last-validated state: the content hash it
// was validated under, and the resulting parsed Ontology, so a
// hash-unchanged file on the next Reload can be picked up without
// calling Parse again.
type cacheEntry struct {
	hash string
	ont  *Ontology
}

// sqliteRegistry wraps a memRegistry and additionally persists each
// validated ontology file's JSON text, exactly as read from disk, plus
// a content hash to a
// modernc.org/sqlite database, grounded in korel's
// store/sqlite.OpenSQLite (WAL mode, schema-on-open). This is a
// reload-time optimization — skip re-parsing and re-validating a file
// whose content hash is unchanged — not durable application state: the
// verification core's Non-goals ("No durable state") still hold, since
// the database holds nothing the ontology files on disk don't already
// hold; it can be deleted and rebuilt from disk at any time.
type sqliteRegistry struct {
	inner *memRegistry
	db    *sql.DB

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewSQLiteCachedRegistry opens (creating if absent) a sqlite cache at
// dbPath backing a Registry rooted at dir. Rows persisted from a prior
// process are parsed immediately so a cold-start List/Get is served
// from the cache rather than falling through to a full disk scan.
func NewSQLiteCachedRegistry(ctx context.Context, dir, dbPath string) (Registry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ontology cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ontology cache: %w", err)
	}
	if err := initCacheSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	cache, byName, err := loadCache(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	r := &sqliteRegistry{
		inner: &memRegistry{dir: dir, byName: byName, loadedAt: true},
		db:    db,
		cache: cache,
	}
	return r, nil
}

func initCacheSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ontology_cache (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	canonical_json TEXT NOT NULL
)`)
	return err
}

// loadCache reads every persisted row and re-parses its stored JSON
// (already validated when it was first written), seeding both the
// per-path cache Reload compares hashes against and the by-name map
// memRegistry serves List/Get from at cold start. A row that no longer
// parses (schema changed underfoot) is dropped; the next Reload from
// disk repopulates it.
func loadCache(ctx context.Context, db *sql.DB) (map[string]cacheEntry, map[string]*Ontology, error) {
	rows, err := db.QueryContext(ctx, "SELECT path, content_hash, canonical_json FROM ontology_cache")
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	cache := make(map[string]cacheEntry)
	byName := make(map[string]*Ontology)
	for rows.Next() {
		var path, hash, canonical string
		if err := rows.Scan(&path, &hash, &canonical); err != nil {
			return nil, nil, err
		}
		o, err := Parse([]byte(canonical))
		if err != nil {
			continue
		}
		cache[path] = cacheEntry{hash: hash, ont: o}
		byName[o.Name] = o
	}
	return cache, byName, rows.Err()
}

func (r *sqliteRegistry) List() ([]Metadata, error) { return r.inner.List() }
func (r *sqliteRegistry) Get(name string) (*Ontology, error) { return r.inner.Get(name) }

// Reload re-parses and re-validates only the files whose content hash
// changed since the last reload; a file whose hash is unchanged
// reuses its already-parsed Ontology from cache instead of calling
// Parse again, and its cache row is left untouched.
func (r *sqliteRegistry) Reload() error {
	matches, err := doublestar.FilepathGlob(filepath.Join(filepath.ToSlash(r.inner.dir), "**", "*.json"))
	if err != nil {
		return fmt.Errorf("glob %s: %w", r.inner.dir, err)
	}

	ctx := context.Background()
	fresh := make(map[string]*Ontology, len(matches))
	var firstErr error

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		hash := contentHash(data)

		if entry, ok := r.cache[path]; ok && entry.hash == hash {
			fresh[entry.ont.Name] = entry.ont
			continue
		}

		o, err := Parse(data)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fresh[o.Name] = o

		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO ontology_cache(path, content_hash, canonical_json) VALUES (?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET content_hash=excluded.content_hash, canonical_json=excluded.canonical_json`,
			path, hash, string(data)); err != nil {
			return fmt.Errorf("persist ontology cache for %s: %w", path, err)
		}
		r.cache[path] = cacheEntry{hash: hash, ont: o}
	}

	if len(fresh) == 0 && firstErr != nil {
		return firstErr
	}

	r.inner.mu.Lock()
	r.inner.byName = fresh
	r.inner.loadedAt = true
	r.inner.mu.Unlock()
	return nil
}

// Close releases the underlying sqlite connection.
func (r *sqliteRegistry) Close() error { return r.db.Close() }
