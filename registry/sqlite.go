package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"imgres/asset"
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	scope    TEXT    NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	filename TEXT    NOT NULL DEFAULT '',
	path     TEXT    NOT NULL DEFAULT '',
	url      TEXT    NOT NULL DEFAULT '',
	data     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (scope, position)
);
CREATE TABLE IF NOT EXISTS asset_tags (
	scope    TEXT    NOT NULL,
	position INTEGER NOT NULL,
	tag      TEXT    NOT NULL,
	PRIMARY KEY (scope, position, tag)
);
`

// SQLiteStore keeps all scopes in a single database file.
type SQLiteStore struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
	conn *sqlite.Conn
}

// OpenSQLiteStore opens (creating when necessary) registry database. Use
// ":memory:" for transient database.
func OpenSQLiteStore(path string, log *zap.Logger) (*SQLiteStore, error) {
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL}
	if path == ":memory:" {
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenMemory}
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("unable to create registry directory: %w", err)
	}

	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open registry database '%s': %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare registry database '%s': %w", path, err)
	}
	return &SQLiteStore{path: path, log: log.Named("registry"), conn: conn}, nil
}

// Path returns database file name.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) ReadAssets(ctx context.Context, scope asset.Scope) (entries []asset.Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	key := scope.Key()
	positions := make(map[int64]int)
	err = sqlitex.Execute(s.conn, `SELECT position, name, filename, path, url, data FROM assets WHERE scope = ? ORDER BY position`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				positions[stmt.ColumnInt64(0)] = len(entries)
				entries = append(entries, asset.Entry{
					Name:     stmt.ColumnText(1),
					Filename: stmt.ColumnText(2),
					Path:     stmt.ColumnText(3),
					URL:      stmt.ColumnText(4),
					Data:     stmt.ColumnText(5),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read registry for %s: %w", scope, err)
	}

	err = sqlitex.Execute(s.conn, `SELECT position, tag FROM asset_tags WHERE scope = ? ORDER BY position, tag`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if i, ok := positions[stmt.ColumnInt64(0)]; ok {
					entries[i].Tags = append(entries[i].Tags, stmt.ColumnText(1))
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read registry tags for %s: %w", scope, err)
	}
	return entries, nil
}

func (s *SQLiteStore) WriteAssets(ctx context.Context, scope asset.Scope, entries []asset.Entry) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: unable to write registry for %s: %w", asset.ErrTransientWrite, scope, err)
		}
	}()

	release := sqlitex.Save(s.conn)
	defer release(&err)

	key := scope.Key()
	for _, q := range []string{`DELETE FROM asset_tags WHERE scope = ?`, `DELETE FROM assets WHERE scope = ?`} {
		if err = sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{Args: []any{key}}); err != nil {
			return err
		}
	}
	for i, e := range entries {
		err = sqlitex.Execute(s.conn,
			`INSERT INTO assets (scope, position, name, filename, path, url, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{key, int64(i), e.Name, e.Filename, e.Path, e.URL, e.Data}})
		if err != nil {
			return err
		}
		for _, tag := range asset.NormalizeTags(e.Tags) {
			err = sqlitex.Execute(s.conn, `INSERT INTO asset_tags (scope, position, tag) VALUES (?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{key, int64(i), tag}})
			if err != nil {
				return err
			}
		}
	}
	s.log.Debug("Registry written", zap.String("scope", key), zap.Int("assets", len(entries)))
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
