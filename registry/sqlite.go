package registry

import (
	"context"
	"database/sql"
	_ "github.com/mattn/go-sqlite3"
	"go-ml.dev/pkg/glm/model/key"
	"go-ml.dev/pkg/zorros/zlog"
	"go-ml.dev/pkg/zorros/zorros"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	key        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	algo       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	artifact   TEXT NOT NULL
)`

/*
SQLiteStore keeps registry index in a sqlite database
*/
type SQLiteStore struct {
	db *sql.DB
}

/*
OpenSQLite opens or creates the sqlite database
*/
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to open registry db `%v`: %v", path, err.Error())
	}
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zorros.Wrapf(err, "failed to create registry schema: %v", err.Error())
	}
	return &SQLiteStore{db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO models (key, name, algo, created_at, artifact) VALUES (?, ?, ?, ?, ?)`,
		e.Key.Key, e.Key.Name, e.Algo, e.Created.UnixNano(), e.Artifact)
	if err != nil {
		return zorros.Wrapf(err, "failed to save model `%v`: %v", e.Key.Key, err.Error())
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, storageKey string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE key = ?`, storageKey); err != nil {
		return zorros.Wrapf(err, "failed to delete model `%v`: %v", storageKey, err.Error())
	}
	return nil
}

/*
List returns stored entries, rows with not canonical keys are skipped
*/
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, name, algo, created_at, artifact FROM models ORDER BY created_at`)
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to list models: %v", err.Error())
	}
	defer rows.Close()
	var es []Entry
	for rows.Next() {
		var sk, name, algo, artifact string
		var created int64
		if err = rows.Scan(&sk, &name, &algo, &created, &artifact); err != nil {
			return nil, zorros.Trace(err)
		}
		k, err := key.WithName(sk, name)
		if err != nil {
			zlog.Warningf("registry: skip stored model: %v", err)
			continue
		}
		es = append(es, Entry{Key: k, Algo: algo, Created: time.Unix(0, created).UTC(), Artifact: artifact})
	}
	if err = rows.Err(); err != nil {
		return nil, zorros.Trace(err)
	}
	return es, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
