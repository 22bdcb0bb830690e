// SPDX-License-Identifier: MIT

package scene

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

// SQLiteStore persists elements across host restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database, sets WAL mode and busy_timeout, and
// runs migrations.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open scene database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping scene database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run scene migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS elements (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		px REAL NOT NULL, py REAL NOT NULL, pz REAL NOT NULL,
		rx REAL NOT NULL, ry REAL NOT NULL, rz REAL NOT NULL,
		sx REAL NOT NULL, sy REAL NOT NULL, sz REAL NOT NULL,
		color TEXT,
		asset_path TEXT NOT NULL DEFAULT '',
		batch_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_elements_type ON elements(type);
	CREATE INDEX IF NOT EXISTS idx_elements_path ON elements(path);
	CREATE INDEX IF NOT EXISTS idx_elements_batch ON elements(batch_id);

	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		element_ids TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const elementColumns = `id, type, name, path, px, py, pz, rx, ry, rz, sx, sy, sz, color, asset_path, batch_id, created_at`

func (s *SQLiteStore) AddElement(el Element) error {
	color, err := marshalColor(el.Color)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO elements (`+elementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		el.ID, el.Type, el.Name, el.Path,
		el.Position[0], el.Position[1], el.Position[2],
		el.Rotation[0], el.Rotation[1], el.Rotation[2],
		el.Scale[0], el.Scale[1], el.Scale[2],
		color, el.AssetPath, el.BatchID,
		el.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert element: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetElement(id string) (Element, error) {
	row := s.db.QueryRow(`SELECT `+elementColumns+` FROM elements WHERE id = ?`, id)
	return scanElement(row)
}

func (s *SQLiteStore) GetElementByPath(path string) (Element, error) {
	row := s.db.QueryRow(`SELECT `+elementColumns+` FROM elements WHERE path = ?`, path)
	return scanElement(row)
}

func (s *SQLiteStore) UpdateElement(el Element) error {
	color, err := marshalColor(el.Color)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE elements SET type=?, name=?, path=?,
			px=?, py=?, pz=?, rx=?, ry=?, rz=?, sx=?, sy=?, sz=?,
			color=?, asset_path=?, batch_id=?
		WHERE id=?`,
		el.Type, el.Name, el.Path,
		el.Position[0], el.Position[1], el.Position[2],
		el.Rotation[0], el.Rotation[1], el.Rotation[2],
		el.Scale[0], el.Scale[1], el.Scale[2],
		color, el.AssetPath, el.BatchID, el.ID)
	if err != nil {
		return fmt.Errorf("update element: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrElementNotFound
	}
	return nil
}

func (s *SQLiteStore) RemoveElement(id string) error {
	res, err := s.db.Exec(`DELETE FROM elements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete element: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrElementNotFound
	}
	return nil
}

func (s *SQLiteStore) ListElements() ([]Element, error) {
	rows, err := s.db.Query(`SELECT ` + elementColumns + ` FROM elements ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	var out []Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RemoveByPathPrefix(prefix string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM elements WHERE path LIKE ? ESCAPE '\'`, likePrefix(prefix))
	if err != nil {
		return 0, fmt.Errorf("delete by path prefix: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) AddBatch(b Batch) error {
	ids, err := json.Marshal(b.Elements)
	if err != nil {
		return fmt.Errorf("marshal batch element ids: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO batches (id, name, element_ids, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, string(ids), b.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBatch(id string) (Batch, error) {
	var b Batch
	var ids, createdAt string
	err := s.db.QueryRow(`SELECT id, name, element_ids, created_at FROM batches WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &ids, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	if err != nil {
		return Batch{}, fmt.Errorf("get batch: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &b.Elements); err != nil {
		return Batch{}, fmt.Errorf("decode batch element ids: %w", err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return b, nil
}

func (s *SQLiteStore) RemoveBatch(id string) (int, error) {
	b, err := s.GetBatch(id)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, elID := range b.Elements {
		if err := s.RemoveElement(elID); err == nil {
			removed++
		}
	}
	if _, err := s.db.Exec(`DELETE FROM batches WHERE id = ?`, id); err != nil {
		return removed, fmt.Errorf("delete batch: %w", err)
	}
	return removed, nil
}

func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM elements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count elements: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElement(row rowScanner) (Element, error) {
	var el Element
	var color sql.NullString
	var createdAt string
	err := row.Scan(&el.ID, &el.Type, &el.Name, &el.Path,
		&el.Position[0], &el.Position[1], &el.Position[2],
		&el.Rotation[0], &el.Rotation[1], &el.Rotation[2],
		&el.Scale[0], &el.Scale[1], &el.Scale[2],
		&color, &el.AssetPath, &el.BatchID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Element{}, ErrElementNotFound
	}
	if err != nil {
		return Element{}, fmt.Errorf("scan element: %w", err)
	}
	if color.Valid && color.String != "" {
		if err := json.Unmarshal([]byte(color.String), &el.Color); err != nil {
			return Element{}, fmt.Errorf("decode element color: %w", err)
		}
	}
	el.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return el, nil
}

func marshalColor(c []float64) (sql.NullString, error) {
	if len(c) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal element color: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// likePrefix escapes LIKE metacharacters in a literal path prefix.
func likePrefix(prefix string) string {
	out := make([]byte, 0, len(prefix)+2)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, prefix[i])
	}
	return string(append(out, '%'))
}
