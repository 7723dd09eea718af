package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"todoboard/internal/model"
)

// ErrNotFound is returned for an unknown todo id.
var ErrNotFound = errors.New("todo not found")

// Repo stores todos in sqlite.
type Repo struct {
	db *sql.DB
}

func OpenRepo(dbPath string) (*Repo, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repo) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	archived INTEGER NOT NULL DEFAULT 0,
	meta_data TEXT DEFAULT NULL,
	created_at TEXT NOT NULL
);`
	if _, err := r.db.Exec(ddl); err != nil {
		return err
	}
	return r.ensureColumns()
}

// ensureColumns upgrades databases created before archiving and meta data existed.
func (r *Repo) ensureColumns() error {
	required := map[string]string{
		"archived":  "ALTER TABLE todos ADD COLUMN archived INTEGER NOT NULL DEFAULT 0;",
		"meta_data": "ALTER TABLE todos ADD COLUMN meta_data TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := r.db.Query(`PRAGMA table_info(todos);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := r.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

const selectColumns = `SELECT id, text, completed, archived, meta_data, created_at FROM todos`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.Item, error) {
	var it model.Item
	var completed, archived int
	var meta sql.NullString
	if err := row.Scan(&it.ID, &it.Text, &completed, &archived, &meta, &it.CreatedAt); err != nil {
		return model.Item{}, err
	}
	it.Completed = completed == 1
	it.Archived = archived == 1
	if meta.Valid && meta.String != "" {
		var md model.MetaData
		if err := json.Unmarshal([]byte(meta.String), &md); err == nil {
			it.MetaData = &md
		}
	}
	return it, nil
}

// List returns every todo, newest first.
func (r *Repo) List() ([]model.Item, error) {
	rows, err := r.db.Query(selectColumns + ` ORDER BY id DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) Get(id int64) (model.Item, error) {
	it, err := scanItem(r.db.QueryRow(selectColumns+` WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrNotFound
	}
	return it, err
}

// Create inserts a todo. An empty CreatedAt is stamped with the current time.
func (r *Repo) Create(d model.Draft) (model.Item, error) {
	created := d.CreatedAt
	if created == "" {
		created = time.Now().Format("2006-01-02T15:04:05.000000")
	}
	meta, err := encodeMeta(d.MetaData)
	if err != nil {
		return model.Item{}, err
	}
	res, err := r.db.Exec(`INSERT INTO todos (text, completed, archived, meta_data, created_at) VALUES (?, ?, ?, ?, ?);`,
		d.Text, boolInt(d.Completed), boolInt(d.Archived), meta, created)
	if err != nil {
		return model.Item{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, err
	}
	return r.Get(id)
}

// Update replaces text, flags and meta data. CreatedAt is kept.
func (r *Repo) Update(id int64, it model.Item) (model.Item, error) {
	meta, err := encodeMeta(it.MetaData)
	if err != nil {
		return model.Item{}, err
	}
	res, err := r.db.Exec(`UPDATE todos SET text = ?, completed = ?, archived = ?, meta_data = ? WHERE id = ?;`,
		it.Text, boolInt(it.Completed), boolInt(it.Archived), meta, id)
	if err != nil {
		return model.Item{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Item{}, ErrNotFound
	}
	return r.Get(id)
}

func (r *Repo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM todos WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// encodeMeta stores meta data without a due time as NULL.
func encodeMeta(md *model.MetaData) (sql.NullString, error) {
	if md == nil || md.DueTime == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(md)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
