package hostlib

import (
	"database/sql"
	"fmt"
	"reflect"

	_ "modernc.org/sqlite"

	"github.com/funvibe/pyhost/internal/hostbridge"
)

// Database is a SQLite connection. Scripts get one from sqlite.Database(path)
// and may use it in a with statement, which closes it.
type Database struct {
	db   *sql.DB
	path string
}

// OpenDatabase opens path; ":memory:" gives a private in-memory database.
func OpenDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// an in-memory database lives as long as its single connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Database{db: db, path: path}, nil
}

// Execute runs a statement and returns the number of affected rows.
func (d *Database) Execute(query string, args ...interface{}) (int64, error) {
	res, err := d.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query returns every row as a column-name to value map.
func (d *Database) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) String() string {
	return d.path
}

// RegisterSQLite exposes sqlite.Database.
func RegisterSQLite(reg *hostbridge.Registry) error {
	return reg.Register(hostbridge.ClassSpec{
		Name:         "sqlite.Database",
		Type:         reflect.TypeOf(Database{}),
		Constructors: []interface{}{OpenDatabase},
	})
}
