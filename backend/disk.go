package backend

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fumin/tensor"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableShape = "shape"
	tableElem  = "elem"
)

// Disk is a tensor store backed by a sqlite database, for networks whose
// payloads outgrow memory. Elements are stored sparsely by row-major flat
// index; zeros take no space.
type Disk struct {
	Path string

	db *sql.DB
}

// NewDisk creates a store in a fresh database file under dir.
func NewDisk(dir string) (*Disk, error) {
	d := &Disk{Path: filepath.Join(dir, uuid.New().String()+".db")}
	var err error
	d.db, err = newDB(d.Path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return d, nil
}

// Close closes the store and removes its database file.
func (d *Disk) Close() error {
	var err error
	if err1 := d.db.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err1 := os.Remove(d.Path); err1 != nil && err == nil {
		err = err1
	}
	return err
}

// Store records payload under dataLabel, replacing any previous payload.
func (d *Disk) Store(dataLabel string, payload *tensor.Dense) error {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()

	dims := make([]string, 0, len(payload.Shape()))
	for _, dim := range payload.Shape() {
		dims = append(dims, strconv.Itoa(dim))
	}
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (label, dims) VALUES (?, ?)`, tableShape)
	if _, err := d.db.ExecContext(ctx, sqlStr, dataLabel, strings.Join(dims, ",")); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`DELETE FROM %s WHERE label=?`, tableElem)
	if _, err := d.db.ExecContext(ctx, sqlStr, dataLabel); err != nil {
		return errors.Wrap(err, "")
	}

	i := 0
	for _, v := range payload.All() {
		if v != 0 {
			if err := setItem(ctx, d.db, dataLabel, i, v); err != nil {
				return errors.Wrap(err, "")
			}
		}
		i++
	}
	return nil
}

// Fetch returns the payload stored under dataLabel.
func (d *Disk) Fetch(dataLabel string) (*tensor.Dense, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()

	sqlStr := fmt.Sprintf(`SELECT dims FROM %s WHERE label=?`, tableShape)
	var dimsStr string
	err := d.db.QueryRowContext(ctx, sqlStr, dataLabel).Scan(&dimsStr)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Errorf("%s", dataLabel)
	case err != nil:
		return nil, errors.Wrap(err, "")
	}
	shape := make([]int, 0, 4)
	for _, s := range strings.Split(dimsStr, ",") {
		dim, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%s %s", dataLabel, dimsStr))
		}
		shape = append(shape, dim)
	}

	t := tensor.Zeros(shape...)
	sqlStr = fmt.Sprintf(`SELECT i, re, im FROM %s WHERE label=? ORDER BY i`, tableElem)
	rows, err := d.db.QueryContext(ctx, sqlStr, dataLabel)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()
	for rows.Next() {
		var i int
		var re, im float32
		if err := rows.Scan(&i, &re, &im); err != nil {
			return nil, errors.Wrap(err, "")
		}
		t.SetAt(coords(shape, i), complex(re, im))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return t, nil
}

// Decompose factors the payload under dataLabel over the given axis split
// and stores the two factors. It returns the kept bond dimension.
func (d *Disk) Decompose(dataLabel string, rowAxes, colAxes []int, threshold float32, leftLabel, rightLabel string) (int, error) {
	t, err := d.Fetch(dataLabel)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	left, right, chi, err := factor(t, rowAxes, colAxes, threshold)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	if err := d.Store(leftLabel, left); err != nil {
		return 0, errors.Wrap(err, "")
	}
	if err := d.Store(rightLabel, right); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return chi, nil
}

// coords converts a row-major flat index to axis coordinates.
func coords(shape []int, i int) []int {
	ijk := make([]int, len(shape))
	for a := len(shape) - 1; a >= 0; a-- {
		ijk[a] = i % shape[a]
		i /= shape[a]
	}
	return ijk
}

func setItem(ctx context.Context, db *sql.DB, label string, i int, v complex64) error {
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (label, i, re, im) VALUES (?, ?, ?, ?)`, tableElem)
	if _, err := db.ExecContext(ctx, sqlStr, label, i, real(v), imag(v)); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %d", label, i))
	}
	return nil
}

func newDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}

	return db, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableShape),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableElem),
		fmt.Sprintf(`CREATE TABLE %s (label TEXT, dims TEXT, PRIMARY KEY (label)) STRICT`, tableShape),
		fmt.Sprintf(`CREATE TABLE %s (label TEXT, i INTEGER, re REAL, im REAL, PRIMARY KEY (label, i)) STRICT`, tableElem),
	}
	for _, sqlStr := range stmts {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}
