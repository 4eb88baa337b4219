// Package idindex persists the identifier → (chromosome, position) mapping
// that binning indices cannot resolve. It stores the mapping in a small
// sqlite database (via modernc.org/sqlite, a CGO-free driver) rather than a
// hand-rolled binary layout, modeled on the BGEN ecosystem's own sqlite-
// backed variant index.
package idindex

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_info (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS identifiers (
	id         TEXT    NOT NULL,
	chromosome TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	ordinal    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS identifiers_by_id ON identifiers (id);
`

// Locator names a single (chromosome, position) a record with some
// identifier can be found at.
type Locator struct {
	Chromosome string
	Position   uint64
}

// Index is an opened identifier index.
type Index struct {
	db *sqlx.DB
}

// Path returns the conventional sidecar path for vcfPath.
func Path(vcfPath string) string { return vcfPath + ".idx" }

// Open loads an existing identifier index.
func Open(path string) (*Index, error) {
	db, err := sqlx.Connect("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("idindex: opening %s: %w", path, err)
	}

	var version int
	if err := db.Get(&version, "SELECT version FROM schema_info LIMIT 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("idindex: %s is not a valid identifier index: %w", path, err)
	}
	if version != schemaVersion {
		db.Close()
		return nil, fmt.Errorf("idindex: %s has schema version %d, want %d", path, version, schemaVersion)
	}

	return &Index{db: db}, nil
}

// Exists reports whether an identifier index sidecar is present for
// vcfPath.
func Exists(vcfPath string) bool {
	_, err := os.Stat(Path(vcfPath))
	return err == nil
}

// Lookup returns the locators recorded for id, in the order the matching
// records were encountered while building the index, or nil if id is
// unknown.
func (idx *Index) Lookup(id string) ([]Locator, error) {
	var rows []struct {
		Chromosome string `db:"chromosome"`
		Position   uint64 `db:"position"`
	}
	if err := idx.db.Select(&rows, `
		SELECT chromosome, position FROM identifiers
		WHERE id = ? ORDER BY ordinal ASC`, id); err != nil {
		return nil, fmt.Errorf("idindex: looking up %q: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	locators := make([]Locator, len(rows))
	for i, row := range rows {
		locators[i] = Locator{Chromosome: row.Chromosome, Position: row.Position}
	}
	return locators, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// splitIDs splits a VCF ID column on ';', dropping the "no id" sentinel.
// Mirrors vcfio.splitIDs, which is unexported and so cannot be called from
// this package.
func splitIDs(raw string) []string {
	if raw == "" || raw == "." {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ";") {
		if id != "" && id != "." {
			ids = append(ids, id)
		}
	}
	return ids
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:"
	}
	return "file:" + path
}
