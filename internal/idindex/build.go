package idindex

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// Build performs a single pass over vcfPath collecting every non-"."
// identifier, associates it with its record's (chromosome, position), and
// persists the result as a sqlite database at a temp path before an atomic
// rename to Path(vcfPath). If a concurrent builder's sidecar appears first,
// the in-progress build is discarded and the winner's index is loaded.
func Build(vcfPath string, src *vcfio.Source) (*Index, error) {
	if Exists(vcfPath) {
		return Open(Path(vcfPath))
	}

	tmpPath := Path(vcfPath) + ".tmp"
	os.Remove(tmpPath) // best-effort: discard any stale temp from a crashed build

	built, err := buildAt(tmpPath, src)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	built.Close()

	if Exists(vcfPath) {
		os.Remove(tmpPath)
		return Open(Path(vcfPath))
	}

	if err := os.Rename(tmpPath, Path(vcfPath)); err != nil {
		os.Remove(tmpPath)
		if Exists(vcfPath) {
			return Open(Path(vcfPath))
		}
		return nil, fmt.Errorf("idindex: renaming %s: %w", tmpPath, err)
	}

	return Open(Path(vcfPath))
}

// BuildEphemeral builds the identifier index entirely in memory, for use
// under a never-save persistence policy.
func BuildEphemeral(src *vcfio.Source) (*Index, error) {
	return buildAt(":memory:", src)
}

func buildAt(tmpPath string, src *vcfio.Source) (*Index, error) {
	db, err := sqlx.Connect("sqlite", sqliteDSN(tmpPath))
	if err != nil {
		return nil, fmt.Errorf("idindex: creating %s: %w", tmpPath, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("idindex: applying schema: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("idindex: stamping schema version: %w", err)
	}

	rdr, closer, err := src.DecodeFull()
	if err != nil {
		db.Close()
		return nil, err
	}
	defer closer.Close()

	tx, err := db.Beginx()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("idindex: starting transaction: %w", err)
	}
	stmt, err := tx.Preparex(`INSERT INTO identifiers (id, chromosome, position, ordinal) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("idindex: preparing insert: %w", err)
	}

	ordinal := 0
	for {
		v := rdr.Read()
		if v == nil {
			break
		}
		for _, id := range splitIDs(v.Id_) {
			if _, err := stmt.Exec(id, v.Chromosome, v.Pos, ordinal); err != nil {
				stmt.Close()
				tx.Rollback()
				db.Close()
				return nil, fmt.Errorf("idindex: indexing %q: %w", id, err)
			}
			ordinal++
		}
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, fmt.Errorf("idindex: committing: %w", err)
	}

	return &Index{db: db}, nil
}
