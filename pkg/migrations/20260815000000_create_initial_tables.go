package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE series (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				name TEXT NOT NULL,
				sort_name TEXT NOT NULL,
				primary_author TEXT,
				total INTEGER,
				status TEXT NOT NULL DEFAULT 'unknown',
				description TEXT,
				publisher TEXT,
				genres TEXT,
				tags TEXT,
				first_published TIMESTAMPTZ,
				last_published TIMESTAMPTZ,
				last_reconciled_at TIMESTAMPTZ,
				cover_url TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Case-insensitive unique natural key (only for non-deleted records)
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_series_name ON series (name COLLATE NOCASE) WHERE deleted_at IS NULL`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE volumes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				series_id INTEGER REFERENCES series (id) NOT NULL,
				position INTEGER,
				title TEXT NOT NULL,
				isbn_13 TEXT,
				isbn_10 TEXT,
				publisher TEXT,
				published TIMESTAMPTZ,
				page_count INTEGER,
				cover_url TEXT,
				description TEXT,
				status TEXT NOT NULL DEFAULT 'missing',
				status_source TEXT NOT NULL DEFAULT 'system',
				notes TEXT,
				acquired_at TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_volumes_series_id ON volumes (series_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_volumes_isbn_13 ON volumes (isbn_13)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE owned_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				title TEXT NOT NULL,
				authors TEXT,
				series_name TEXT,
				position INTEGER,
				notes TEXT,
				acquired_at TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_owned_items_series_name ON owned_items (series_name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE editions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				owned_item_id INTEGER REFERENCES owned_items (id) NOT NULL,
				isbn TEXT,
				format TEXT,
				publisher TEXT,
				published TIMESTAMPTZ,
				cover_url TEXT,
				is_primary BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_editions_owned_item_id ON editions (owned_item_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE jobs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				type TEXT NOT NULL,
				status TEXT NOT NULL,
				data TEXT,
				progress INTEGER NOT NULL,
				process_id TEXT
			)
`)
		return errors.WithStack(err)
	}
	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"jobs", "editions", "owned_items", "volumes", "series"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
