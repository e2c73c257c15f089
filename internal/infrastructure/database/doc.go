// Package database provides the SQLite connection behind the accessory cache.
//
// It opens the database with WAL mode and a busy timeout, restricts the file
// to its owner, and applies versioned SQL migrations. Migrations are plain
// files named YYYYMMDD_HHMMSS_description.up.sql (with an optional .down.sql)
// read from any fs.FS, usually the embedded migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
