// Package sqlite persists file records, knowledge documents, chunk vectors
// and import history in one database at ~/.filer/data/filer.db.
//
// It runs on modernc.org/sqlite, so the binary builds without cgo. The
// schema comes from the numbered scripts in the migrations package, applied
// by golang-migrate, which records the version in schema_migrations. The
// database is opened in WAL mode so a running `filer serve` and one-off
// commands can share it.
//
// Vector search is a cosine scan over the stored embeddings, which is fast
// enough for a personal workspace.
package sqlite
