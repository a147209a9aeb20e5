package storage

import (
	"database/sql"
	"fmt"
)

// currentSchemaVersion identifies the on-disk shape recorded in the meta
// table under the schema_version key (spec Index Meta, invariant 6: pack
// output is only byte-identical across runs against the same version).
const currentSchemaVersion = 1

// edgeKinds enumerates the Edge.kind domain (§3 DATA MODEL). CALL and
// MODULE_DEPENDS_ON are written by the Resolver; IMPORT, INHERIT, CONTAIN,
// and EXPORTS are structural and written directly by the Extractor.
var edgeKinds = []string{"CALL", "IMPORT", "INHERIT", "CONTAIN", "MODULE_DEPENDS_ON", "EXPORTS"}

var symbolKinds = []string{
	"function", "method", "class", "struct", "interface", "enum",
	"variable", "module", "import",
}

// initializeSchema creates all tables for a new database.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createMetaTable(tx); err != nil {
			return err
		}
		if err := createFilesTable(tx); err != nil {
			return err
		}
		if err := createSymbolsTable(tx); err != nil {
			return err
		}
		if err := createCallsitesTable(tx); err != nil {
			return err
		}
		if err := createEdgesTable(tx); err != nil {
			return err
		}

		// Supplemental tables outside the C1-C11 core: symbol identity
		// across re-indexes, module annotations, and query-result caching.
		if err := createSymbolMappingsTable(tx); err != nil {
			return err
		}
		if err := createSymbolAliasesTable(tx); err != nil {
			return err
		}
		if err := createModulesTable(tx); err != nil {
			return err
		}
		if err := createCacheTablesTable(tx); err != nil {
			return err
		}

		// Tracking tables for the incremental indexer (C8): the SCIP-backed
		// file/symbol/call state used to decide what needs re-extraction on
		// the next run, distinct from the core files/symbols/edges tables
		// above which hold the extracted graph itself.
		if err := createIncrementalTrackingTables(tx); err != nil {
			return err
		}

		if err := setMeta(tx, "schema_version", fmt.Sprintf("%d", currentSchemaVersion)); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations reads schema_version and applies ordered, idempotent
// migrations. A stored version newer than currentSchemaVersion means this
// binary is older than the database and must refuse to touch it.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("schema too new: database is at version %d, this binary knows version %d", version, currentSchemaVersion)
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Version 0 predates the meta table entirely; nothing has ever shipped
	// at version 0 outside dev builds, so there is no migration path from
	// it other than re-indexing.
	// Add migrations here as schema evolves, e.g.:
	// if version < 2 { if err := db.migrateToV2(); err != nil { return err } }

	return db.WithTx(func(tx *sql.Tx) error {
		return setMeta(tx, "schema_version", fmt.Sprintf("%d", currentSchemaVersion))
	})
}

// getSchemaVersion reads the schema_version key out of the meta table,
// returning 0 for a database that predates the meta table.
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='meta'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var value string
	err = db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	if _, err := fmt.Sscanf(value, "%d", &version); err != nil {
		return 0, fmt.Errorf("invalid schema_version value %q: %w", value, err)
	}
	return version, nil
}

// SchemaVersion returns the store's current schema_version, for callers
// outside this package that need to reason about compatibility (e.g. the
// federation index recording each member repo's schema version).
func (db *DB) SchemaVersion() (int, error) {
	return db.getSchemaVersion()
}

// setMeta upserts a key/value pair in the Index Meta table.
func setMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// createMetaTable creates the Index Meta key/value table (§3, required key
// schema_version).
func createMetaTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}
	return nil
}

// createFilesTable creates the File table (§3): one row per repo-relative
// path, content hash used to skip re-parsing unchanged files (invariant 4).
func createFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			file_id       TEXT PRIMARY KEY,
			path          TEXT NOT NULL UNIQUE,
			language      TEXT,
			content_hash  TEXT NOT NULL,
			size_bytes    INTEGER NOT NULL,
			modified_at   TEXT NOT NULL,
			indexed_at    TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_files_path ON files(path)",
		"CREATE INDEX IF NOT EXISTS idx_files_language ON files(language)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createSymbolsTable creates the Symbol table (§3). symbol_id is derived
// upstream from (path, kind, qualified_name, start_line) so re-parsing an
// unchanged file yields identical rows.
func createSymbolsTable(tx *sql.Tx) error {
	_, err := tx.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS symbols (
			symbol_id        TEXT PRIMARY KEY,
			file_id          TEXT NOT NULL REFERENCES files(file_id) ON DELETE CASCADE,
			kind             TEXT NOT NULL CHECK(kind IN (%s)),
			name             TEXT NOT NULL,
			qualified_name   TEXT,
			start_line       INTEGER NOT NULL,
			end_line         INTEGER NOT NULL,
			start_column     INTEGER NOT NULL,
			end_column       INTEGER NOT NULL,
			signature        TEXT,
			documentation    TEXT,
			parent_symbol_id TEXT REFERENCES symbols(symbol_id) ON DELETE SET NULL
		)
	`, quotedList(symbolKinds)))
	if err != nil {
		return fmt.Errorf("failed to create symbols table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createCallsitesTable creates the Callsite table (§3): one row per call
// occurrence, feeding the Resolver (C7) but carrying no edge itself.
func createCallsitesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS callsites (
			callsite_id         INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id             TEXT NOT NULL REFERENCES files(file_id) ON DELETE CASCADE,
			line                INTEGER NOT NULL,
			column              INTEGER NOT NULL,
			callee_text         TEXT NOT NULL,
			enclosing_symbol_id TEXT REFERENCES symbols(symbol_id) ON DELETE SET NULL,
			scope_imports_json  TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create callsites table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_callsites_file_id ON callsites(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_callsites_enclosing ON callsites(enclosing_symbol_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createEdgesTable creates the Edge table (§3): source_symbol_id ->
// target_symbol_id typed by kind, confidence-scored, with provenance.
func createEdgesTable(tx *sql.Tx) error {
	_, err := tx.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS edges (
			edge_id              INTEGER PRIMARY KEY AUTOINCREMENT,
			source_symbol_id     TEXT NOT NULL REFERENCES symbols(symbol_id) ON DELETE CASCADE,
			target_symbol_id     TEXT NOT NULL REFERENCES symbols(symbol_id) ON DELETE CASCADE,
			kind                 TEXT NOT NULL CHECK(kind IN (%s)),
			confidence           REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0),
			provenance           TEXT NOT NULL CHECK(provenance IN ('heuristic', 'resolved')),
			origin_file_id       TEXT NOT NULL REFERENCES files(file_id) ON DELETE CASCADE,
			provenance_meta_json TEXT,

			CHECK(
				(provenance = 'resolved' AND confidence = 1.0) OR
				(provenance = 'heuristic' AND confidence < 0.95)
			)
		)
	`, quotedList(edgeKinds)))
	if err != nil {
		return fmt.Errorf("failed to create edges table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_symbol_id)",
		"CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_symbol_id)",
		"CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind)",
		"CREATE INDEX IF NOT EXISTS idx_edges_origin_file ON edges(origin_file_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createSymbolMappingsTable creates the symbol_mappings table, which tracks
// a symbol's identity as it survives edits across re-indexes (renames,
// moves) — a concern the core symbols table does not carry, since symbol
// rows are fully replaced on every re-parse.
func createSymbolMappingsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS symbol_mappings (
			stable_id TEXT PRIMARY KEY,
			state TEXT NOT NULL CHECK(state IN ('active', 'deleted', 'unknown')),
			backend_stable_id TEXT,
			fingerprint_json TEXT NOT NULL,
			location_json TEXT NOT NULL,
			definition_version_id TEXT,
			definition_version_semantics TEXT,
			last_verified_at TEXT NOT NULL,
			last_verified_state_id TEXT NOT NULL,
			deleted_at TEXT,
			deleted_in_state_id TEXT,

			CHECK(
				(state = 'deleted' AND deleted_at IS NOT NULL AND deleted_in_state_id IS NOT NULL) OR
				(state != 'deleted' AND deleted_at IS NULL AND deleted_in_state_id IS NULL)
			)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create symbol_mappings table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_symbol_mappings_state ON symbol_mappings(state)",
		"CREATE INDEX IF NOT EXISTS idx_symbol_mappings_backend_stable_id ON symbol_mappings(backend_stable_id)",
		"CREATE INDEX IF NOT EXISTS idx_symbol_mappings_last_verified_state_id ON symbol_mappings(last_verified_state_id)",
		"CREATE INDEX IF NOT EXISTS idx_symbol_mappings_deleted_in_state_id ON symbol_mappings(deleted_in_state_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createSymbolAliasesTable creates the symbol_aliases table recording a
// rename/move redirect from an old stable ID to its replacement.
func createSymbolAliasesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS symbol_aliases (
			old_stable_id TEXT NOT NULL,
			new_stable_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			confidence REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0),
			created_at TEXT NOT NULL,
			created_state_id TEXT NOT NULL,

			PRIMARY KEY (old_stable_id, new_stable_id),
			FOREIGN KEY (old_stable_id) REFERENCES symbol_mappings(stable_id) ON DELETE CASCADE,
			FOREIGN KEY (new_stable_id) REFERENCES symbol_mappings(stable_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create symbol_aliases table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_symbol_aliases_new_stable_id ON symbol_aliases(new_stable_id)",
		"CREATE INDEX IF NOT EXISTS idx_symbol_aliases_created_state_id ON symbol_aliases(created_state_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createModulesTable creates the modules table used by `pui annotate` to
// attach human-declared responsibility metadata to a directory module,
// keyed by the module ID the Graph Engine assigns during traversal.
func createModulesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS modules (
			module_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			root_path TEXT NOT NULL,
			manifest_type TEXT,
			detected_at TEXT NOT NULL,
			state_id TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create modules table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_modules_name ON modules(name)",
		"CREATE INDEX IF NOT EXISTS idx_modules_root_path ON modules(root_path)",
		"CREATE INDEX IF NOT EXISTS idx_modules_state_id ON modules(state_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createCacheTablesTable creates the three query-result cache tiers: query
// (TTL 300s, keyed to headCommit), view (TTL 3600s), and negative (TTL 60s).
func createCacheTablesTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS query_cache (
			key TEXT PRIMARY KEY,
			value_json TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			state_id TEXT NOT NULL,
			head_commit TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create query_cache table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS view_cache (
			key TEXT PRIMARY KEY,
			value_json TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			state_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create view_cache table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS negative_cache (
			key TEXT PRIMARY KEY,
			error_type TEXT NOT NULL,
			error_message TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			state_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create negative_cache table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_query_cache_expires_at ON query_cache(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_query_cache_state_id ON query_cache(state_id)",
		"CREATE INDEX IF NOT EXISTS idx_view_cache_expires_at ON view_cache(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_view_cache_state_id ON view_cache(state_id)",
		"CREATE INDEX IF NOT EXISTS idx_negative_cache_expires_at ON negative_cache(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_negative_cache_state_id ON negative_cache(state_id)",
		"CREATE INDEX IF NOT EXISTS idx_negative_cache_error_type ON negative_cache(error_type)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create cache index: %w", err)
		}
	}
	return nil
}

// createIncrementalTrackingTables creates the bookkeeping tables the
// incremental indexer (pui/internal/incremental) uses to decide, on the
// next run, which files can be skipped, which call edges must be rebuilt,
// and which dependent files need transitive re-resolution.
func createIncrementalTrackingTables(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS indexed_files (
			path TEXT PRIMARY KEY,
			hash TEXT NOT NULL,
			mtime INTEGER NOT NULL,
			indexed_at INTEGER NOT NULL,
			scip_document_hash TEXT,
			symbol_count INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("failed to create indexed_files table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS file_symbols (
			file_path TEXT NOT NULL,
			symbol_id TEXT NOT NULL,
			PRIMARY KEY (file_path, symbol_id)
		)
	`); err != nil {
		return fmt.Errorf("failed to create file_symbols table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS callgraph (
			caller_id TEXT,
			callee_id TEXT NOT NULL,
			caller_file TEXT NOT NULL,
			call_line INTEGER NOT NULL,
			call_col INTEGER NOT NULL,
			call_end_col INTEGER,
			PRIMARY KEY (caller_file, call_line, call_col, callee_id)
		)
	`); err != nil {
		return fmt.Errorf("failed to create callgraph table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS file_deps (
			dependent_file TEXT NOT NULL,
			defining_file TEXT NOT NULL,
			PRIMARY KEY (dependent_file, defining_file)
		)
	`); err != nil {
		return fmt.Errorf("failed to create file_deps table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create index_meta table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_file_symbols_symbol_id ON file_symbols(symbol_id)",
		"CREATE INDEX IF NOT EXISTS idx_callgraph_callee_id ON callgraph(callee_id)",
		"CREATE INDEX IF NOT EXISTS idx_callgraph_caller_id ON callgraph(caller_id)",
		"CREATE INDEX IF NOT EXISTS idx_file_deps_defining_file ON file_deps(defining_file)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// quotedList renders values as a comma-separated list of single-quoted SQL
// literals for use inside a CHECK(... IN (...)) clause.
func quotedList(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += "'" + v + "'"
	}
	return out
}
