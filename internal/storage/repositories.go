package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SymbolMapping represents a symbol mapping record (Section 4.3)
type SymbolMapping struct {
	StableID                  string
	State                     string // 'active' | 'deleted' | 'unknown'
	BackendStableID           *string
	FingerprintJSON           string
	LocationJSON              string
	DefinitionVersionID       *string
	DefinitionVersionSemantics *string
	LastVerifiedAt            time.Time
	LastVerifiedStateID       string
	DeletedAt                 *time.Time
	DeletedInStateID          *string
}

// SymbolAlias represents an alias/redirect record (Section 4.4)
type SymbolAlias struct {
	OldStableID    string
	NewStableID    string
	Reason         string
	Confidence     float64
	CreatedAt      time.Time
	CreatedStateID string
}

// Module represents a module record
type Module struct {
	ModuleID     string
	Name         string
	RootPath     string
	ManifestType *string
	DetectedAt   time.Time
	StateID      string
}

// File is one row of the core files table (§3 DATA MODEL: File).
type File struct {
	FileID      string
	Path        string
	Language    string
	ContentHash string
	SizeBytes   int64
	ModifiedAt  time.Time
	IndexedAt   time.Time
}

// GraphSymbol is one row of the core symbols table (§3 DATA MODEL: Symbol).
// Named GraphSymbol to avoid colliding with the identity layer's
// SymbolMapping, which tracks a symbol's stable identity across re-indexes
// rather than its current definition.
type GraphSymbol struct {
	SymbolID       string
	FileID         string
	Kind           string
	Name           string
	QualifiedName  string
	StartLine      int
	EndLine        int
	StartColumn    int
	EndColumn      int
	Signature      string
	Documentation  string
	ParentSymbolID *string
}

// Callsite is one row of the core callsites table (§3 DATA MODEL: Callsite).
type Callsite struct {
	CallsiteID        int64
	FileID            string
	Line              int
	Column            int
	CalleeText        string
	EnclosingSymbolID *string
	ScopeImportsJSON  string
}

// GraphEdge is one row of the core edges table (§3 DATA MODEL: Edge).
type GraphEdge struct {
	EdgeID             int64
	SourceSymbolID     string
	TargetSymbolID     string
	Kind               string
	Confidence         float64
	Provenance         string // "heuristic" | "resolved"
	OriginFileID       string
	ProvenanceMetaJSON string
}

// SymbolRepository provides CRUD operations for symbol_mappings table
type SymbolRepository struct {
	db *DB
}

// NewSymbolRepository creates a new symbol repository
func NewSymbolRepository(db *DB) *SymbolRepository {
	return &SymbolRepository{db: db}
}

// Create inserts a new symbol mapping
func (r *SymbolRepository) Create(mapping *SymbolMapping) error {
	_, err := r.db.Exec(`
		INSERT INTO symbol_mappings (
			stable_id, state, backend_stable_id, fingerprint_json, location_json,
			definition_version_id, definition_version_semantics,
			last_verified_at, last_verified_state_id,
			deleted_at, deleted_in_state_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		mapping.StableID,
		mapping.State,
		mapping.BackendStableID,
		mapping.FingerprintJSON,
		mapping.LocationJSON,
		mapping.DefinitionVersionID,
		mapping.DefinitionVersionSemantics,
		mapping.LastVerifiedAt.Format(time.RFC3339),
		mapping.LastVerifiedStateID,
		formatTimePtr(mapping.DeletedAt),
		mapping.DeletedInStateID,
	)

	if err != nil {
		return fmt.Errorf("failed to create symbol mapping: %w", err)
	}

	return nil
}

// GetByStableID retrieves a symbol mapping by its stable ID
func (r *SymbolRepository) GetByStableID(stableID string) (*SymbolMapping, error) {
	var mapping SymbolMapping
	var lastVerifiedAt string
	var deletedAt sql.NullString

	err := r.db.QueryRow(`
		SELECT stable_id, state, backend_stable_id, fingerprint_json, location_json,
		       definition_version_id, definition_version_semantics,
		       last_verified_at, last_verified_state_id,
		       deleted_at, deleted_in_state_id
		FROM symbol_mappings
		WHERE stable_id = ?
	`, stableID).Scan(
		&mapping.StableID,
		&mapping.State,
		&mapping.BackendStableID,
		&mapping.FingerprintJSON,
		&mapping.LocationJSON,
		&mapping.DefinitionVersionID,
		&mapping.DefinitionVersionSemantics,
		&lastVerifiedAt,
		&mapping.LastVerifiedStateID,
		&deletedAt,
		&mapping.DeletedInStateID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol mapping: %w", err)
	}

	// Parse timestamps
	mapping.LastVerifiedAt, err = time.Parse(time.RFC3339, lastVerifiedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid last_verified_at format: %w", err)
	}

	if deletedAt.Valid {
		t, err := time.Parse(time.RFC3339, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid deleted_at format: %w", err)
		}
		mapping.DeletedAt = &t
	}

	return &mapping, nil
}

// Update updates an existing symbol mapping
func (r *SymbolRepository) Update(mapping *SymbolMapping) error {
	result, err := r.db.Exec(`
		UPDATE symbol_mappings
		SET state = ?,
		    backend_stable_id = ?,
		    fingerprint_json = ?,
		    location_json = ?,
		    definition_version_id = ?,
		    definition_version_semantics = ?,
		    last_verified_at = ?,
		    last_verified_state_id = ?,
		    deleted_at = ?,
		    deleted_in_state_id = ?
		WHERE stable_id = ?
	`,
		mapping.State,
		mapping.BackendStableID,
		mapping.FingerprintJSON,
		mapping.LocationJSON,
		mapping.DefinitionVersionID,
		mapping.DefinitionVersionSemantics,
		mapping.LastVerifiedAt.Format(time.RFC3339),
		mapping.LastVerifiedStateID,
		formatTimePtr(mapping.DeletedAt),
		mapping.DeletedInStateID,
		mapping.StableID,
	)

	if err != nil {
		return fmt.Errorf("failed to update symbol mapping: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("symbol mapping not found: %s", mapping.StableID)
	}

	return nil
}

// MarkAsDeleted marks a symbol as deleted (tombstone)
func (r *SymbolRepository) MarkAsDeleted(stableID string, stateID string) error {
	now := time.Now()

	result, err := r.db.Exec(`
		UPDATE symbol_mappings
		SET state = 'deleted',
		    deleted_at = ?,
		    deleted_in_state_id = ?,
		    last_verified_at = ?,
		    last_verified_state_id = ?
		WHERE stable_id = ?
	`,
		now.Format(time.RFC3339),
		stateID,
		now.Format(time.RFC3339),
		stateID,
		stableID,
	)

	if err != nil {
		return fmt.Errorf("failed to mark symbol as deleted: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("symbol mapping not found: %s", stableID)
	}

	return nil
}

// ListByState returns all symbol mappings with a given state
func (r *SymbolRepository) ListByState(state string, limit int) ([]*SymbolMapping, error) {
	rows, err := r.db.Query(`
		SELECT stable_id, state, backend_stable_id, fingerprint_json, location_json,
		       definition_version_id, definition_version_semantics,
		       last_verified_at, last_verified_state_id,
		       deleted_at, deleted_in_state_id
		FROM symbol_mappings
		WHERE state = ?
		LIMIT ?
	`, state, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to list symbol mappings: %w", err)
	}
	defer rows.Close()

	return r.scanSymbolMappings(rows)
}

// Delete permanently removes a symbol mapping (use with caution)
func (r *SymbolRepository) Delete(stableID string) error {
	_, err := r.db.Exec("DELETE FROM symbol_mappings WHERE stable_id = ?", stableID)
	if err != nil {
		return fmt.Errorf("failed to delete symbol mapping: %w", err)
	}
	return nil
}

// scanSymbolMappings scans rows into SymbolMapping structs
func (r *SymbolRepository) scanSymbolMappings(rows *sql.Rows) ([]*SymbolMapping, error) {
	var mappings []*SymbolMapping

	for rows.Next() {
		var mapping SymbolMapping
		var lastVerifiedAt string
		var deletedAt sql.NullString

		err := rows.Scan(
			&mapping.StableID,
			&mapping.State,
			&mapping.BackendStableID,
			&mapping.FingerprintJSON,
			&mapping.LocationJSON,
			&mapping.DefinitionVersionID,
			&mapping.DefinitionVersionSemantics,
			&lastVerifiedAt,
			&mapping.LastVerifiedStateID,
			&deletedAt,
			&mapping.DeletedInStateID,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol mapping: %w", err)
		}

		// Parse timestamps
		mapping.LastVerifiedAt, err = time.Parse(time.RFC3339, lastVerifiedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid last_verified_at format: %w", err)
		}

		if deletedAt.Valid {
			t, err := time.Parse(time.RFC3339, deletedAt.String)
			if err != nil {
				return nil, fmt.Errorf("invalid deleted_at format: %w", err)
			}
			mapping.DeletedAt = &t
		}

		mappings = append(mappings, &mapping)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol mappings: %w", err)
	}

	return mappings, nil
}

// AliasRepository provides CRUD operations for symbol_aliases table
type AliasRepository struct {
	db *DB
}

// NewAliasRepository creates a new alias repository
func NewAliasRepository(db *DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// Create inserts a new symbol alias
func (r *AliasRepository) Create(alias *SymbolAlias) error {
	_, err := r.db.Exec(`
		INSERT INTO symbol_aliases (old_stable_id, new_stable_id, reason, confidence, created_at, created_state_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		alias.OldStableID,
		alias.NewStableID,
		alias.Reason,
		alias.Confidence,
		alias.CreatedAt.Format(time.RFC3339),
		alias.CreatedStateID,
	)

	if err != nil {
		return fmt.Errorf("failed to create symbol alias: %w", err)
	}

	return nil
}

// GetByOldStableID retrieves all aliases for an old stable ID
func (r *AliasRepository) GetByOldStableID(oldStableID string) ([]*SymbolAlias, error) {
	rows, err := r.db.Query(`
		SELECT old_stable_id, new_stable_id, reason, confidence, created_at, created_state_id
		FROM symbol_aliases
		WHERE old_stable_id = ?
	`, oldStableID)

	if err != nil {
		return nil, fmt.Errorf("failed to get symbol aliases: %w", err)
	}
	defer rows.Close()

	return r.scanSymbolAliases(rows)
}

// Delete removes a symbol alias
func (r *AliasRepository) Delete(oldStableID string, newStableID string) error {
	_, err := r.db.Exec("DELETE FROM symbol_aliases WHERE old_stable_id = ? AND new_stable_id = ?", oldStableID, newStableID)
	if err != nil {
		return fmt.Errorf("failed to delete symbol alias: %w", err)
	}
	return nil
}

// scanSymbolAliases scans rows into SymbolAlias structs
func (r *AliasRepository) scanSymbolAliases(rows *sql.Rows) ([]*SymbolAlias, error) {
	var aliases []*SymbolAlias

	for rows.Next() {
		var alias SymbolAlias
		var createdAt string

		err := rows.Scan(
			&alias.OldStableID,
			&alias.NewStableID,
			&alias.Reason,
			&alias.Confidence,
			&createdAt,
			&alias.CreatedStateID,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol alias: %w", err)
		}

		// Parse timestamp
		alias.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at format: %w", err)
		}

		aliases = append(aliases, &alias)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol aliases: %w", err)
	}

	return aliases, nil
}

// ModuleRepository provides CRUD operations for modules table
type ModuleRepository struct {
	db *DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// Create inserts a new module
func (r *ModuleRepository) Create(module *Module) error {
	_, err := r.db.Exec(`
		INSERT INTO modules (module_id, name, root_path, manifest_type, detected_at, state_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		module.ModuleID,
		module.Name,
		module.RootPath,
		module.ManifestType,
		module.DetectedAt.Format(time.RFC3339),
		module.StateID,
	)

	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}

	return nil
}

// GetByID retrieves a module by its ID
func (r *ModuleRepository) GetByID(moduleID string) (*Module, error) {
	var module Module
	var detectedAt string

	err := r.db.QueryRow(`
		SELECT module_id, name, root_path, manifest_type, detected_at, state_id
		FROM modules
		WHERE module_id = ?
	`, moduleID).Scan(
		&module.ModuleID,
		&module.Name,
		&module.RootPath,
		&module.ManifestType,
		&detectedAt,
		&module.StateID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	// Parse timestamp
	module.DetectedAt, err = time.Parse(time.RFC3339, detectedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid detected_at format: %w", err)
	}

	return &module, nil
}

// ListAll returns all modules
func (r *ModuleRepository) ListAll() ([]*Module, error) {
	rows, err := r.db.Query(`
		SELECT module_id, name, root_path, manifest_type, detected_at, state_id
		FROM modules
		ORDER BY name
	`)

	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	return r.scanModules(rows)
}

// Delete removes a module
func (r *ModuleRepository) Delete(moduleID string) error {
	_, err := r.db.Exec("DELETE FROM modules WHERE module_id = ?", moduleID)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return nil
}

// scanModules scans rows into Module structs
func (r *ModuleRepository) scanModules(rows *sql.Rows) ([]*Module, error) {
	var modules []*Module

	for rows.Next() {
		var module Module
		var detectedAt string

		err := rows.Scan(
			&module.ModuleID,
			&module.Name,
			&module.RootPath,
			&module.ManifestType,
			&detectedAt,
			&module.StateID,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}

		// Parse timestamp
		module.DetectedAt, err = time.Parse(time.RFC3339, detectedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid detected_at format: %w", err)
		}

		modules = append(modules, &module)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}

	return modules, nil
}

// GraphStore provides the Store (C6) operations over the core
// files/symbols/edges/callsites tables, including the atomic per-file
// replacement protocol (§4.6).
type GraphStore struct {
	db *DB
}

// NewGraphStore creates a new graph store.
func NewGraphStore(db *DB) *GraphStore {
	return &GraphStore{db: db}
}

// UpsertFile inserts or updates a File row, keyed by path.
func (s *GraphStore) UpsertFile(tx *sql.Tx, f *File) error {
	_, err := tx.Exec(`
		INSERT INTO files (file_id, path, language, content_hash, size_bytes, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at,
			language = excluded.language
	`,
		f.FileID, f.Path, f.Language, f.ContentHash, f.SizeBytes,
		f.ModifiedAt.Format(time.RFC3339), f.IndexedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}
	return nil
}

// GetFileByPath looks up a File by its repo-relative path.
func (s *GraphStore) GetFileByPath(path string) (*File, error) {
	var f File
	var modifiedAt, indexedAt string
	err := s.db.QueryRow(`
		SELECT file_id, path, language, content_hash, size_bytes, modified_at, indexed_at
		FROM files WHERE path = ?
	`, path).Scan(&f.FileID, &f.Path, &f.Language, &f.ContentHash, &f.SizeBytes, &modifiedAt, &indexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f.ModifiedAt, err = time.Parse(time.RFC3339, modifiedAt); err != nil {
		return nil, fmt.Errorf("invalid modified_at: %w", err)
	}
	if f.IndexedAt, err = time.Parse(time.RFC3339, indexedAt); err != nil {
		return nil, fmt.Errorf("invalid indexed_at: %w", err)
	}
	return &f, nil
}

// DeleteFile removes a File row; symbols, callsites, and edges owned by it
// cascade via foreign keys.
func (s *GraphStore) DeleteFile(tx *sql.Tx, fileID string) error {
	if _, err := tx.Exec("DELETE FROM files WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ReplaceFile performs the file replacement protocol from §4.6: within a
// single transaction, delete the file's prior symbols/edges/callsites,
// upsert the file row, then insert the new symbols, structural edges, and
// callsites. Queries never observe partial state (invariant 2).
func (s *GraphStore) ReplaceFile(f *File, symbols []*GraphSymbol, structuralEdges []*GraphEdge, callsites []*Callsite) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM callsites WHERE file_id = (SELECT file_id FROM files WHERE path = ?)
		`, f.Path); err != nil {
			return fmt.Errorf("failed to clear callsites: %w", err)
		}
		if _, err := tx.Exec(`
			DELETE FROM edges WHERE origin_file_id = (SELECT file_id FROM files WHERE path = ?)
		`, f.Path); err != nil {
			return fmt.Errorf("failed to clear edges: %w", err)
		}
		if _, err := tx.Exec(`
			DELETE FROM symbols WHERE file_id = (SELECT file_id FROM files WHERE path = ?)
		`, f.Path); err != nil {
			return fmt.Errorf("failed to clear symbols: %w", err)
		}

		if err := s.UpsertFile(tx, f); err != nil {
			return err
		}

		for _, sym := range symbols {
			if err := s.insertSymbolTx(tx, sym); err != nil {
				return err
			}
		}
		for _, e := range structuralEdges {
			if err := s.insertEdgeTx(tx, e); err != nil {
				return err
			}
		}
		for _, c := range callsites {
			if err := s.insertCallsiteTx(tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GraphStore) insertSymbolTx(tx *sql.Tx, sym *GraphSymbol) error {
	_, err := tx.Exec(`
		INSERT INTO symbols (
			symbol_id, file_id, kind, name, qualified_name,
			start_line, end_line, start_column, end_column,
			signature, documentation, parent_symbol_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sym.SymbolID, sym.FileID, sym.Kind, sym.Name, sym.QualifiedName,
		sym.StartLine, sym.EndLine, sym.StartColumn, sym.EndColumn,
		sym.Signature, sym.Documentation, sym.ParentSymbolID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert symbol %s: %w", sym.SymbolID, err)
	}
	return nil
}

func (s *GraphStore) insertCallsiteTx(tx *sql.Tx, c *Callsite) error {
	_, err := tx.Exec(`
		INSERT INTO callsites (file_id, line, column, callee_text, enclosing_symbol_id, scope_imports_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.FileID, c.Line, c.Column, c.CalleeText, c.EnclosingSymbolID, c.ScopeImportsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert callsite: %w", err)
	}
	return nil
}

func (s *GraphStore) insertEdgeTx(tx *sql.Tx, e *GraphEdge) error {
	_, err := tx.Exec(`
		INSERT INTO edges (source_symbol_id, target_symbol_id, kind, confidence, provenance, origin_file_id, provenance_meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SourceSymbolID, e.TargetSymbolID, e.Kind, e.Confidence, e.Provenance, e.OriginFileID, e.ProvenanceMetaJSON)
	if err != nil {
		return fmt.Errorf("failed to insert edge: %w", err)
	}
	return nil
}

// InsertResolvedEdge inserts a single edge produced by the Resolver (C7)
// outside the file-replacement path, used when resolution runs as a
// separate pass over already-persisted callsites.
func (s *GraphStore) InsertResolvedEdge(e *GraphEdge) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		return s.insertEdgeTx(tx, e)
	})
}

// EdgesFrom returns all edges whose source is symbolID, optionally filtered
// by kind (empty string matches all kinds).
func (s *GraphStore) EdgesFrom(symbolID, kind string) ([]*GraphEdge, error) {
	return s.queryEdges("source_symbol_id", symbolID, kind)
}

// EdgesTo returns all edges whose target is symbolID (callers/importers),
// optionally filtered by kind.
func (s *GraphStore) EdgesTo(symbolID, kind string) ([]*GraphEdge, error) {
	return s.queryEdges("target_symbol_id", symbolID, kind)
}

func (s *GraphStore) queryEdges(column, symbolID, kind string) ([]*GraphEdge, error) {
	query := fmt.Sprintf(`
		SELECT edge_id, source_symbol_id, target_symbol_id, kind, confidence, provenance, origin_file_id, provenance_meta_json
		FROM edges WHERE %s = ?
	`, column)
	args := []interface{}{symbolID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []*GraphEdge
	for rows.Next() {
		var e GraphEdge
		var meta sql.NullString
		if err := rows.Scan(&e.EdgeID, &e.SourceSymbolID, &e.TargetSymbolID, &e.Kind, &e.Confidence, &e.Provenance, &e.OriginFileID, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.ProvenanceMetaJSON = meta.String
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// GetSymbol looks up a single symbol by ID.
func (s *GraphStore) GetSymbol(symbolID string) (*GraphSymbol, error) {
	var sym GraphSymbol
	var qualified, sig, doc sql.NullString
	var parent sql.NullString
	err := s.db.QueryRow(`
		SELECT symbol_id, file_id, kind, name, qualified_name,
		       start_line, end_line, start_column, end_column,
		       signature, documentation, parent_symbol_id
		FROM symbols WHERE symbol_id = ?
	`, symbolID).Scan(
		&sym.SymbolID, &sym.FileID, &sym.Kind, &sym.Name, &qualified,
		&sym.StartLine, &sym.EndLine, &sym.StartColumn, &sym.EndColumn,
		&sig, &doc, &parent,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}
	sym.QualifiedName, sym.Signature, sym.Documentation = qualified.String, sig.String, doc.String
	if parent.Valid {
		sym.ParentSymbolID = &parent.String
	}
	return &sym, nil
}

// Helper function to format time pointer for SQL
func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
