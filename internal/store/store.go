package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/chemnorm/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- lookup_cache stores one PubChem record per resolved search name
	CREATE TABLE IF NOT EXISTS lookup_cache (
		id TEXT PRIMARY KEY,
		search_name TEXT NOT NULL,
		pubchem_cid TEXT NOT NULL,
		canonical_smiles TEXT,
		inchi TEXT,
		inchi_key TEXT,
		molecular_formula TEXT,
		molecular_weight TEXT,
		iupac_name TEXT,
		synonyms TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(search_name)
	);

	-- run_checkpoints tracks progress of annotation runs for resume support
	CREATE TABLE IF NOT EXISTS run_checkpoints (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- checkpoint_rows stores per-row processed results
	CREATE TABLE IF NOT EXISTS checkpoint_rows (
		checkpoint_id TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		record_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (checkpoint_id, row_idx),
		FOREIGN KEY (checkpoint_id) REFERENCES run_checkpoints(id)
	);

	-- name_dictionary maps lowercase synonyms to canonical compound names
	CREATE TABLE IF NOT EXISTS name_dictionary (
		id TEXT PRIMARY KEY,
		synonym TEXT NOT NULL,
		canonical_name TEXT NOT NULL,
		pubchem_cid TEXT NOT NULL,
		inchi_key TEXT,
		merge_index INTEGER DEFAULT 0,
		reference_synonyms TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(synonym)
	);

	CREATE INDEX IF NOT EXISTS idx_cache_lookup ON lookup_cache(search_name);
	CREATE INDEX IF NOT EXISTS idx_checkpoint_rows ON checkpoint_rows(checkpoint_id);
	CREATE INDEX IF NOT EXISTS idx_dictionary_canonical ON name_dictionary(canonical_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetCachedRecord returns the cached PubChem record for a search name.
// Invalidated entries are skipped; hits bump the usage counter.
func (s *Store) GetCachedRecord(ctx context.Context, searchName string) (internal.CompoundRecord, bool, error) {
	var rec internal.CompoundRecord
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT pubchem_cid, canonical_smiles, inchi, inchi_key, molecular_formula, molecular_weight, iupac_name, synonyms, created_at, invalidated
		 FROM lookup_cache WHERE search_name = ?`,
		normalizeText(searchName)).Scan(
		&rec.CID, &rec.CanonicalSMILES, &rec.InChI, &rec.InChIKey,
		&rec.MolecularFormula, &rec.MolecularWeight, &rec.IUPACName,
		&rec.Synonyms, &rec.RetrievedAt, &invalidated)

	if err == sql.ErrNoRows {
		return internal.CompoundRecord{}, false, nil
	}
	if err != nil {
		return internal.CompoundRecord{}, false, err
	}

	if invalidated {
		return internal.CompoundRecord{}, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE lookup_cache SET usage_count = usage_count + 1, last_used = ? WHERE search_name = ?`,
		time.Now(), normalizeText(searchName))

	return rec, true, err
}

// SaveToCache stores a PubChem record under a search name, replacing any
// previous entry for the same name.
func (s *Store) SaveToCache(ctx context.Context, searchName string, rec internal.CompoundRecord) error {
	retrieved := rec.RetrievedAt
	if retrieved.IsZero() {
		retrieved = time.Now()
	}
	id := fmt.Sprintf("lk_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO lookup_cache (id, search_name, pubchem_cid, canonical_smiles, inchi, inchi_key, molecular_formula, molecular_weight, iupac_name, synonyms, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		id, normalizeText(searchName), rec.CID, rec.CanonicalSMILES, rec.InChI, rec.InChIKey,
		rec.MolecularFormula, rec.MolecularWeight, rec.IUPACName, rec.Synonyms,
		time.Now(), retrieved)
	return err
}

// CacheEntry is a row from the lookup_cache table.
type CacheEntry struct {
	ID               string
	SearchName       string
	CID              string
	InChIKey         string
	MolecularFormula string
	UsageCount       int
	Invalidated      bool
	LastUsed         time.Time
}

// CacheStats summarises lookup cache usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) InvalidateCached(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE lookup_cache SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteCached permanently removes a cache entry by ID.
func (s *Store) DeleteCached(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lookup_cache WHERE id = ?`, id)
	return err
}

// ClearCache removes all lookup cache entries.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lookup_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListCache returns all cache entries ordered by most recently used.
func (s *Store) ListCache(ctx context.Context) ([]CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, search_name, pubchem_cid, inchi_key, molecular_formula, usage_count, invalidated, last_used FROM lookup_cache ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.ID, &e.SearchName, &e.CID, &e.InChIKey, &e.MolecularFormula, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the lookup cache.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM lookup_cache`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RunCheckpoint represents a processing run's checkpoint record.
type RunCheckpoint struct {
	ID         string
	InputFile  string
	OutputFile string
	Status     string
	CreatedAt  time.Time
}

// CreateCheckpoint creates a new checkpoint record and returns its run ID.
func (s *Store) CreateCheckpoint(ctx context.Context, inputFile, outputFile string) (string, error) {
	id := fmt.Sprintf("run_%s", uuid.New().String())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_checkpoints (id, input_file, output_file) VALUES (?, ?, ?)`,
		id, inputFile, outputFile)
	return id, err
}

// GetCheckpoint retrieves a checkpoint by ID.
func (s *Store) GetCheckpoint(ctx context.Context, checkpointID string) (*RunCheckpoint, error) {
	var cp RunCheckpoint
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, status, created_at FROM run_checkpoints WHERE id = ?`,
		checkpointID).Scan(&cp.ID, &cp.InputFile, &cp.OutputFile, &cp.Status, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
	}
	return &cp, err
}

// SaveCheckpointRow persists the serialized result for a single input row.
func (s *Store) SaveCheckpointRow(ctx context.Context, checkpointID string, rowIdx int, recordJSON string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoint_rows (checkpoint_id, row_idx, record_json) VALUES (?, ?, ?)`,
		checkpointID, rowIdx, recordJSON)
	return err
}

// GetCheckpointRows returns all already-processed rows for a checkpoint as a
// row-index → JSON map.
func (s *Store) GetCheckpointRows(ctx context.Context, checkpointID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, record_json FROM checkpoint_rows WHERE checkpoint_id = ?`,
		checkpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]string)
	for rows.Next() {
		var rowIdx int
		var recordJSON string
		if err := rows.Scan(&rowIdx, &recordJSON); err != nil {
			return nil, err
		}
		done[rowIdx] = recordJSON
	}
	return done, rows.Err()
}

// CompleteCheckpoint marks a checkpoint as completed.
func (s *Store) CompleteCheckpoint(ctx context.Context, checkpointID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE run_checkpoints SET status = 'completed', updated_at = ? WHERE id = ?`,
		time.Now(), checkpointID)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				min := prev[j]
				if prev[j-1] < min {
					min = prev[j-1]
				}
				if curr[j-1] < min {
					min = curr[j-1]
				}
				curr[j] = min + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// stringSimilarity returns a similarity score in [0, 1] (1 = identical).
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// FuzzyGetCachedRecord returns a cached record whose normalised search name
// has at least threshold similarity (0–1) to searchName. Pass threshold ≤ 0
// to disable (always returns false). To avoid O(n²) cost, names longer than
// 1 000 runes are not fuzzy-matched.
func (s *Store) FuzzyGetCachedRecord(ctx context.Context, searchName string, threshold float64) (internal.CompoundRecord, bool, error) {
	if threshold <= 0 {
		return internal.CompoundRecord{}, false, nil
	}

	normalized := normalizeText(searchName)
	const maxFuzzyRunes = 1000
	if len([]rune(normalized)) > maxFuzzyRunes {
		return internal.CompoundRecord{}, false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT search_name, pubchem_cid, canonical_smiles, inchi, inchi_key, molecular_formula, molecular_weight, iupac_name, synonyms
		 FROM lookup_cache WHERE NOT invalidated`)
	if err != nil {
		return internal.CompoundRecord{}, false, err
	}
	defer rows.Close()

	var best internal.CompoundRecord
	bestScore := 0.0
	found := false

	for rows.Next() {
		var name string
		var rec internal.CompoundRecord
		if err := rows.Scan(&name, &rec.CID, &rec.CanonicalSMILES, &rec.InChI, &rec.InChIKey,
			&rec.MolecularFormula, &rec.MolecularWeight, &rec.IUPACName, &rec.Synonyms); err != nil {
			return internal.CompoundRecord{}, false, err
		}

		// Quick length pre-filter: if the length difference alone makes it
		// impossible to reach the threshold, skip the expensive edit distance.
		ls, lr := len([]rune(normalized)), len([]rune(name))
		maxL := ls
		if lr > maxL {
			maxL = lr
		}
		diff := ls - lr
		if diff < 0 {
			diff = -diff
		}
		if maxL > 0 && 1.0-float64(diff)/float64(maxL) < threshold {
			continue
		}

		score := stringSimilarity(normalized, name)
		if score >= threshold && score > bestScore {
			bestScore = score
			best = rec
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return internal.CompoundRecord{}, false, err
	}

	if found {
		return best, true, nil
	}
	return internal.CompoundRecord{}, false, nil
}

// DictionaryEntry represents a row in the name_dictionary table.
type DictionaryEntry struct {
	ID                string
	Synonym           string
	CanonicalName     string
	CID               string
	InChIKey          string
	MergeIndex        int
	ReferenceSynonyms string
	CreatedAt         time.Time
}

// PutDictionaryEntry inserts or replaces a dictionary entry keyed by its
// synonym. A fresh ID is assigned when the entry carries none.
func (s *Store) PutDictionaryEntry(ctx context.Context, e DictionaryEntry) error {
	if e.ID == "" {
		e.ID = fmt.Sprintf("dict_%d", time.Now().UnixNano())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO name_dictionary (id, synonym, canonical_name, pubchem_cid, inchi_key, merge_index, reference_synonyms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, normalizeText(strings.ToLower(e.Synonym)), e.CanonicalName, e.CID, e.InChIKey, e.MergeIndex, e.ReferenceSynonyms)
	return err
}

// LookupSynonym returns the dictionary entry for a synonym, matched
// case-insensitively.
func (s *Store) LookupSynonym(ctx context.Context, synonym string) (DictionaryEntry, bool, error) {
	var e DictionaryEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, synonym, canonical_name, pubchem_cid, inchi_key, merge_index, reference_synonyms, created_at
		 FROM name_dictionary WHERE synonym = ?`,
		normalizeText(strings.ToLower(synonym))).Scan(
		&e.ID, &e.Synonym, &e.CanonicalName, &e.CID, &e.InChIKey, &e.MergeIndex, &e.ReferenceSynonyms, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return DictionaryEntry{}, false, nil
	}
	if err != nil {
		return DictionaryEntry{}, false, err
	}
	return e, true, nil
}

// ListDictionaryEntries returns all dictionary entries ordered by canonical
// name then synonym.
func (s *Store) ListDictionaryEntries(ctx context.Context) ([]DictionaryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, synonym, canonical_name, pubchem_cid, inchi_key, merge_index, reference_synonyms, created_at
		 FROM name_dictionary ORDER BY canonical_name, synonym`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []DictionaryEntry
	for rows.Next() {
		var e DictionaryEntry
		if err := rows.Scan(&e.ID, &e.Synonym, &e.CanonicalName, &e.CID, &e.InChIKey, &e.MergeIndex, &e.ReferenceSynonyms, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteDictionaryEntry removes a dictionary entry by ID.
func (s *Store) DeleteDictionaryEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM name_dictionary WHERE id = ?`, id)
	return err
}

// ClearDictionary removes all dictionary entries.
func (s *Store) ClearDictionary(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM name_dictionary`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
