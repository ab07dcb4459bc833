// Package annotate resolves normalized compound names against PubChem and
// attaches the resulting property records, consulting the lookup cache
// before going to the network.
package annotate

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/valpere/chemnorm/internal"
	"github.com/valpere/chemnorm/internal/pubchem"
	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/store"
)

const defaultWorkers = 4

type Annotator struct {
	resolver       pubchem.Resolver
	store          *store.Store
	workers        int
	fuzzyThreshold float64
}

// New builds an annotator. The store may be nil to run without a cache.
func New(resolver pubchem.Resolver, st *store.Store, workers int) *Annotator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Annotator{
		resolver: resolver,
		store:    st,
		workers:  workers,
	}
}

// SetFuzzyThreshold enables fuzzy cache matching for near-identical search
// names, with threshold in (0, 1]. Zero disables it.
func (a *Annotator) SetFuzzyThreshold(threshold float64) {
	a.fuzzyThreshold = threshold
}

// Annotate resolves every record's search name and returns one compound
// record per input, index-aligned. Each distinct search name is resolved
// once; per-name failures yield an empty compound record and a warning on
// stderr rather than aborting the batch.
func (a *Annotator) Annotate(ctx context.Context, records []*record.NormalizationRecord) []internal.CompoundRecord {
	names := distinctSearchNames(records)
	resolved := a.resolveAll(ctx, names)

	out := make([]internal.CompoundRecord, len(records))
	for i, rec := range records {
		out[i] = resolved[rec.SearchName]
	}
	return out
}

// resolveAll fans the distinct names out over a bounded worker pool.
func (a *Annotator) resolveAll(ctx context.Context, names []string) map[string]internal.CompoundRecord {
	type nameResult struct {
		index int
		rec   internal.CompoundRecord
	}

	jobs := make(chan int)
	results := make(chan nameResult, len(names))

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- nameResult{index: idx, rec: a.resolveOne(ctx, names[idx])}
			}
		}()
	}

	go func() {
		for i := range names {
			jobs <- i
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resolved := make(map[string]internal.CompoundRecord, len(names))
	for nr := range results {
		resolved[names[nr.index]] = nr.rec
	}
	return resolved
}

func (a *Annotator) resolveOne(ctx context.Context, name string) internal.CompoundRecord {
	if a.store != nil {
		if rec, found, err := a.store.GetCachedRecord(ctx, name); err == nil && found {
			return rec
		}
		// Fuzzy hits are served but not re-keyed under the new name.
		if a.fuzzyThreshold > 0 {
			if rec, found, err := a.store.FuzzyGetCachedRecord(ctx, name, a.fuzzyThreshold); err == nil && found {
				return rec
			}
		}
	}

	rec, err := a.fetch(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to annotate %q: %v\n", name, err)
		return internal.CompoundRecord{}
	}

	if a.store != nil {
		if err := a.store.SaveToCache(ctx, name, rec); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to cache %q: %v\n", name, err)
		}
	}
	return rec
}

// fetch runs the CID → properties → synonyms chain. A sentinel CID is
// propagated across every field so downstream filters can spot it.
func (a *Annotator) fetch(ctx context.Context, name string) (internal.CompoundRecord, error) {
	cid, ok, err := a.resolver.ResolveCID(ctx, name)
	if err != nil {
		return internal.CompoundRecord{}, err
	}

	rec := internal.CompoundRecord{CID: cid, RetrievedAt: time.Now()}
	if !ok {
		rec.CanonicalSMILES = cid
		rec.InChI = cid
		rec.InChIKey = cid
		rec.MolecularFormula = cid
		rec.MolecularWeight = cid
		rec.IUPACName = cid
		rec.Synonyms = cid
		return rec, nil
	}

	props, err := a.resolver.Properties(ctx, cid)
	if err != nil {
		return internal.CompoundRecord{}, err
	}
	rec.CanonicalSMILES = props.CanonicalSMILES
	rec.InChI = props.InChI
	rec.InChIKey = props.InChIKey
	rec.MolecularFormula = props.MolecularFormula
	rec.MolecularWeight = props.MolecularWeight
	rec.IUPACName = props.IUPACName

	synonyms, err := a.resolver.Synonyms(ctx, cid)
	if err != nil {
		return internal.CompoundRecord{}, err
	}
	rec.Synonyms = synonyms

	return rec, nil
}

// distinctSearchNames keeps first-seen order and drops empty names.
func distinctSearchNames(records []*record.NormalizationRecord) []string {
	seen := make(map[string]bool, len(records))
	var names []string
	for _, rec := range records {
		if rec.SearchName == "" || seen[rec.SearchName] {
			continue
		}
		seen[rec.SearchName] = true
		names = append(names, rec.SearchName)
	}
	return names
}
