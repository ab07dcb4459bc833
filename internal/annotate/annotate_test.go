package annotate

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/valpere/chemnorm/internal"
	"github.com/valpere/chemnorm/internal/pubchem"
	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/store"
)

type fakeResolver struct {
	mu       sync.Mutex
	cids     map[string]string
	resolved []string
	failOn   string
}

func (f *fakeResolver) ResolveCID(ctx context.Context, name string) (string, bool, error) {
	f.mu.Lock()
	f.resolved = append(f.resolved, name)
	f.mu.Unlock()

	if name == f.failOn {
		return "", false, fmt.Errorf("resolver down")
	}
	cid, ok := f.cids[name]
	if !ok {
		return pubchem.CIDUnknown, false, nil
	}
	return cid, true, nil
}

func (f *fakeResolver) Properties(ctx context.Context, cid string) (pubchem.Properties, error) {
	return pubchem.Properties{
		MolecularFormula: "formula-" + cid,
		InChIKey:         "key-" + cid,
	}, nil
}

func (f *fakeResolver) Synonyms(ctx context.Context, cid string) (string, error) {
	return "syn-" + cid, nil
}

func (f *fakeResolver) resolveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resolved)
}

func TestAnnotator_Annotate(t *testing.T) {
	resolver := &fakeResolver{cids: map[string]string{
		"aspirin": "2244",
		"glucose": "5793",
	}}
	a := New(resolver, nil, 2)

	records := []*record.NormalizationRecord{
		{InputName: "Aspirin", SearchName: "aspirin"},
		{InputName: "Glucose", SearchName: "glucose"},
	}

	out := a.Annotate(context.Background(), records)
	if len(out) != 2 {
		t.Fatalf("expected 2 compound records, got %d", len(out))
	}
	if out[0].CID != "2244" {
		t.Errorf("expected CID 2244, got %q", out[0].CID)
	}
	if out[0].MolecularFormula != "formula-2244" {
		t.Errorf("unexpected formula %q", out[0].MolecularFormula)
	}
	if out[0].Synonyms != "syn-2244" {
		t.Errorf("unexpected synonyms %q", out[0].Synonyms)
	}
	if out[1].CID != "5793" {
		t.Errorf("expected CID 5793, got %q", out[1].CID)
	}
	if out[0].RetrievedAt.IsZero() {
		t.Error("expected retrieval timestamp")
	}
}

func TestAnnotator_Annotate_DistinctNamesResolvedOnce(t *testing.T) {
	resolver := &fakeResolver{cids: map[string]string{"aspirin": "2244"}}
	a := New(resolver, nil, 2)

	records := []*record.NormalizationRecord{
		{SearchName: "aspirin"},
		{SearchName: "aspirin"},
		{SearchName: "aspirin"},
	}

	out := a.Annotate(context.Background(), records)
	if resolver.resolveCount() != 1 {
		t.Errorf("expected 1 resolver call, got %d", resolver.resolveCount())
	}
	for i, rec := range out {
		if rec.CID != "2244" {
			t.Errorf("row %d: expected CID 2244, got %q", i, rec.CID)
		}
	}
}

func TestAnnotator_Annotate_SentinelPropagated(t *testing.T) {
	resolver := &fakeResolver{cids: map[string]string{}}
	a := New(resolver, nil, 1)

	records := []*record.NormalizationRecord{{SearchName: "unobtainium"}}

	out := a.Annotate(context.Background(), records)
	if out[0].CID != pubchem.CIDUnknown {
		t.Errorf("expected sentinel CID, got %q", out[0].CID)
	}
	if out[0].InChIKey != pubchem.CIDUnknown {
		t.Errorf("expected sentinel InChIKey, got %q", out[0].InChIKey)
	}
	if out[0].Synonyms != pubchem.CIDUnknown {
		t.Errorf("expected sentinel synonyms, got %q", out[0].Synonyms)
	}
}

func TestAnnotator_Annotate_FailureYieldsEmptyRecord(t *testing.T) {
	resolver := &fakeResolver{
		cids:   map[string]string{"aspirin": "2244"},
		failOn: "broken name",
	}
	a := New(resolver, nil, 2)

	records := []*record.NormalizationRecord{
		{SearchName: "broken name"},
		{SearchName: "aspirin"},
	}

	out := a.Annotate(context.Background(), records)
	if out[0] != (internal.CompoundRecord{}) {
		t.Errorf("expected empty record for failed name, got %+v", out[0])
	}
	if out[1].CID != "2244" {
		t.Errorf("expected the rest of the batch to succeed, got %q", out[1].CID)
	}
}

func TestAnnotator_Annotate_CacheFirst(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	// Pre-seed the cache with a different CID than the resolver would return
	err = st.SaveToCache(context.Background(), "aspirin", internal.CompoundRecord{CID: "cached-2244"})
	if err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}

	resolver := &fakeResolver{cids: map[string]string{
		"aspirin": "2244",
		"glucose": "5793",
	}}
	a := New(resolver, st, 2)

	records := []*record.NormalizationRecord{
		{SearchName: "aspirin"},
		{SearchName: "glucose"},
	}

	out := a.Annotate(context.Background(), records)
	if out[0].CID != "cached-2244" {
		t.Errorf("expected cached CID, got %q", out[0].CID)
	}
	if resolver.resolveCount() != 1 {
		t.Errorf("expected only the uncached name to hit the resolver, got %d calls", resolver.resolveCount())
	}

	// The fresh lookup lands in the cache
	rec, found, err := st.GetCachedRecord(context.Background(), "glucose")
	if err != nil {
		t.Fatalf("GetCachedRecord failed: %v", err)
	}
	if !found || rec.CID != "5793" {
		t.Errorf("expected glucose cached with CID 5793, got %q (found=%v)", rec.CID, found)
	}
}

func TestAnnotator_Annotate_FuzzyCacheFallback(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	err = st.SaveToCache(context.Background(), "acetylsalicylic acid", internal.CompoundRecord{CID: "2244"})
	if err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}

	resolver := &fakeResolver{cids: map[string]string{}}
	a := New(resolver, st, 1)
	a.SetFuzzyThreshold(0.9)

	// Trailing dot, one edit away from the cached name.
	records := []*record.NormalizationRecord{{SearchName: "acetylsalicylic acid."}}

	out := a.Annotate(context.Background(), records)
	if out[0].CID != "2244" {
		t.Errorf("expected fuzzy cache hit with CID 2244, got %q", out[0].CID)
	}
	if resolver.resolveCount() != 0 {
		t.Errorf("expected no resolver calls, got %d", resolver.resolveCount())
	}

	// The near-miss name itself is not re-keyed into the cache.
	_, found, err := st.GetCachedRecord(context.Background(), "acetylsalicylic acid.")
	if err != nil {
		t.Fatalf("GetCachedRecord failed: %v", err)
	}
	if found {
		t.Error("fuzzy hit should not create a new cache entry")
	}
}

func TestAnnotator_Annotate_EmptySearchNameSkipped(t *testing.T) {
	resolver := &fakeResolver{cids: map[string]string{}}
	a := New(resolver, nil, 1)

	records := []*record.NormalizationRecord{{SearchName: ""}}

	out := a.Annotate(context.Background(), records)
	if resolver.resolveCount() != 0 {
		t.Errorf("expected no resolver calls, got %d", resolver.resolveCount())
	}
	if out[0] != (internal.CompoundRecord{}) {
		t.Errorf("expected empty record, got %+v", out[0])
	}
}

func TestNew_DefaultWorkers(t *testing.T) {
	a := New(&fakeResolver{}, nil, 0)
	if a.workers != defaultWorkers {
		t.Errorf("expected %d workers, got %d", defaultWorkers, a.workers)
	}
}
