package pubchem

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_ResolveCID_SingleMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/compound/name/aspirin/cids/TXT") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("name_type") != "exact" {
			t.Errorf("expected exact lookup first, got query %q", r.URL.RawQuery)
		}
		fmt.Fprintln(w, "2244")
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "aspirin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected a numeric CID")
	}
	if cid != "2244" {
		t.Errorf("expected CID 2244, got %q", cid)
	}
}

func TestClient_ResolveCID_MultipleMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "123\n456\n789\n")
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "glucose")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected sentinel outcome")
	}
	if cid != CIDMultiple {
		t.Errorf("expected %q, got %q", CIDMultiple, cid)
	}
}

func TestClient_ResolveCID_Unknown(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "nosuchcompound")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected sentinel outcome")
	}
	if cid != CIDUnknown {
		t.Errorf("expected %q, got %q", CIDUnknown, cid)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected exact then plain lookup, got %d requests", got)
	}
}

func TestClient_ResolveCID_ExactFallback(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("name_type") == "exact" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, "702")
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "ethanol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected a numeric CID from the plain lookup")
	}
	if cid != "702" {
		t.Errorf("expected CID 702, got %q", cid)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestClient_ResolveCID_ShortName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("short names must not reach the API")
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "dmso")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected sentinel outcome")
	}
	if cid != CIDTooShort {
		t.Errorf("expected %q, got %q", CIDTooShort, cid)
	}
}

func TestClient_ResolveCID_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "\n")
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "aspirin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || cid != CIDUnknown {
		t.Errorf("expected %q, got %q (ok=%v)", CIDUnknown, cid, ok)
	}
}

func TestClient_ResolveCID_RetryOn5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "2244")
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	cid, ok, err := c.ResolveCID(context.Background(), "aspirin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || cid != "2244" {
		t.Errorf("expected CID 2244 after retries, got %q (ok=%v)", cid, ok)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_ResolveCID_ExhaustedRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 2},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	_, ok, err := c.ResolveCID(context.Background(), "aspirin")
	if err == nil {
		t.Error("expected error after exhausted retries")
	}
	if ok {
		t.Error("expected ok=false on error")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestClient_Properties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/compound/cid/2244/property/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"PropertyTable":{"Properties":[{
			"CID": 2244,
			"CanonicalSMILES": "CC(=O)OC1=CC=CC=C1C(=O)O",
			"InChI": "InChI=1S/C9H8O4/c1-6(10)13-8-5-3-2-4-7(8)9(11)12/h2-5H,1H3,(H,11,12)",
			"InChIKey": "BSYNRYMUTXBXSQ-UHFFFAOYSA-N",
			"MolecularFormula": "C9H8O4",
			"MolecularWeight": "180.16",
			"IUPACName": "2-acetyloxybenzoic acid"
		}]}}`)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	props, err := c.Properties(context.Background(), "2244")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if props.CanonicalSMILES != "CC(=O)OC1=CC=CC=C1C(=O)O" {
		t.Errorf("unexpected SMILES %q", props.CanonicalSMILES)
	}
	if props.InChIKey != "BSYNRYMUTXBXSQ-UHFFFAOYSA-N" {
		t.Errorf("unexpected InChIKey %q", props.InChIKey)
	}
	if props.MolecularFormula != "C9H8O4" {
		t.Errorf("unexpected formula %q", props.MolecularFormula)
	}
	if props.MolecularWeight != "180.16" {
		t.Errorf("unexpected weight %q", props.MolecularWeight)
	}
	if props.IUPACName != "2-acetyloxybenzoic acid" {
		t.Errorf("unexpected IUPAC name %q", props.IUPACName)
	}
}

func TestClient_Properties_NumericWeight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"PropertyTable":{"Properties":[{"CID":702,"MolecularWeight":46.07}]}}`)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	props, err := c.Properties(context.Background(), "702")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if props.MolecularWeight != "46.07" {
		t.Errorf("expected weight 46.07, got %q", props.MolecularWeight)
	}
}

func TestClient_Properties_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	props, err := c.Properties(context.Background(), "999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if props != (Properties{}) {
		t.Errorf("expected zero properties, got %+v", props)
	}
}

func TestClient_Synonyms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/compound/cid/2244/synonyms/JSON") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"InformationList":{"Information":[{
			"CID": 2244,
			"Synonym": ["aspirin", "acetylsalicylic acid", "2-acetyloxybenzoic acid"]
		}]}}`)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	synonyms, err := c.Synonyms(context.Background(), "2244")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "aspirin|acetylsalicylic acid|2-acetyloxybenzoic acid"
	if synonyms != want {
		t.Errorf("expected %q, got %q", want, synonyms)
	}
}

func TestClient_Synonyms_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := &Client{
		config:     Config{BaseURL: server.URL, MaxAttempts: 3},
		client:     server.Client(),
		retryDelay: time.Millisecond,
	}

	synonyms, err := c.Synonyms(context.Background(), "999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if synonyms != "" {
		t.Errorf("expected empty synonyms, got %q", synonyms)
	}
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		cid  string
		want bool
	}{
		{"2244", false},
		{"702", false},
		{CIDUnknown, true},
		{CIDMultiple, true},
		{CIDTooShort, true},
		{"", true},
		{"12x4", true},
	}

	for _, tt := range tests {
		if got := IsSentinel(tt.cid); got != tt.want {
			t.Errorf("IsSentinel(%q) = %v, want %v", tt.cid, got, tt.want)
		}
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	if c.config.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", c.config.BaseURL)
	}
	if c.config.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", c.config.MaxAttempts)
	}
	if c.client.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", c.client.Timeout)
	}
}
