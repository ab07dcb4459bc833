// Package pubchem is a client for the PubChem PUG REST API: compound name
// to CID resolution, property retrieval and synonym listing. Lookups that
// cannot produce a single numeric CID resolve to a sentinel string value
// instead of an error, so batch callers can record the outcome per row.
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public PUG REST root.
const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

// Sentinel CID values.
const (
	CIDTooShort = "compound name is too short"
	CIDUnknown  = "unknown"
	CIDMultiple = "multiply"
)

// minNameLength is the shortest name worth sending to PubChem; anything
// shorter matches thousands of unrelated compounds.
const minNameLength = 5

// retryBaseDelay is the first wait between attempts; it doubles each retry.
const retryBaseDelay = 500 * time.Millisecond

type Config struct {
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts" json:"max_attempts"`
}

// DefaultConfig returns the production endpoint configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
	}
}

// Properties is the property block PubChem returns for one CID. Values are
// kept as strings; MolecularWeight arrives as either a JSON number or a
// quoted string depending on the API version.
type Properties struct {
	CanonicalSMILES  string `json:"canonical_smiles"`
	InChI            string `json:"inchi"`
	InChIKey         string `json:"inchi_key"`
	MolecularFormula string `json:"molecular_formula"`
	MolecularWeight  string `json:"molecular_weight"`
	IUPACName        string `json:"iupac_name"`
}

// Resolver is the lookup surface the annotator depends on. Tests and
// offline runs substitute fakes.
type Resolver interface {
	ResolveCID(ctx context.Context, name string) (string, bool, error)
	Properties(ctx context.Context, cid string) (Properties, error)
	Synonyms(ctx context.Context, cid string) (string, error)
}

type Client struct {
	config     Config
	client     *http.Client
	retryDelay time.Duration
}

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	return &Client{
		config:     config,
		client:     &http.Client{Timeout: config.Timeout},
		retryDelay: retryBaseDelay,
	}
}

// IsSentinel reports whether cid is a sentinel lookup outcome rather than
// a numeric compound ID.
func IsSentinel(cid string) bool {
	if cid == "" {
		return true
	}
	for _, r := range cid {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

// ResolveCID resolves a compound name to a single numeric CID. The boolean
// reports whether the returned value is numeric; sentinel outcomes come
// back false with a nil error. An exact-name match is attempted first,
// then the unconstrained lookup, which also accepts registered synonyms.
func (c *Client) ResolveCID(ctx context.Context, name string) (string, bool, error) {
	if len(name) < minNameLength {
		return CIDTooShort, false, nil
	}

	base := fmt.Sprintf("%s/compound/name/%s/cids/TXT", c.config.BaseURL, url.PathEscape(name))

	status, body, err := c.doGet(ctx, base+"?name_type=exact")
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %q: %w", name, err)
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		status, body, err = c.doGet(ctx, base)
		if err != nil {
			return "", false, fmt.Errorf("failed to resolve %q: %w", name, err)
		}
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return CIDUnknown, false, nil
	}
	if status != http.StatusOK {
		return "", false, fmt.Errorf("failed to resolve %q: status %d", name, status)
	}

	var cids []string
	for _, line := range strings.Split(string(body), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cids = append(cids, line)
		}
	}
	switch {
	case len(cids) == 0:
		return CIDUnknown, false, nil
	case len(cids) > 1:
		return CIDMultiple, false, nil
	}
	return cids[0], true, nil
}

// Properties fetches the standard property set for a CID. A 400/404
// response yields the zero value without an error.
func (c *Client) Properties(ctx context.Context, cid string) (Properties, error) {
	var props Properties

	endpoint := fmt.Sprintf(
		"%s/compound/cid/%s/property/CanonicalSMILES,InChI,InChIKey,MolecularFormula,MolecularWeight,IUPACName/JSON",
		c.config.BaseURL, url.PathEscape(cid))
	status, body, err := c.doGet(ctx, endpoint)
	if err != nil {
		return props, fmt.Errorf("failed to fetch properties for CID %s: %w", cid, err)
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return props, nil
	}
	if status != http.StatusOK {
		return props, fmt.Errorf("failed to fetch properties for CID %s: status %d", cid, status)
	}

	var payload struct {
		PropertyTable struct {
			Properties []map[string]any `json:"Properties"`
		} `json:"PropertyTable"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return props, fmt.Errorf("failed to decode properties for CID %s: %w", cid, err)
	}
	if len(payload.PropertyTable.Properties) == 0 {
		return props, nil
	}

	item := payload.PropertyTable.Properties[0]
	props.CanonicalSMILES = fieldString(item, "CanonicalSMILES")
	props.InChI = fieldString(item, "InChI")
	props.InChIKey = fieldString(item, "InChIKey")
	props.MolecularFormula = fieldString(item, "MolecularFormula")
	props.MolecularWeight = fieldString(item, "MolecularWeight")
	props.IUPACName = fieldString(item, "IUPACName")
	return props, nil
}

// Synonyms fetches the synonym list for a CID, joined with "|". A 400/404
// response yields an empty string without an error.
func (c *Client) Synonyms(ctx context.Context, cid string) (string, error) {
	endpoint := fmt.Sprintf("%s/compound/cid/%s/synonyms/JSON", c.config.BaseURL, url.PathEscape(cid))
	status, body, err := c.doGet(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to fetch synonyms for CID %s: %w", cid, err)
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return "", nil
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("failed to fetch synonyms for CID %s: status %d", cid, status)
	}

	var payload struct {
		InformationList struct {
			Information []struct {
				Synonym []string `json:"Synonym"`
			} `json:"Information"`
		} `json:"InformationList"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode synonyms for CID %s: %w", cid, err)
	}
	if len(payload.InformationList.Information) == 0 {
		return "", nil
	}
	return strings.Join(payload.InformationList.Information[0].Synonym, "|"), nil
}

// doGet issues a GET with retry on 429 and 5xx responses and on transport
// errors. The response body is fully read so retries reuse the connection.
func (c *Client) doGet(ctx context.Context, rawURL string) (int, []byte, error) {
	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			continue
		}
		return resp.StatusCode, body, nil
	}
	return 0, nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

func fieldString(item map[string]any, key string) string {
	v, ok := item[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
