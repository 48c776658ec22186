package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentlens/agentlens"
	"github.com/agentlens/agentlens/document"
)

// maxDocumentBytes bounds how much of a response body is read. Manifests
// are small; anything larger is not a manifest.
const maxDocumentBytes = 4 << 20

// Result is a successfully resolved document.
type Result struct {
	// Document is the parsed manifest.
	Document document.Value

	// ResolvedLocation is the candidate URL that produced the document.
	ResolvedLocation string

	// Confirmed reports whether the document contained at least one
	// identity-confirming field. Unconfirmed documents are still returned;
	// the missing fields become compliance findings, not fetch failures.
	Confirmed bool

	// Header is the response header set of the resolved location, kept for
	// the transport header scan.
	Header http.Header

	// Authenticated reports whether authentication material was sent.
	Authenticated bool
}

// Options configures a Fetcher for one protocol's discovery conventions.
type Options struct {
	// WellKnownPath is the protocol's conventional document suffix,
	// e.g. ".well-known/agent.json".
	WellKnownPath string

	// ConfirmKeys is the small set of top-level fields whose presence
	// confirms the document's identity, e.g. {"ucp"} or {"name", "skills"}.
	ConfirmKeys []string

	// Timeout bounds each candidate request. Defaults to 10 seconds.
	Timeout time.Duration

	// Client overrides the HTTP client, used by tests. When nil a client
	// with the configured timeout is built.
	Client *http.Client
}

// Fetcher resolves a target identity to a parsed JSON document by trying
// an ordered list of candidate locations.
type Fetcher struct {
	wellKnown   string
	confirmKeys []string
	client      *http.Client
}

// NewFetcher builds a Fetcher for one protocol's discovery conventions.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{
		wellKnown:   strings.TrimPrefix(opts.WellKnownPath, "/"),
		confirmKeys: opts.ConfirmKeys,
		client:      client,
	}
}

// Candidates builds the ordered, de-duplicated candidate list for an
// identity:
//
//  1. the identity as given,
//  2. the identity's path with the well-known suffix appended, unless the
//     path already looks like a direct document reference,
//  3. the identity's origin root with the well-known suffix appended.
func (f *Fetcher) Candidates(identity string) ([]string, error) {
	u, err := url.Parse(identity)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, agentlens.NewValidationError("discovery.Candidates",
			fmt.Errorf("%w: %q is not an absolute http(s) URL", agentlens.ErrInvalidTarget, identity))
	}

	var candidates []string
	add := func(c string) {
		for _, existing := range candidates {
			if existing == c {
				return
			}
		}
		candidates = append(candidates, c)
	}

	add(identity)

	if f.wellKnown != "" {
		if !strings.HasSuffix(u.Path, ".json") {
			withPath := *u
			withPath.Path = strings.TrimSuffix(u.Path, "/") + "/" + f.wellKnown
			withPath.RawQuery = ""
			withPath.Fragment = ""
			add(withPath.String())
		}

		origin := *u
		origin.Path = "/" + f.wellKnown
		origin.RawQuery = ""
		origin.Fragment = ""
		add(origin.String())
	}

	return candidates, nil
}

// Fetch resolves the identity to a document.
//
// Candidates are tried strictly in order. The first candidate whose body
// parses as JSON and contains an identity-confirming field wins and no
// further candidates are tried. A parseable candidate without confirming
// fields is returned as a best-effort result. Transport errors, non-2xx
// statuses, unparseable bodies, and HTML login pages are recorded as
// attempt failures and the next candidate is tried. When every candidate
// fails, the returned error is a *DiscoveryError carrying the full
// attempt log.
func (f *Fetcher) Fetch(ctx context.Context, identity string, cred Credential) (*Result, error) {
	candidates, err := f.Candidates(identity)
	if err != nil {
		return nil, err
	}

	discErr := &DiscoveryError{Subject: identity}

	for _, candidate := range candidates {
		res, reason := f.tryCandidate(ctx, candidate, cred)
		if res == nil {
			discErr.Attempts = append(discErr.Attempts, Attempt{Location: candidate, Reason: reason})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return res, nil
	}

	return nil, discErr
}

// tryCandidate issues one read request and classifies the response.
// A nil result means the candidate failed for the returned reason.
func (f *Fetcher) tryCandidate(ctx context.Context, candidate string, cred Credential) (*Result, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return nil, fmt.Sprintf("building request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", agentlens.UserAgent)
	if err := cred.Apply(req.Header); err != nil {
		return nil, fmt.Sprintf("applying credentials: %v", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Sprintf("reading body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	doc, err := document.Parse(body)
	if err != nil {
		return nil, fmt.Sprintf("not parseable as JSON: %v", err)
	}

	confirmed := f.confirms(doc)

	// A JSON-shaped body served as HTML with none of the expected fields
	// is almost always a rewritten login or error page, not a manifest.
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") && !confirmed {
		return nil, fmt.Sprintf("HTML content type %q with no identity-confirming field", contentType)
	}

	return &Result{
		Document:         doc,
		ResolvedLocation: candidate,
		Confirmed:        confirmed,
		Header:           resp.Header,
		Authenticated:    !cred.IsZero(),
	}, ""
}

func (f *Fetcher) confirms(doc document.Value) bool {
	for _, key := range f.confirmKeys {
		if doc.Exists(key) {
			return true
		}
	}
	return false
}
