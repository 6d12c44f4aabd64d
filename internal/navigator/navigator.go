package navigator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
)

// Navigator discovers outgoing links from downloaded pages by running their
// navigate rules and persisting the normalized result.
type Navigator struct {
	store *store.Store
}

// New creates a Navigator backed by the given store.
func New(s *store.Store) *Navigator {
	return &Navigator{store: s}
}

// Navigate runs the navigate rule for the page on the given engine and
// inserts the discovered edges. It returns the number of edges (after
// normalization and dedup) handed to the store. Pages whose type has no
// navigate rule are skipped with no error. The source page's status is
// never touched.
func (n *Navigator) Navigate(ctx context.Context, engine *rule.Engine, page model.Page) (int, error) {
	if !engine.HasNavigate(page.TypeID) {
		return 0, nil
	}

	content, err := n.store.Content(ctx, page.ID)
	if err != nil {
		return 0, fmt.Errorf("load content for page %d: %w", page.ID, err)
	}

	edges, err := engine.Navigate(page.TypeID, content)
	if err != nil {
		return 0, err
	}

	edges = NormalizeEdges(page.URL, edges)
	if len(edges) == 0 {
		return 0, nil
	}
	if err := n.store.InsertLinks(ctx, page.ID, edges); err != nil {
		return 0, err
	}
	return len(edges), nil
}

// NavigateAll runs Navigate over every downloaded page, one engine call at a
// time. Pages whose rule fails are reported in the returned error after the
// remaining pages have been processed.
func (n *Navigator) NavigateAll(ctx context.Context, engine *rule.Engine) (int, error) {
	pages, err := n.store.List(ctx, store.Filter{Status: model.StatusDownloaded})
	if err != nil {
		return 0, err
	}

	var total int
	var errs []error
	for _, page := range pages {
		inserted, err := n.Navigate(ctx, engine, page)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", page.ID, err))
			continue
		}
		total += inserted
	}
	return total, errors.Join(errs...)
}

// NormalizeEdges canonicalizes edge URLs relative to the page they were
// found on and drops duplicates and unusable entries. Relative URLs are
// resolved against baseURL, fragments are stripped, scheme and host are
// lowercased, and an empty path becomes "/". Edges that do not parse or
// resolve to a non-http(s) scheme are discarded. Order of first appearance
// is preserved.
func NormalizeEdges(baseURL string, edges []model.Edge) []model.Edge {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	seen := make(map[model.Edge]bool, len(edges))
	normalized := make([]model.Edge, 0, len(edges))
	for _, edge := range edges {
		canonical, ok := normalizeURL(base, edge.URL)
		if !ok {
			continue
		}
		e := model.Edge{URL: canonical, TypeID: edge.TypeID}
		if seen[e] {
			continue
		}
		seen[e] = true
		normalized = append(normalized, e)
	}
	return normalized
}

// normalizeURL resolves raw against base and returns its canonical form.
//
// Fragments never change the fetched content, and an empty path is the same
// resource as "/", so both are collapsed here to keep the URL-keyed page
// table free of trivial aliases.
func normalizeURL(base *url.URL, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.String(), true
}
