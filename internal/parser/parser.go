package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
)

// Parser applies parse rules to downloaded pages.
type Parser struct {
	store *store.Store
}

// New creates a Parser backed by the given store.
func New(s *store.Store) *Parser {
	return &Parser{store: s}
}

// Parse runs the parse rule for the page on the given engine and replaces
// the page's records with the output. It returns the number of records
// written. Pages whose type has no parse rule are skipped with no error.
// When the rule fails, the page's existing records are left untouched.
func (p *Parser) Parse(ctx context.Context, engine *rule.Engine, page model.Page) (int, error) {
	if !engine.HasParse(page.TypeID) {
		return 0, nil
	}

	content, err := p.store.Content(ctx, page.ID)
	if err != nil {
		return 0, fmt.Errorf("load content for page %d: %w", page.ID, err)
	}

	kvs, err := engine.Parse(page.TypeID, content)
	if err != nil {
		return 0, err
	}

	if err := p.store.UpsertRecords(ctx, page.ID, kvs); err != nil {
		return 0, err
	}
	return len(kvs), nil
}

// ParseAll runs Parse over every downloaded page, one engine call at a
// time. Pages whose rule fails are reported in the returned error after
// the remaining pages have been processed.
func (p *Parser) ParseAll(ctx context.Context, engine *rule.Engine) (int, error) {
	pages, err := p.store.List(ctx, store.Filter{Status: model.StatusDownloaded})
	if err != nil {
		return 0, err
	}

	var total int
	var errs []error
	for _, page := range pages {
		written, err := p.Parse(ctx, engine, page)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", page.ID, err))
			continue
		}
		total += written
	}
	return total, errors.Join(errs...)
}
