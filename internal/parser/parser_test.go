package parser

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
)

func setupParserTest(t *testing.T, ruleCode string) (*store.Store, *rule.Engine) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "scuttle.db"), store.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	engine, err := rule.NewEngine([]rule.Source{{Name: "rule_detail.js", Code: ruleCode}})
	if err != nil {
		t.Fatal(err)
	}
	return s, engine
}

func downloadPage(t *testing.T, s *store.Store, url string, typeID model.PageTypeID, content string) model.Page {
	t.Helper()
	ctx := context.Background()

	id, err := s.Register(ctx, url, typeID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimPending(ctx, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitDownloaded(ctx, id, content, model.FetchMeta{HTTPStatus: 200}); err != nil {
		t.Fatal(err)
	}
	page, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	return page
}

const detailRule = `
var TYPE_ID = 2;
function parse(content) {
	var m = /<h1>([^<]*)<\/h1>[\s\S]*<em>([^<]*)<\/em>/.exec(content);
	if (m === null) {
		throw new Error("no title");
	}
	return {title: m[1], price: m[2]};
}
`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("writes records in rule order", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		s, engine := setupParserTest(t, detailRule)
		page := downloadPage(t, s, "https://example.test/item/1", 2,
			"<h1>Widget</h1><p>desc</p><em>9.99</em>")

		written, err := New(s).Parse(ctx, engine, page)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if written != 2 {
			t.Errorf("written = %d, want 2", written)
		}

		got, err := s.Records(ctx, page.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := []model.KV{
			{Key: "title", Value: "Widget"},
			{Key: "price", Value: "9.99"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("records = %v, want %v", got, want)
		}
	})

	t.Run("re-parse replaces previous records", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		s, engine := setupParserTest(t, detailRule)
		page := downloadPage(t, s, "https://example.test/item/1", 2,
			"<h1>Widget</h1><em>9.99</em>")

		p := New(s)
		if _, err := p.Parse(ctx, engine, page); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Parse(ctx, engine, page); err != nil {
			t.Fatal(err)
		}

		got, err := s.Records(ctx, page.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("record count after re-parse = %d, want 2", len(got))
		}
	})

	t.Run("rule failure leaves prior records intact", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		s, engine := setupParserTest(t, detailRule)
		page := downloadPage(t, s, "https://example.test/item/1", 2,
			"<h1>Widget</h1><em>9.99</em>")

		p := New(s)
		if _, err := p.Parse(ctx, engine, page); err != nil {
			t.Fatal(err)
		}

		// Simulate a content change that breaks the rule.
		if err := s.Reset(ctx, page.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := s.ClaimPending(ctx, 100); err != nil {
			t.Fatal(err)
		}
		if err := s.CommitDownloaded(ctx, page.ID, "<p>redesigned</p>", model.FetchMeta{HTTPStatus: 200}); err != nil {
			t.Fatal(err)
		}
		refreshed, err := s.Get(ctx, page.ID)
		if err != nil {
			t.Fatal(err)
		}

		_, err = p.Parse(ctx, engine, refreshed)
		if !errors.Is(err, rule.ErrRuleExecution) {
			t.Fatalf("error = %v, want %v", err, rule.ErrRuleExecution)
		}

		got, err := s.Records(ctx, page.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("records after failed parse = %d, want prior 2", len(got))
		}
	})

	t.Run("type without parse rule is skipped", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		s, engine := setupParserTest(t, `
var TYPE_ID = 1;
function navigate(content) { return []; }
`)
		page := downloadPage(t, s, "https://example.test/", 1, "listing")

		written, err := New(s).Parse(ctx, engine, page)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if written != 0 {
			t.Errorf("written = %d, want 0", written)
		}
	})

	t.Run("ParseAll aggregates failures without stopping", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		s, engine := setupParserTest(t, detailRule)
		downloadPage(t, s, "https://example.test/item/1", 2, "<h1>A</h1><em>1</em>")
		downloadPage(t, s, "https://example.test/item/2", 2, "broken")
		downloadPage(t, s, "https://example.test/item/3", 2, "<h1>C</h1><em>3</em>")

		total, err := New(s).ParseAll(ctx, engine)
		if !errors.Is(err, rule.ErrRuleExecution) {
			t.Fatalf("error = %v, want %v", err, rule.ErrRuleExecution)
		}
		if total != 4 {
			t.Errorf("total records = %d, want 4", total)
		}
	})
}
