package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "scuttle.db"), store.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ok, err := s.Register(ctx, "https://example.test/", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	bad, err := s.Register(ctx, "https://example.test/broken", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Register(ctx, "https://example.test/pending", 1, 0); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ClaimPending(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitDownloaded(ctx, ok, "<html></html>", model.FetchMeta{HTTPStatus: 200}); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitFailed(ctx, bad, "http status 500"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBuildSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := seedStore(t)
	sum, err := BuildSummary(ctx, s, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if sum.TotalPages() != 3 {
		t.Errorf("total pages = %d, want 3", sum.TotalPages())
	}
	if sum.Counts[model.StatusDownloaded] != 1 {
		t.Errorf("downloaded = %d, want 1", sum.Counts[model.StatusDownloaded])
	}
	if len(sum.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(sum.Failures))
	}
	if sum.Failures[0].FailureReason != "http status 500" {
		t.Errorf("failure reason = %q", sum.Failures[0].FailureReason)
	}
	if sum.DatabasePath == "" {
		t.Error("database path is empty")
	}
}

func TestWriterWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := seedStore(t)
	rules := []rule.ModuleInfo{
		{Name: "rule_listing.js", TypeID: 1, HasNavigate: true},
		{Name: "rule_detail.js", TypeID: 2, HasParse: true},
	}

	sum, err := BuildSummary(ctx, s, rules)
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := NewWriter(&sb).Write(sum); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"# Crawl Status Report",
		"## Pages by Status",
		"## Rules",
		"rule_listing.js",
		"## Failures",
		"https://example.test/broken",
		"http status 500",
		"pie",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report misses %q", want)
		}
	}
}

func TestWriterWriteEmptyStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "scuttle.db"), store.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	sum, err := BuildSummary(ctx, s, nil)
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := NewWriter(&sb).Write(sum); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "No failed pages.") {
		t.Error("empty store report misses failure placeholder")
	}
	if !strings.Contains(out, "No rule files loaded.") {
		t.Error("empty store report misses rules placeholder")
	}
}
