package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestTruncateHandler(t *testing.T) {
	t.Parallel()

	// logJSON logs one record through a truncating JSON handler and
	// returns the decoded line.
	logJSON := func(t *testing.T, maxLen int, args ...any) map[string]any {
		t.Helper()

		var buf bytes.Buffer
		handler := NewTruncateHandler(slog.NewJSONHandler(&buf, nil), maxLen)
		slog.New(handler).Info("msg", args...)

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("log output is not JSON: %v", err)
		}
		return line
	}

	t.Run("short values pass through", func(t *testing.T) {
		t.Parallel()

		line := logJSON(t, 10, "url", "short")
		if line["url"] != "short" {
			t.Errorf("url = %v, want unchanged", line["url"])
		}
	})

	t.Run("oversized values are cut with a marker", func(t *testing.T) {
		t.Parallel()

		line := logJSON(t, 10, "body", strings.Repeat("x", 100))
		got, ok := line["body"].(string)
		if !ok {
			t.Fatalf("body = %v", line["body"])
		}
		if !strings.HasPrefix(got, strings.Repeat("x", 10)+"...") {
			t.Errorf("body = %q, want 10 chars plus marker", got)
		}
		if !strings.Contains(got, "90 bytes truncated") {
			t.Errorf("body = %q, want truncation count", got)
		}
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		t.Parallel()

		// 4 ASCII bytes then a 3-byte rune straddling the 6-byte limit.
		line := logJSON(t, 6, "title", "abcdああ")
		got, ok := line["title"].(string)
		if !ok {
			t.Fatalf("title = %v", line["title"])
		}
		if !strings.HasPrefix(got, "abcd...") {
			t.Errorf("title = %q, want cut before the split rune", got)
		}
	})

	t.Run("non-string values are untouched", func(t *testing.T) {
		t.Parallel()

		line := logJSON(t, 4, "page_id", 123456789)
		if line["page_id"] != float64(123456789) {
			t.Errorf("page_id = %v, want 123456789", line["page_id"])
		}
	})

	t.Run("group attributes are truncated recursively", func(t *testing.T) {
		t.Parallel()

		line := logJSON(t, 5, slog.Group("http", "body", "0123456789"))
		group, ok := line["http"].(map[string]any)
		if !ok {
			t.Fatalf("http group = %v", line["http"])
		}
		got, _ := group["body"].(string)
		if !strings.HasPrefix(got, "01234...") {
			t.Errorf("group body = %q, want truncated", got)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level hides debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Debug("hidden")
		logger.Info("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Error("debug message logged without verbose")
		}
		if !strings.Contains(out, "shown") {
			t.Error("info message missing")
		}
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewLogger(&buf, true).Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Error("debug message missing in verbose mode")
		}
	})
}
