package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
)

// maxListedFailures bounds the failure section so a badly broken crawl does
// not produce an endless report.
const maxListedFailures = 25

// Summary is the crawl state a report renders.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time

	// DatabasePath is the page store the summary describes.
	DatabasePath string

	// Counts holds the number of pages per lifecycle status.
	Counts map[model.PageStatus]int

	// Failures holds the failed pages, up to maxListedFailures.
	Failures []model.Page

	// Rules describes the loaded rule modules.
	Rules []rule.ModuleInfo
}

// TotalPages returns the number of pages across all statuses.
func (s *Summary) TotalPages() int {
	var total int
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// BuildSummary collects the report data from the store.
func BuildSummary(ctx context.Context, s *store.Store, rules []rule.ModuleInfo) (*Summary, error) {
	counts, err := s.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	failed, err := s.List(ctx, store.Filter{Status: model.StatusFailed})
	if err != nil {
		return nil, err
	}
	if len(failed) > maxListedFailures {
		failed = failed[:maxListedFailures]
	}

	return &Summary{
		GeneratedAt:  time.Now(),
		DatabasePath: s.Path(),
		Counts:       counts,
		Failures:     failed,
		Rules:        rules,
	}, nil
}

// Writer renders summaries as markdown.
type Writer struct {
	output io.Writer
}

// NewWriter creates a Writer that renders to output.
func NewWriter(output io.Writer) *Writer {
	return &Writer{output: output}
}

// Write renders the summary.
func (w *Writer) Write(sum *Summary) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Status Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Database", "`" + sum.DatabasePath + "`"},
			{"Generated", sum.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Total Pages", strconv.Itoa(sum.TotalPages())},
		},
	})
	md.PlainText("")

	w.writeStatusSection(md, sum)
	w.writeRulesSection(md, sum)
	w.writeFailureSection(md, sum)

	return md.Build()
}

// writeStatusSection renders the per-status counts with a pie chart.
func (w *Writer) writeStatusSection(md *markdown.Markdown, sum *Summary) {
	md.H2("Pages by Status")
	md.PlainText("")

	statuses := []model.PageStatus{
		model.StatusNew,
		model.StatusDownloading,
		model.StatusDownloaded,
		model.StatusFailed,
	}

	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		rows = append(rows, []string{status.String(), strconv.Itoa(sum.Counts[status])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if sum.TotalPages() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Page Status Distribution"),
			piechart.WithShowData(true),
		)
		for _, status := range statuses {
			if n := sum.Counts[status]; n > 0 {
				chart.LabelAndIntValue(status.String(), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case sum.Counts[model.StatusDownloading] > 0:
		md.Warningf(
			"%d page(s) are still leased. If no crawl is running, the next run will reclaim them.",
			sum.Counts[model.StatusDownloading],
		)
	case sum.Counts[model.StatusNew] > 0:
		md.Note(fmt.Sprintf("%d page(s) are pending. Run 'scuttle crawl' to fetch them.", sum.Counts[model.StatusNew]))
	default:
		md.Tip("The frontier is drained.")
	}
	md.PlainText("")
}

// writeRulesSection renders the loaded rule modules.
func (w *Writer) writeRulesSection(md *markdown.Markdown, sum *Summary) {
	md.H2("Rules")
	md.PlainText("")

	if len(sum.Rules) == 0 {
		md.PlainText("No rule files loaded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(sum.Rules))
	for _, mod := range sum.Rules {
		rows = append(rows, []string{
			"`" + mod.Name + "`",
			strconv.Itoa(int(mod.TypeID)),
			yesNo(mod.HasNavigate),
			yesNo(mod.HasParse),
			yesNo(mod.HasValidate),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Type", "Navigate", "Parse", "Validate"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailureSection renders failed pages with their reasons.
func (w *Writer) writeFailureSection(md *markdown.Markdown, sum *Summary) {
	md.H2("Failures")
	md.PlainText("")

	if len(sum.Failures) == 0 {
		md.PlainText("No failed pages.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(sum.Failures))
	for _, page := range sum.Failures {
		rows = append(rows, []string{
			strconv.FormatInt(page.ID, 10),
			page.URL,
			page.FailureReason,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "URL", "Reason"},
		Rows:   rows,
	})

	total := sum.Counts[model.StatusFailed]
	if total > len(sum.Failures) {
		md.PlainText("")
		md.PlainTextf("... and %d more. Use 'scuttle pages --status failed' for the full list.", total-len(sum.Failures))
	}
	md.PlainText("")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
