package report

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/reviewscan/internal/model"
)

// MarkdownWriter outputs run summaries as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOrganizations(md, summary)
	w.writeTasks(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.RunSummary) {
	md.H1("Reviewscan Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().Round(time.Second).String()},
			{"Queries", strconv.Itoa(len(s.Tasks))},
			{"Links", strconv.Itoa(s.TotalLinks)},
			{"Already visited", strconv.Itoa(s.TotalSkipped)},
			{"Locations", strconv.Itoa(s.TotalLocations)},
			{"Failed locations", strconv.Itoa(s.TotalFailures)},
			{"Rows", strconv.Itoa(s.TotalRows)},
		},
	})
	md.PlainText("")

	if s.ErrorMessage != "" {
		md.Cautionf("Run aborted: %s. Rows collected before the failure were kept.", s.ErrorMessage)
		md.PlainText("")
	}
}

// writeOrganizations charts the row count of each organization.
func (w *MarkdownWriter) writeOrganizations(md *markdown.Markdown, s *model.RunSummary) {
	if s.TotalRows == 0 {
		return
	}

	rows := make(map[string]int)
	for _, t := range s.Tasks {
		rows[t.Task.Organization] += t.Rows
	}
	orgs := make([]string, 0, len(rows))
	for org, n := range rows {
		if n > 0 {
			orgs = append(orgs, org)
		}
	}
	sort.Strings(orgs)

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Reviews per organization"),
		piechart.WithShowData(true),
	)
	for _, org := range orgs {
		chart.LabelAndIntValue(org, uint64(rows[org]))
	}

	md.H2("Organizations")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeTasks(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Queries")
	md.PlainText("")

	if len(s.Tasks) == 0 {
		md.PlainText("No query was run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		rows = append(rows, []string{
			t.Task.Organization,
			t.Task.City,
			strconv.Itoa(len(t.Links)),
			strconv.Itoa(t.Skipped),
			strconv.Itoa(len(t.Locations)),
			strconv.Itoa(t.Rows),
			taskStatus(t),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Organization", "City", "Links", "Skipped", "Locations", "Rows", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *model.RunSummary) {
	if s.TotalFailures == 0 {
		return
	}

	md.H2("Failed locations")
	md.PlainText("")

	rows := make([][]string, 0, s.TotalFailures)
	for _, t := range s.Tasks {
		for _, f := range t.Failures {
			rows = append(rows, []string{t.Task.Query(), truncateString(f.Link, 60), truncateString(f.Reason, 80)})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Query", "Link", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [reviewscan](https://github.com/nao1215/reviewscan)*")
}
