package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"proposaland/internal/domain"
	"proposaland/internal/scoring"
)

var csvHeader = table.Row{
	"Rank", "Title", "Organization", "Location", "Source", "Reference", "Deadline",
	"Budget", "Currency", "Score", "Priority", "Keywords", "URL",
}

// CSV renders one row per scored opportunity.
func CSV(scored []domain.ScoredOpportunity) string {
	t := table.NewWriter()
	t.AppendHeader(csvHeader)
	for i, s := range scored {
		opp := s.Opportunity
		t.AppendRow(table.Row{
			i + 1, opp.Title, opp.Organization, opp.Location, opp.Source, opp.ReferenceNumber,
			deadline(opp), budget(opp), opp.Currency, fmt.Sprintf("%.3f", s.RelevanceScore),
			string(s.Priority), strings.Join(s.Keyword.Found, "; "), opp.SourceURL,
		})
	}
	return t.RenderCSV()
}

// RenderTable prints a terminal table of the scored batch.
func RenderTable(w io.Writer, scored []domain.ScoredOpportunity) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Organization", "Deadline", "Score", "Priority"})
	for i, s := range scored {
		t.AppendRow(table.Row{
			i + 1, truncate(s.Opportunity.Title, 60), s.Opportunity.Organization,
			deadline(s.Opportunity), fmt.Sprintf("%.3f", s.RelevanceScore), string(s.Priority),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d opportunities", len(scored))})
	t.Render()
}

// RenderSummary prints the batch report as two small tables.
func RenderSummary(w io.Writer, r scoring.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Summary")
	t.AppendRow(table.Row{"Total", r.Total})
	t.AppendRow(table.Row{"Degraded", r.Degraded})
	t.AppendRow(table.Row{"Average score", fmt.Sprintf("%.3f", r.AverageScore)})
	for _, p := range domain.Priorities {
		t.AppendRow(table.Row{string(p), r.PriorityDistribution[p]})
	}
	t.Render()

	c := table.NewWriter()
	c.SetOutputMirror(w)
	c.SetStyle(table.StyleLight)
	c.SetTitle("Component averages")
	for _, name := range domain.ComponentNames {
		c.AppendRow(table.Row{name, fmt.Sprintf("%.3f", r.ComponentAverages[name])})
	}
	c.Render()
}

func deadline(o domain.Opportunity) string {
	if o.Deadline == nil {
		return o.DeadlineText
	}
	return o.Deadline.Format("2006-01-02")
}

func budget(o domain.Opportunity) string {
	if o.Budget == nil {
		return ""
	}
	return fmt.Sprintf("%.0f", *o.Budget)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
