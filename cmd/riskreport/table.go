package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/AngelCh415/revops-risk/internal/models"
)

func ragString(r models.RAG) string {
	switch r {
	case models.RAGGreen:
		return color.GreenString(string(r))
	case models.RAGYellow:
		return color.YellowString(string(r))
	case models.RAGRed:
		return color.RedString(string(r))
	}
	return "-"
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) }
func pct(v float64) string   { return strconv.FormatFloat(v, 'f', 0, 64) + "%" }

func renderTable(w io.Writer, rep models.Report) {
	p := rep.Period
	fmt.Fprintf(w, "Risk report %s  profile=%s  %s..%s as of %s (%.1f%% of quarter)\n\n",
		rep.ReportID, rep.RiskProfile, p.QuarterStart, p.QuarterEnd, p.AsOf, p.QuarterPctComplete)

	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Product", "Region", "Category", "Q Target", "QTD Target", "QTD ACV", "Att", "Gap", "Coverage", "Win Rate", "RAG"})
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range rep.AttainmentDetail {
		t.Append([]string{
			string(r.Product), string(r.Region), string(r.Category),
			money(r.FullTargetACV), money(r.PeriodTargetACV), money(r.ActualACV),
			pct(r.AttainmentPct), money(r.GapACV),
			strconv.FormatFloat(r.Coverage, 'f', 2, 64) + "x",
			strconv.FormatFloat(r.WinRatePct, 'f', 1, 64) + "%",
			ragString(r.RAG),
		})
	}
	g := rep.GrandTotal
	t.SetFooter([]string{"", "", "Total", money(g.FullTargetACV), money(g.PeriodTargetACV), money(g.ActualACV),
		pct(g.AttainmentPct), money(g.GapACV), strconv.FormatFloat(g.Coverage, 'f', 2, 64) + "x",
		strconv.FormatFloat(g.WinRatePct, 'f', 1, 64) + "%", string(g.RAG)})
	t.Render()

	if len(rep.FunnelPacing) > 0 {
		fmt.Fprintln(w)
		ft := tablewriter.NewWriter(w)
		ft.SetHeader([]string{"Product", "Region", "Category", "Stage", "Actual", "QTD Target", "Pacing", "RAG", "TOF"})
		for _, f := range rep.FunnelPacing {
			tof := "-"
			if f.TOFScore != nil {
				tof = pct(*f.TOFScore)
			}
			for _, s := range f.Stages {
				if !s.Active {
					continue
				}
				rag := models.RAG("")
				if s.RAG != nil {
					rag = *s.RAG
				}
				ft.Append([]string{string(f.Product), string(f.Region), string(f.Category), s.Stage,
					money(s.Actual), money(s.PeriodTarget), pct(s.PacingPct), ragString(rag), tof})
			}
		}
		ft.Render()
	}

	c := rep.ExecutiveCounts
	fmt.Fprintf(w, "\nExceeding target: %d  At risk: %d  Needs attention: %d  Momentum: %d\n",
		c.AreasExceedingTarget, c.AreasAtRisk, c.AreasNeedingAttention, c.AreasWithMomentum)

	if len(rep.ActionItems) > 0 {
		fmt.Fprintln(w, "\nAction items:")
		for _, a := range rep.ActionItems {
			fmt.Fprintf(w, "  [%s/%s] %s %s %s: %s\n", a.Urgency, a.Severity, a.Product, a.Region, a.Category, a.Action)
		}
	}
	if dq := rep.DataQuality; len(dq.FailedSources) > 0 || len(dq.Unmapped) > 0 {
		fmt.Fprintln(w)
		for _, s := range dq.FailedSources {
			fmt.Fprintln(w, color.RedString("source unavailable: %s", s))
		}
		for _, u := range dq.Unmapped {
			fmt.Fprintln(w, color.YellowString("unmapped %s %q x%d", u.Field, u.Raw, u.Count))
		}
	}
}
