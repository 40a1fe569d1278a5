package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AngelCh415/revops-risk/internal/config"
	"github.com/AngelCh415/revops-risk/internal/ingest"
	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/report"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a risk report",
		Example: "  riskreport generate --fixtures testdata/q1.json --end 2026-02-15\n" +
			"  riskreport generate --products R360 --regions EMEA,APAC --format json",
		RunE: runGenerate,
	}
	f := cmd.Flags()
	f.String("fixtures", "", "JSON fixture file keyed by source kind")
	f.String("profile", "", "report profile YAML (quarter bounds, funnel weights, rules)")
	f.String("start", "", "window start YYYY-MM-DD (default: quarter start)")
	f.String("end", "", "window end / as-of date YYYY-MM-DD (default: today)")
	f.StringSlice("products", nil, "product allow-list (POR, R360)")
	f.StringSlice("regions", nil, "region allow-list (AMER, EMEA, APAC)")
	f.String("risk-profile", "", "risk profile label (P50, P75, P90)")
	f.String("format", "table", "output format: table or json")
	for _, name := range []string{"fixtures", "profile", "start", "end", "products", "regions", "risk-profile", "format"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	format := viper.GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
	filter, err := filterFromFlags()
	if err != nil {
		return err
	}
	rcfg := config.DefaultReportConfig()
	if p := viper.GetString("profile"); p != "" {
		if rcfg, err = config.LoadReportConfig(p); err != nil {
			return err
		}
	}

	cfg := config.Load()
	if fx := viper.GetString("fixtures"); fx != "" {
		cfg.FixturesPath = fx
	}
	// los logs van a stderr para no mezclarse con el reporte
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	setup, err := ingest.Configure(cfg)
	if err != nil {
		return err
	}
	defer setup.Close()

	collector := ingest.NewCollector(setup.Sources, ingest.BreakerSettings{Failures: cfg.BreakerFailures, Timeout: cfg.BreakerTimeout}, log, nil)
	rep, err := report.NewEngine(collector, rcfg, log, nil).Generate(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), rep, format)
}

func filterFromFlags() (models.Filter, error) {
	var f models.Filter
	var err error
	if s := viper.GetString("start"); s != "" {
		if f.StartDate, err = models.ParseDate(s); err != nil {
			return f, fmt.Errorf("--start: %w", err)
		}
	}
	if s := viper.GetString("end"); s != "" {
		if f.EndDate, err = models.ParseDate(s); err != nil {
			return f, fmt.Errorf("--end: %w", err)
		}
	}
	for _, s := range splitList(viper.GetStringSlice("products")) {
		p, err := models.ParseProduct(s)
		if err != nil {
			return f, fmt.Errorf("--products: %w", err)
		}
		f.Products = append(f.Products, p)
	}
	for _, s := range splitList(viper.GetStringSlice("regions")) {
		r, err := models.ParseRegion(s)
		if err != nil {
			return f, fmt.Errorf("--regions: %w", err)
		}
		f.Regions = append(f.Regions, r)
	}
	f.RiskProfile = viper.GetString("risk-profile")
	return f, nil
}

// splitList acepta valores repetidos y también "A,B" desde el entorno.
func splitList(xs []string) []string {
	var out []string
	for _, x := range xs {
		for _, p := range strings.Split(x, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func render(w io.Writer, rep models.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		return enc.Encode(rep)
	}
	renderTable(w, rep)
	return nil
}
