package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/revops-risk/internal/metrics"
	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/resolve"
)

// ReportConfig is the explicit configuration passed into every report
// generation.
type ReportConfig struct {
	QuarterStart    models.Date
	QuarterEnd      models.Date
	RiskProfile     string
	RiskProfiles    []string
	ProrateRenewals bool
	TopRiskLimit    int
	Precedence      []models.Category
	CarveOuts       []resolve.CarveOut
	FunnelProfiles  map[models.Product]metrics.Profile
}

func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		QuarterStart:   models.NewDate(2026, 1, 1),
		QuarterEnd:     models.NewDate(2026, 3, 31),
		RiskProfile:    "P75",
		RiskProfiles:   []string{"P50", "P75", "P90"},
		TopRiskLimit:   10,
		Precedence:     resolve.DefaultRules().Precedence,
		CarveOuts:      resolve.DefaultRules().CarveOuts,
		FunnelProfiles: metrics.DefaultProfiles(),
	}
}

func (c ReportConfig) Rules() resolve.Rules {
	return resolve.Rules{Precedence: c.Precedence, CarveOuts: c.CarveOuts}
}

func (c ReportConfig) Policy() metrics.Policy {
	return metrics.Policy{ProrateRenewals: c.ProrateRenewals}
}

// Profile returns the funnel profile of p, falling back to the POR shape.
func (c ReportConfig) Profile(p models.Product) metrics.Profile {
	if prof, ok := c.FunnelProfiles[p]; ok {
		return prof
	}
	return metrics.DefaultProfiles()[models.ProductPOR]
}

func (c ReportConfig) Validate() error {
	var errs []error
	if c.QuarterStart.IsZero() || c.QuarterEnd.IsZero() {
		errs = append(errs, errors.New("quarter bounds are required"))
	} else if c.QuarterEnd.Before(c.QuarterStart.Time) {
		errs = append(errs, fmt.Errorf("quarter_end %s before quarter_start %s", c.QuarterEnd, c.QuarterStart))
	}
	if len(c.RiskProfiles) > 0 && !slices.Contains(c.RiskProfiles, c.RiskProfile) {
		errs = append(errs, fmt.Errorf("risk_profile %q not in %v", c.RiskProfile, c.RiskProfiles))
	}
	if c.TopRiskLimit < 0 {
		errs = append(errs, fmt.Errorf("top_risk_limit must be >= 0, got %d", c.TopRiskLimit))
	}
	for _, co := range c.CarveOuts {
		if co.Child == co.Parent {
			errs = append(errs, fmt.Errorf("carve-out of %s from itself", co.Child))
		}
	}
	for _, p := range models.Products {
		prof, ok := c.FunnelProfiles[p]
		if !ok {
			errs = append(errs, fmt.Errorf("missing funnel profile for %s", p))
			continue
		}
		if err := prof.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("funnel profile %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Forma YAML del perfil de reporte.
type reportFile struct {
	QuarterStart    string                 `yaml:"quarter_start"`
	QuarterEnd      string                 `yaml:"quarter_end"`
	RiskProfile     string                 `yaml:"risk_profile"`
	RiskProfiles    []string               `yaml:"risk_profiles"`
	ProrateRenewals *bool                  `yaml:"prorate_renewals"`
	TopRiskLimit    *int                   `yaml:"top_risk_limit"`
	Precedence      []string               `yaml:"precedence"`
	CarveOuts       []carveOutFile         `yaml:"carve_outs"`
	FunnelProfiles  map[string]profileFile `yaml:"funnel_profiles"`
}

type carveOutFile struct {
	Child  string `yaml:"child"`
	Parent string `yaml:"parent"`
}

type profileFile struct {
	Weights   []float64 `yaml:"weights"`
	Excluded  []string  `yaml:"excluded"`
	LeadLabel string    `yaml:"lead_label"`
}

// LoadReportConfig reads a YAML profile over the defaults and validates it.
func LoadReportConfig(path string) (ReportConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ReportConfig{}, fmt.Errorf("read report profile: %w", err)
	}
	return ParseReportConfig(b)
}

func ParseReportConfig(b []byte) (ReportConfig, error) {
	var f reportFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return ReportConfig{}, fmt.Errorf("parse report profile: %w", err)
	}
	cfg, err := f.apply(DefaultReportConfig())
	if err != nil {
		return ReportConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ReportConfig{}, fmt.Errorf("invalid report profile: %w", err)
	}
	return cfg, nil
}

func (f reportFile) apply(cfg ReportConfig) (ReportConfig, error) {
	var err error
	if f.QuarterStart != "" {
		if cfg.QuarterStart, err = models.ParseDate(f.QuarterStart); err != nil {
			return cfg, fmt.Errorf("quarter_start: %w", err)
		}
	}
	if f.QuarterEnd != "" {
		if cfg.QuarterEnd, err = models.ParseDate(f.QuarterEnd); err != nil {
			return cfg, fmt.Errorf("quarter_end: %w", err)
		}
	}
	if f.RiskProfile != "" {
		cfg.RiskProfile = f.RiskProfile
	}
	if len(f.RiskProfiles) > 0 {
		cfg.RiskProfiles = f.RiskProfiles
	}
	if f.ProrateRenewals != nil {
		cfg.ProrateRenewals = *f.ProrateRenewals
	}
	if f.TopRiskLimit != nil {
		cfg.TopRiskLimit = *f.TopRiskLimit
	}
	if f.Precedence != nil {
		cfg.Precedence = nil
		for _, s := range f.Precedence {
			c, err := models.ParseCategory(s)
			if err != nil {
				return cfg, fmt.Errorf("precedence: %w", err)
			}
			cfg.Precedence = append(cfg.Precedence, c)
		}
	}
	if f.CarveOuts != nil {
		cfg.CarveOuts = nil
		for _, co := range f.CarveOuts {
			child, err := models.ParseCategory(co.Child)
			if err != nil {
				return cfg, fmt.Errorf("carve_outs: %w", err)
			}
			parent, err := models.ParseCategory(co.Parent)
			if err != nil {
				return cfg, fmt.Errorf("carve_outs: %w", err)
			}
			cfg.CarveOuts = append(cfg.CarveOuts, resolve.CarveOut{Child: child, Parent: parent})
		}
	}
	for name, pf := range f.FunnelProfiles {
		p, err := models.ParseProduct(name)
		if err != nil {
			return cfg, fmt.Errorf("funnel_profiles: %w", err)
		}
		prof, err := pf.profile()
		if err != nil {
			return cfg, fmt.Errorf("funnel_profiles %s: %w", p, err)
		}
		cfg.FunnelProfiles[p] = prof
	}
	return cfg, nil
}

func (pf profileFile) profile() (metrics.Profile, error) {
	var prof metrics.Profile
	if len(pf.Weights) != int(models.NumStages) {
		return prof, fmt.Errorf("want %d weights, got %d", models.NumStages, len(pf.Weights))
	}
	copy(prof.Weights[:], pf.Weights)
	for _, s := range pf.Excluded {
		st, err := models.ParseStage(s)
		if err != nil {
			return prof, err
		}
		prof.Excluded = append(prof.Excluded, st)
	}
	prof.LeadLabel = pf.LeadLabel
	return prof, nil
}
