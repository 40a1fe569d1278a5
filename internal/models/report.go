package models

import (
	"encoding/json"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct{ time.Time }

func NewDate(y int, m time.Month, d int) Date { return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)} }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	p, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// Filter is what every adapter receives and what the report echoes back.
type Filter struct {
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	Products    []Product `json:"products,omitempty"`
	Regions     []Region  `json:"regions,omitempty"`
	RiskProfile string    `json:"risk_profile,omitempty"`
}

// AllowsProduct reports whether p passes the product allow-list.
func (f Filter) AllowsProduct(p Product) bool {
	return len(f.Products) == 0 || indexOf(f.Products, p) < len(f.Products)
}

// AllowsRegion reports whether r passes the region allow-list.
func (f Filter) AllowsRegion(r Region) bool {
	return len(f.Regions) == 0 || indexOf(f.Regions, r) < len(f.Regions)
}

type RAG string

const (
	RAGGreen  RAG = "GREEN"
	RAGYellow RAG = "YELLOW"
	RAGRed    RAG = "RED"
)

type Period struct {
	QuarterStart       Date    `json:"quarter_start"`
	QuarterEnd         Date    `json:"quarter_end"`
	AsOf               Date    `json:"as_of"`
	DaysElapsed        int     `json:"days_elapsed"`
	TotalDays          int     `json:"total_days"`
	ElapsedFraction    float64 `json:"elapsed_fraction"`
	QuarterPctComplete float64 `json:"quarter_pct_complete"`
}

type AttainmentRow struct {
	Product         Product  `json:"product"`
	Region          Region   `json:"region"`
	Category        Category `json:"category"`
	Source          Source   `json:"source,omitempty"`
	FullTargetACV   float64  `json:"q1_target"`
	PeriodTargetACV float64  `json:"qtd_target"`
	ActualACV       float64  `json:"qtd_acv"`
	AttainmentPct   float64  `json:"qtd_attainment_pct"`
	GapACV          float64  `json:"qtd_gap"`
	Q1ProgressPct   float64  `json:"q1_progress_pct"`
	PipelineACV     float64  `json:"pipeline_acv"`
	Coverage        float64  `json:"pipeline_coverage_x"`
	WonDeals        float64  `json:"qtd_deals"`
	LostDeals       float64  `json:"qtd_lost_deals"`
	LostACV         float64  `json:"qtd_lost_acv"`
	WinRatePct      float64  `json:"win_rate_pct"`
	RAG             RAG      `json:"rag_status"`

	// Solo RENEWAL.
	UpliftACV            *float64 `json:"uplift_acv,omitempty"`
	ForecastACV          *float64 `json:"forecast_acv,omitempty"`
	LiteralAttainmentPct *float64 `json:"literal_attainment_pct,omitempty"`
	ForecastRAG          *RAG     `json:"forecast_rag,omitempty"`
}

func (r AttainmentRow) Key() DimensionKey {
	return DimensionKey{Product: r.Product, Region: r.Region, Category: r.Category}
}

type StagePacing struct {
	Stage        string  `json:"stage"`
	Actual       float64 `json:"actual"`
	FullTarget   float64 `json:"q1_target"`
	PeriodTarget float64 `json:"qtd_target"`
	PacingPct    float64 `json:"pacing_pct"`
	Gap          float64 `json:"gap"`
	Weight       float64 `json:"weight"`
	Active       bool    `json:"active"`
	RAG          *RAG    `json:"rag"`
}

type FunnelPacingRow struct {
	Product   Product       `json:"product"`
	Region    Region        `json:"region"`
	Category  Category      `json:"category"`
	Source    Source        `json:"source,omitempty"`
	LeadStage string        `json:"lead_stage_label"`
	Stages    []StagePacing `json:"stages"`
	TOFScore  *float64      `json:"tof_score"`
	TOFRAG    *RAG          `json:"tof_rag"`
}

func (r FunnelPacingRow) Key() DimensionKey {
	return DimensionKey{Product: r.Product, Region: r.Region, Category: r.Category}
}

// Stage returns the pacing entry for s, or nil when absent.
func (r FunnelPacingRow) Stage(s Stage) *StagePacing {
	if int(s) >= len(r.Stages) {
		return nil
	}
	return &r.Stages[s]
}

type PerformanceTier string

const (
	TierExceptional    PerformanceTier = "EXCEPTIONAL"
	TierOnTrack        PerformanceTier = "ON_TRACK"
	TierNeedsAttention PerformanceTier = "NEEDS_ATTENTION"
)

type WinBrightSpot struct {
	Product            Product         `json:"product"`
	Region             Region          `json:"region"`
	Category           Category        `json:"category"`
	AttainmentPct      float64         `json:"qtd_attainment_pct"`
	ActualACV          float64         `json:"qtd_acv"`
	PeriodTargetACV    float64         `json:"qtd_target"`
	Tier               PerformanceTier `json:"performance_tier"`
	Commentary         string          `json:"success_commentary"`
	ContributingFactor string          `json:"contributing_factor"`
}

type RiskPocket struct {
	Product         Product  `json:"product"`
	Region          Region   `json:"region"`
	Category        Category `json:"category"`
	AttainmentPct   float64  `json:"qtd_attainment_pct"`
	GapACV          float64  `json:"qtd_gap"`
	ActualACV       float64  `json:"qtd_acv"`
	PeriodTargetACV float64  `json:"qtd_target"`
	Coverage        float64  `json:"pipeline_coverage_x"`
	WinRatePct      float64  `json:"win_rate_pct"`
}

type MomentumTier string

const (
	MomentumStrong   MomentumTier = "STRONG_MOMENTUM"
	MomentumModerate MomentumTier = "MODERATE_MOMENTUM"
)

type MomentumIndicator struct {
	Product        Product      `json:"product"`
	Region         Region       `json:"region"`
	Category       Category     `json:"category"`
	AttainmentPct  float64      `json:"qtd_attainment_pct"`
	Coverage       float64      `json:"pipeline_coverage_x"`
	CoverageSignal bool         `json:"coverage_signal"`
	LeadSignal     bool         `json:"lead_signal"`
	GapToGreenACV  float64      `json:"gap_to_green"`
	Tier           MomentumTier `json:"momentum_tier"`
	Commentary     string       `json:"positive_momentum"`
}

type Urgency string

const (
	UrgencyImmediate Urgency = "IMMEDIATE"
	UrgencyShortTerm Urgency = "SHORT_TERM"
	UrgencyStrategic Urgency = "STRATEGIC"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

type ActionCategory string

const (
	ActionPipeline ActionCategory = "PIPELINE"
	ActionWinRate  ActionCategory = "WIN_RATE"
	ActionFunnel   ActionCategory = "FUNNEL"
	ActionLeadGen  ActionCategory = "LEAD_GEN"
)

type ActionItem struct {
	Product  Product        `json:"product"`
	Region   Region         `json:"region"`
	Category Category       `json:"category"`
	Urgency  Urgency        `json:"urgency"`
	Severity Severity       `json:"severity"`
	Area     ActionCategory `json:"action_category"`
	Issue    string         `json:"issue"`
	Action   string         `json:"action"`
	Metric   float64        `json:"metric"`
}

// Totals is a roll-up of attainment rows.
type Totals struct {
	Product         Product `json:"product,omitempty"`
	FullTargetACV   float64 `json:"total_q1_target"`
	PeriodTargetACV float64 `json:"total_qtd_target"`
	ActualACV       float64 `json:"total_qtd_acv"`
	AttainmentPct   float64 `json:"total_qtd_attainment_pct"`
	GapACV          float64 `json:"total_qtd_gap"`
	PipelineACV     float64 `json:"total_pipeline_acv"`
	Coverage        float64 `json:"total_pipeline_coverage_x"`
	WonDeals        float64 `json:"total_won_deals"`
	LostDeals       float64 `json:"total_lost_deals"`
	LostACV         float64 `json:"total_lost_acv"`
	WinRatePct      float64 `json:"total_win_rate_pct"`
	Q1ProgressPct   float64 `json:"total_q1_progress_pct"`
	RAG             RAG     `json:"rag_status"`
}

type ExecutiveCounts struct {
	AreasExceedingTarget  int `json:"areas_exceeding_target"`
	AreasAtRisk           int `json:"areas_at_risk"`
	AreasNeedingAttention int `json:"areas_needing_attention"`
	AreasWithMomentum     int `json:"areas_with_momentum"`
}

// Adjustment records one value changed by a reconciliation rule.
type Adjustment struct {
	Key    DimensionKey `json:"key"`
	Field  Field        `json:"field"`
	Rule   string       `json:"rule"`
	Before float64      `json:"before"`
	After  float64      `json:"after"`
}

type UnmappedValue struct {
	Field string `json:"field"`
	Raw   string `json:"raw_value"`
	Count int    `json:"count"`
}

type DataQuality struct {
	FailedSources []string        `json:"failed_sources"`
	Unmapped      []UnmappedValue `json:"unmapped_values"`
	Adjustments   []Adjustment    `json:"adjustments"`
}

type Report struct {
	ReportID         string              `json:"report_id"`
	GeneratedAtUTC   time.Time           `json:"generated_at_utc"`
	RiskProfile      string              `json:"risk_profile"`
	FiltersApplied   Filter              `json:"filters_applied"`
	Period           Period              `json:"period"`
	GrandTotal       Totals              `json:"grand_total"`
	ProductTotals    []Totals            `json:"product_totals"`
	AttainmentDetail []AttainmentRow     `json:"attainment_detail"`
	FunnelPacing     []FunnelPacingRow   `json:"funnel_pacing"`
	SourceAttainment []AttainmentRow     `json:"source_attainment"`
	FunnelBySource   []FunnelPacingRow   `json:"funnel_by_source"`
	Wins             []WinBrightSpot     `json:"wins_bright_spots"`
	RiskPockets      []RiskPocket        `json:"top_risk_pockets"`
	Momentum         []MomentumIndicator `json:"momentum_indicators"`
	ActionItems      []ActionItem        `json:"action_items"`
	ExecutiveCounts  ExecutiveCounts     `json:"executive_counts"`
	DataQuality      DataQuality         `json:"data_quality"`
}
