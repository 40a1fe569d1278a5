package models

import "fmt"

// Stage is a top-of-funnel milestone.
type Stage int

const (
	StageMQL Stage = iota
	StageSQL
	StageSAL
	StageSQO
	NumStages
)

var Stages = []Stage{StageMQL, StageSQL, StageSAL, StageSQO}

func (s Stage) String() string {
	switch s {
	case StageMQL:
		return "MQL"
	case StageSQL:
		return "SQL"
	case StageSAL:
		return "SAL"
	case StageSQO:
		return "SQO"
	}
	return "UNKNOWN"
}

func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if st.String() == canon(s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// StageCounts holds one value per funnel stage.
type StageCounts [NumStages]float64

// Field addresses one numeric field of a MetricRecord so precedence and
// replacement rules can be applied field by field.
type Field int

const (
	FieldTargetACV Field = iota
	FieldTargetMQL
	FieldTargetSQL
	FieldTargetSAL
	FieldTargetSQO
	FieldActualACV
	FieldWonDeals
	FieldActualMQL
	FieldActualSQL
	FieldActualSAL
	FieldActualSQO
	NumFields
)

var fieldNames = [NumFields]string{
	"target_acv", "target_mql", "target_sql", "target_sal", "target_sqo",
	"actual_acv", "won_deals", "actual_mql", "actual_sql", "actual_sal", "actual_sqo",
}

func (f Field) String() string {
	if f < 0 || f >= NumFields {
		return "unknown"
	}
	return fieldNames[f]
}

// MarshalText lets Field be used in JSON output and as a map key.
func (f Field) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func TargetField(s Stage) Field { return FieldTargetMQL + Field(s) }
func ActualField(s Stage) Field { return FieldActualMQL + Field(s) }

// IsCount reports whether the field holds an entity count (vs currency).
func (f Field) IsCount() bool { return f != FieldTargetACV && f != FieldActualACV }

// FieldMask is a set of fields.
type FieldMask uint32

func (m FieldMask) Has(f Field) bool      { return m&(1<<uint(f)) != 0 }
func (m FieldMask) With(f Field) FieldMask { return m | 1<<uint(f) }

// MetricRecord is the canonical per-key record after reconciliation.
type MetricRecord struct {
	TargetACV       float64     `json:"target_acv"`
	PeriodTargetACV float64     `json:"period_target_acv"`
	ActualACV       float64     `json:"actual_acv"`
	WonDeals        float64     `json:"won_deals"`
	Target          StageCounts `json:"target"`
	PeriodTarget    StageCounts `json:"period_target"`
	Actual          StageCounts `json:"actual"`
}

func (r *MetricRecord) ptr(f Field) *float64 {
	switch {
	case f == FieldTargetACV:
		return &r.TargetACV
	case f >= FieldTargetMQL && f <= FieldTargetSQO:
		return &r.Target[f-FieldTargetMQL]
	case f == FieldActualACV:
		return &r.ActualACV
	case f == FieldWonDeals:
		return &r.WonDeals
	case f >= FieldActualMQL && f <= FieldActualSQO:
		return &r.Actual[f-FieldActualMQL]
	}
	return nil
}

func (r MetricRecord) Get(f Field) float64 {
	if p := r.ptr(f); p != nil {
		return *p
	}
	return 0
}

func (r *MetricRecord) Set(f Field, v float64) {
	if p := r.ptr(f); p != nil {
		*p = v
	}
}

// Add sums every additive field of o into r. Period targets are derived
// later and are not touched.
func (r *MetricRecord) Add(o MetricRecord) {
	for f := Field(0); f < NumFields; f++ {
		r.Set(f, r.Get(f)+o.Get(f))
	}
}

// IsZero reports whether no additive field carries a value.
func (r MetricRecord) IsZero() bool {
	for f := Field(0); f < NumFields; f++ {
		if r.Get(f) != 0 {
			return false
		}
	}
	return true
}

// FieldValues is a sparse set of field values, used by authoritative
// target rows and dedup overrides.
type FieldValues map[Field]float64

// OverrideRecord replaces (never adds to) the listed actual fields.
type OverrideRecord struct {
	Key    DimensionKey
	Values FieldValues
}

// UpliftAdjustment is expected renewal uplift; it only feeds the forecast.
type UpliftAdjustment struct {
	Key       UpliftKey
	UpliftACV float64
}

// DealAggregate carries segment-level won/lost/pipeline aggregates.
type DealAggregate struct {
	WonCount    float64 `json:"won_count"`
	LostCount   float64 `json:"lost_count"`
	LostACV     float64 `json:"lost_acv"`
	PipelineACV float64 `json:"pipeline_acv"`
}

func (d *DealAggregate) Add(o DealAggregate) {
	d.WonCount += o.WonCount
	d.LostCount += o.LostCount
	d.LostACV += o.LostACV
	d.PipelineACV += o.PipelineACV
}
