package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which upstream table a raw record comes from.
type Kind string

const (
	KindTargets             Kind = "targets"
	KindAuthoritativeTarget Kind = "authoritative_targets"
	KindRevenue             Kind = "revenue_actuals"
	KindFunnel              Kind = "funnel_actuals"
	KindDedupFunnel         Kind = "funnel_dedup"
	KindUplift              Kind = "renewal_uplift"
	KindDeals               Kind = "deal_aggregates"
)

var Kinds = []Kind{KindTargets, KindAuthoritativeTarget, KindRevenue, KindFunnel, KindDedupFunnel, KindUplift, KindDeals}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

// Flex is a loosely typed scalar as delivered by an upstream source. It
// keeps the raw text; the normalizer decides how to read it.
type Flex struct {
	Raw   string
	Valid bool
}

func F(v float64) Flex { return Flex{Raw: strconv.FormatFloat(v, 'f', -1, 64), Valid: true} }

func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = Flex{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex{Raw: s, Valid: true}
		return nil
	}
	*f = Flex{Raw: string(b), Valid: true}
	return nil
}

func (f Flex) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Raw)
}

// Scan implements sql.Scanner for any driver value.
func (f *Flex) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Flex{}
	case []byte:
		*f = Flex{Raw: string(v), Valid: true}
	case string:
		*f = Flex{Raw: v, Valid: true}
	case int64:
		*f = Flex{Raw: strconv.FormatInt(v, 10), Valid: true}
	case float64:
		*f = F(v)
	case bool:
		*f = Flex{Raw: strconv.FormatBool(v), Valid: true}
	case time.Time:
		*f = Flex{Raw: v.Format(time.RFC3339), Valid: true}
	default:
		*f = Flex{Raw: fmt.Sprint(v), Valid: true}
	}
	return nil
}

func (f Flex) Value() (driver.Value, error) {
	if !f.Valid {
		return nil, nil
	}
	return f.Raw, nil
}

// RawRecord is the closed set of row shapes the adapters produce. Each
// shape is normalized at the boundary; nothing downstream sees raw rows.
type RawRecord interface {
	Kind() Kind
	Origin() string
	WithOrigin(string) RawRecord
	sealed()
}

type origin struct {
	From string `json:"-" db:"-"`
}

func (o origin) Origin() string { return o.From }
func (origin) sealed()           {}

// TargetRow is a full-period plan row from the pre-aggregated target table.
type TargetRow struct {
	origin
	Product    string `json:"product" db:"product"`
	Region     string `json:"region" db:"region"`
	FunnelType string `json:"funnel_type" db:"funnel_type"`
	Source     string `json:"source" db:"source"`
	TargetACV  Flex   `json:"target_acv" db:"target_acv"`
	TargetMQL  Flex   `json:"target_mql" db:"target_mql"`
	TargetSQL  Flex   `json:"target_sql" db:"target_sql"`
	TargetSAL  Flex   `json:"target_sal" db:"target_sal"`
	TargetSQO  Flex   `json:"target_sqo" db:"target_sqo"`
}

// AuthoritativeTargetRow comes from the table that owns targets for the
// precedence categories. Null columns are left untouched.
type AuthoritativeTargetRow struct {
	origin
	Product   string `json:"product" db:"product"`
	Region    string `json:"region" db:"region"`
	Category  string `json:"category" db:"category"`
	TargetACV Flex   `json:"target_acv" db:"target_acv"`
	TargetMQL Flex   `json:"target_mql" db:"target_mql"`
	TargetSQL Flex   `json:"target_sql" db:"target_sql"`
	TargetSAL Flex   `json:"target_sal" db:"target_sal"`
	TargetSQO Flex   `json:"target_sqo" db:"target_sqo"`
}

// RevenueRow is a closed-won aggregate from the opportunity table.
type RevenueRow struct {
	origin
	Product   string `json:"product" db:"product"`
	Region    string `json:"region" db:"region"`
	DealType  string `json:"deal_type" db:"deal_type"`
	Source    string `json:"source" db:"source"`
	DealCount Flex   `json:"deal_count" db:"deal_count"`
	TotalACV  Flex   `json:"total_acv" db:"total_acv"`
}

// FunnelRow carries stage counts summed from daily snapshots.
type FunnelRow struct {
	origin
	Product    string `json:"product" db:"product"`
	Region     string `json:"region" db:"region"`
	FunnelType string `json:"funnel_type" db:"funnel_type"`
	Source     string `json:"source" db:"source"`
	MQL        Flex   `json:"actual_mql" db:"actual_mql"`
	SQL        Flex   `json:"actual_sql" db:"actual_sql"`
	SAL        Flex   `json:"actual_sal" db:"actual_sal"`
	SQO        Flex   `json:"actual_sqo" db:"actual_sqo"`
}

// DedupFunnelRow carries distinct-entity stage counts. A null column means
// "no override" for that stage.
type DedupFunnelRow struct {
	origin
	Product    string `json:"product" db:"product"`
	Region     string `json:"region" db:"region"`
	FunnelType string `json:"funnel_type" db:"funnel_type"`
	Source     string `json:"source" db:"source"`
	MQL        Flex   `json:"actual_mql" db:"actual_mql"`
	SQL        Flex   `json:"actual_sql" db:"actual_sql"`
	SAL        Flex   `json:"actual_sal" db:"actual_sal"`
	SQO        Flex   `json:"actual_sqo" db:"actual_sqo"`
}

// UpliftRow is expected renewal uplift per product and region.
type UpliftRow struct {
	origin
	Product   string `json:"product" db:"product"`
	Region    string `json:"region" db:"region"`
	UpliftACV Flex   `json:"uplift_acv" db:"uplift_acv"`
}

// DealRow carries won/lost/pipeline aggregates for a segment.
type DealRow struct {
	origin
	Product     string `json:"product" db:"product"`
	Region      string `json:"region" db:"region"`
	DealType    string `json:"deal_type" db:"deal_type"`
	WonCount    Flex   `json:"won_count" db:"won_count"`
	LostCount   Flex   `json:"lost_count" db:"lost_count"`
	LostACV     Flex   `json:"lost_acv" db:"lost_acv"`
	PipelineACV Flex   `json:"pipeline_acv" db:"pipeline_acv"`
}

func (TargetRow) Kind() Kind              { return KindTargets }
func (AuthoritativeTargetRow) Kind() Kind { return KindAuthoritativeTarget }
func (RevenueRow) Kind() Kind             { return KindRevenue }
func (FunnelRow) Kind() Kind              { return KindFunnel }
func (DedupFunnelRow) Kind() Kind         { return KindDedupFunnel }
func (UpliftRow) Kind() Kind              { return KindUplift }
func (DealRow) Kind() Kind                { return KindDeals }

func (r TargetRow) WithOrigin(o string) RawRecord              { r.From = o; return r }
func (r AuthoritativeTargetRow) WithOrigin(o string) RawRecord { r.From = o; return r }
func (r RevenueRow) WithOrigin(o string) RawRecord             { r.From = o; return r }
func (r FunnelRow) WithOrigin(o string) RawRecord              { r.From = o; return r }
func (r DedupFunnelRow) WithOrigin(o string) RawRecord         { r.From = o; return r }
func (r UpliftRow) WithOrigin(o string) RawRecord              { r.From = o; return r }
func (r DealRow) WithOrigin(o string) RawRecord                { r.From = o; return r }

// DecodeRows decodes a JSON array into the typed rows of kind k.
func DecodeRows(k Kind, b []byte) ([]RawRecord, error) {
	switch k {
	case KindTargets:
		return decodeAs[TargetRow](b)
	case KindAuthoritativeTarget:
		return decodeAs[AuthoritativeTargetRow](b)
	case KindRevenue:
		return decodeAs[RevenueRow](b)
	case KindFunnel:
		return decodeAs[FunnelRow](b)
	case KindDedupFunnel:
		return decodeAs[DedupFunnelRow](b)
	case KindUplift:
		return decodeAs[UpliftRow](b)
	case KindDeals:
		return decodeAs[DealRow](b)
	}
	return nil, fmt.Errorf("unknown source kind %q", k)
}

func decodeAs[T RawRecord](b []byte) ([]RawRecord, error) {
	var rows []T
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	out := make([]RawRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out, nil
}
