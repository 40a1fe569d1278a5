package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	_ "github.com/snowflakedb/gosnowflake"

	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/normalize"
)

const (
	DriverPostgres  = "pgx"
	DriverSnowflake = "snowflake"
)

// Table maps a source kind onto a warehouse table. Dims are the grouping
// columns; when Sum is set the measures are summed over the date range.
type Table struct {
	Name     string
	Dims     []string
	Measures []string
	Date     string
	Sum      bool
}

var targetCols = []string{"target_acv", "target_mql", "target_sql", "target_sal", "target_sqo"}
var stageCols = []string{"actual_mql", "actual_sql", "actual_sal", "actual_sqo"}

// DefaultTables are the upstream tables, one per kind. Column names match
// the db tags of the row types.
var DefaultTables = map[models.Kind]Table{
	models.KindTargets: {
		Name: "sop_targets", Dims: []string{"product", "region", "funnel_type", "source"}, Measures: targetCols,
	},
	models.KindAuthoritativeTarget: {
		Name: "renewal_targets", Dims: []string{"product", "region", "category"}, Measures: targetCols,
	},
	models.KindRevenue: {
		Name: "won_opportunities", Dims: []string{"product", "region", "deal_type", "source"},
		Measures: []string{"deal_count", "total_acv"}, Date: "close_date", Sum: true,
	},
	models.KindFunnel: {
		Name: "daily_funnel", Dims: []string{"product", "region", "funnel_type", "source"},
		Measures: stageCols, Date: "snapshot_date", Sum: true,
	},
	models.KindDedupFunnel: {
		Name: "funnel_distinct", Dims: []string{"product", "region", "funnel_type", "source"}, Measures: stageCols,
	},
	models.KindUplift: {
		Name: "renewal_uplift", Dims: []string{"product", "region"}, Measures: []string{"uplift_acv"},
	},
	models.KindDeals: {
		Name: "deal_outcomes", Dims: []string{"product", "region", "deal_type"},
		Measures: []string{"won_count", "lost_count", "lost_acv", "pipeline_acv"}, Date: "close_date", Sum: true,
	},
}

// OpenWarehouse opens the warehouse with the pgx or snowflake driver.
func OpenWarehouse(driver, dsn string) (*sqlx.DB, error) {
	if driver != DriverPostgres && driver != DriverSnowflake {
		return nil, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	if driver == DriverSnowflake {
		// Snowflake devuelve los nombres de columna en mayúsculas.
		db.Mapper = reflectx.NewMapperTagFunc("db", strings.ToUpper, strings.ToUpper)
	}
	return db, nil
}

// WarehouseSource reads one kind from a SQL warehouse.
type WarehouseSource struct {
	db      *sqlx.DB
	kind    models.Kind
	table   Table
	schema  string
	timeout time.Duration
}

func NewWarehouseSource(db *sqlx.DB, kind models.Kind, schema string, timeout time.Duration) (*WarehouseSource, error) {
	t, ok := DefaultTables[kind]
	if !ok {
		return nil, fmt.Errorf("no warehouse table for kind %q", kind)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WarehouseSource{db: db, kind: kind, table: t, schema: schema, timeout: timeout}, nil
}

func (w *WarehouseSource) Name() string      { return "warehouse:" + string(w.kind) }
func (w *WarehouseSource) Kind() models.Kind { return w.kind }

func (w *WarehouseSource) from() string {
	if w.schema == "" {
		return w.table.Name
	}
	return w.schema + "." + w.table.Name
}

func (w *WarehouseSource) placeholder() sq.PlaceholderFormat {
	if w.db.DriverName() == DriverSnowflake {
		return sq.Question
	}
	return sq.Dollar
}

// Query builds the SELECT for filter. Allow-lists are pushed down as the
// raw labels that normalize to the allowed values.
func (w *WarehouseSource) Query(filter models.Filter) (string, []any, error) {
	t := w.table
	cols := slices.Clone(t.Dims)
	for _, m := range t.Measures {
		if t.Sum {
			m = fmt.Sprintf("SUM(%s) AS %s", m, m)
		}
		cols = append(cols, m)
	}
	q := sq.Select(cols...).From(w.from()).PlaceholderFormat(w.placeholder())
	if t.Date != "" {
		if !filter.StartDate.IsZero() {
			q = q.Where(sq.GtOrEq{t.Date: filter.StartDate.Time})
		}
		if !filter.EndDate.IsZero() {
			q = q.Where(sq.LtOrEq{t.Date: filter.EndDate.Time})
		}
	}
	if len(filter.Products) > 0 {
		var raw []string
		for _, p := range filter.Products {
			raw = append(raw, normalize.ProductAliases(p)...)
		}
		q = q.Where(sq.Eq{"UPPER(product)": raw})
	}
	if len(filter.Regions) > 0 {
		var raw []string
		for _, r := range filter.Regions {
			raw = append(raw, normalize.RegionAliases(r)...)
		}
		q = q.Where(sq.Eq{"UPPER(region)": raw})
	}
	if t.Sum {
		q = q.GroupBy(t.Dims...)
	}
	return q.OrderBy(t.Dims...).ToSql()
}

func (w *WarehouseSource) Fetch(ctx context.Context, filter models.Filter) ([]models.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	query, args, err := w.Query(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", w.kind, err)
	}
	var rows []models.RawRecord
	switch w.kind {
	case models.KindTargets:
		rows, err = selectAs[models.TargetRow](ctx, w.db, query, args)
	case models.KindAuthoritativeTarget:
		rows, err = selectAs[models.AuthoritativeTargetRow](ctx, w.db, query, args)
	case models.KindRevenue:
		rows, err = selectAs[models.RevenueRow](ctx, w.db, query, args)
	case models.KindFunnel:
		rows, err = selectAs[models.FunnelRow](ctx, w.db, query, args)
	case models.KindDedupFunnel:
		rows, err = selectAs[models.DedupFunnelRow](ctx, w.db, query, args)
	case models.KindUplift:
		rows, err = selectAs[models.UpliftRow](ctx, w.db, query, args)
	case models.KindDeals:
		rows, err = selectAs[models.DealRow](ctx, w.db, query, args)
	default:
		err = fmt.Errorf("unknown source kind %q", w.kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", w.kind, err)
	}
	return stamp(w.Name(), rows), nil
}

func selectAs[T models.RawRecord](ctx context.Context, db *sqlx.DB, query string, args []any) ([]models.RawRecord, error) {
	var rows []T
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]models.RawRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out, nil
}
