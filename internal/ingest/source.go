// Package ingest holds the source adapters and the collector that runs
// them concurrently for one report.
package ingest

import (
	"context"
	"errors"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// ErrSourceUnavailable wraps every adapter failure seen by the collector.
var ErrSourceUnavailable = errors.New("source unavailable")

// Source fetches the raw rows of one upstream table.
type Source interface {
	Name() string
	Kind() models.Kind
	Fetch(ctx context.Context, filter models.Filter) ([]models.RawRecord, error)
}

func stamp(name string, rows []models.RawRecord) []models.RawRecord {
	for i, r := range rows {
		rows[i] = r.WithOrigin(name)
	}
	return rows
}
