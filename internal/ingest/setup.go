package ingest

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AngelCh415/revops-risk/internal/config"
	"github.com/AngelCh415/revops-risk/internal/models"
)

// Setup is the set of adapters configured for a process.
type Setup struct {
	Sources []Source
	DB      *sqlx.DB
}

// Configure builds adapters from cfg: one HTTP source per configured URL,
// one warehouse source per kind when a DSN is set and the fixture sources
// when a fixtures file is given.
func Configure(cfg config.Config) (Setup, error) {
	var s Setup
	c := NewHTTPClient(cfg.HTTPTimeout)
	for _, k := range models.Kinds {
		if u, ok := cfg.SourceURLs[k]; ok {
			s.Sources = append(s.Sources, NewHTTPSource(k, u, c))
		}
	}
	if cfg.WarehouseDSN != "" {
		db, err := OpenWarehouse(cfg.WarehouseDriver, cfg.WarehouseDSN)
		if err != nil {
			return s, err
		}
		s.DB = db
		for _, k := range models.Kinds {
			ws, err := NewWarehouseSource(db, k, cfg.WarehouseSchema, cfg.HTTPTimeout)
			if err != nil {
				s.Close()
				return Setup{}, err
			}
			s.Sources = append(s.Sources, ws)
		}
	}
	if cfg.FixturesPath != "" {
		fx, err := LoadFixtures(cfg.FixturesPath)
		if err != nil {
			s.Close()
			return Setup{}, err
		}
		s.Sources = append(s.Sources, fx...)
	}
	if len(s.Sources) == 0 {
		return s, fmt.Errorf("no sources configured: set %s, WAREHOUSE_DSN or FIXTURES_PATH", config.SourceURLEnv(models.KindTargets))
	}
	return s, nil
}

// Ready pings the warehouse when there is one.
func (s Setup) Ready(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

func (s Setup) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
