package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// StaticSource serves rows already in memory.
type StaticSource struct {
	name string
	kind models.Kind
	rows []models.RawRecord
}

func NewStaticSource(name string, kind models.Kind, rows []models.RawRecord) *StaticSource {
	return &StaticSource{name: name, kind: kind, rows: stamp(name, slices.Clone(rows))}
}

func (s *StaticSource) Name() string      { return s.name }
func (s *StaticSource) Kind() models.Kind { return s.kind }

func (s *StaticSource) Fetch(ctx context.Context, _ models.Filter) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.rows), nil
}

// LoadFixtures reads a JSON object keyed by source kind, each value an
// array of rows, and returns one StaticSource per kind in kind order.
func LoadFixtures(path string) ([]Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(b, "fixture")
}

func ParseFixtures(b []byte, prefix string) ([]Source, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for name := range doc {
		if _, err := models.ParseKind(name); err != nil {
			return nil, fmt.Errorf("parse fixtures: %w", err)
		}
	}
	var out []Source
	for _, k := range models.Kinds {
		raw, ok := doc[string(k)]
		if !ok {
			continue
		}
		rows, err := models.DecodeRows(k, raw)
		if err != nil {
			return nil, fmt.Errorf("parse fixtures %s: %w", k, err)
		}
		out = append(out, NewStaticSource(prefix+":"+string(k), k, rows))
	}
	return out, nil
}
