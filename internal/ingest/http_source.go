package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/utils"
)

// HTTPSource reads a JSON array of rows from an upstream endpoint.
type HTTPSource struct {
	kind    models.Kind
	url     string
	c       HTTPClient
	backoff utils.Backoff
}

func NewHTTPSource(kind models.Kind, url string, c HTTPClient) *HTTPSource {
	return &HTTPSource{kind: kind, url: url, c: c, backoff: defaultBackoff}
}

func (s *HTTPSource) Name() string      { return "http:" + string(s.kind) }
func (s *HTTPSource) Kind() models.Kind { return s.kind }

func (s *HTTPSource) Fetch(ctx context.Context, filter models.Filter) ([]models.RawRecord, error) {
	u, err := s.requestURL(filter)
	if err != nil {
		return nil, err
	}
	b, err := getWithRetry(ctx, s.c, u, s.backoff)
	if err != nil {
		return nil, err
	}
	rows, err := models.DecodeRows(s.kind, b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.kind, err)
	}
	return stamp(s.Name(), rows), nil
}

// requestURL pasa el filtro como query params.
func (s *HTTPSource) requestURL(filter models.Filter) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("bad source url: %w", err)
	}
	q := u.Query()
	if !filter.StartDate.IsZero() {
		q.Set("start_date", filter.StartDate.String())
	}
	if !filter.EndDate.IsZero() {
		q.Set("end_date", filter.EndDate.String())
	}
	if len(filter.Products) > 0 {
		q.Set("products", join(filter.Products))
	}
	if len(filter.Regions) > 0 {
		q.Set("regions", join(filter.Regions))
	}
	if filter.RiskProfile != "" {
		q.Set("risk_profile", filter.RiskProfile)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func join[T ~string](xs []T) string {
	ss := make([]string, len(xs))
	for i, x := range xs {
		ss[i] = string(x)
	}
	return strings.Join(ss, ",")
}
