package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AngelCh415/revops-risk/internal/utils"
)

var defaultBackoff = utils.NewBackoff(100*time.Millisecond, 2)

// GetJSONWithRetry hace hasta 3 intentos con backoff exponencial + jitter.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, url string, dst any) error {
	b, err := getWithRetry(ctx, c, url, defaultBackoff)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func getWithRetry(ctx context.Context, c HTTPClient, url string, bo utils.Backoff) ([]byte, error) {
	var body []byte
	var permanent error
	err := bo.Do(ctx, func(int) error {
		b, err := getBody(ctx, c, url)
		if err == nil {
			body = b
			return nil
		}
		// un 4xx no se arregla reintentando
		var se *StatusError
		if errors.Is(err, errEmptyURL) || (errors.As(err, &se) && !se.Temporary()) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return nil, permanent
	}
	return body, err
}
