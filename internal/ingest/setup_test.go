package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/revops-risk/internal/config"
	"github.com/AngelCh415/revops-risk/internal/models"
)

func TestConfigureHTTPAndFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureDoc), 0o600))

	s, err := Configure(config.Config{
		SourceURLs:   map[models.Kind]string{models.KindUplift: "http://upstream/uplift"},
		FixturesPath: path,
	})
	require.NoError(t, err)
	defer s.Close()

	var names []string
	for _, src := range s.Sources {
		names = append(names, src.Name())
	}
	assert.Equal(t, []string{"http:renewal_uplift", "fixture:targets", "fixture:revenue_actuals"}, names)
	assert.NoError(t, s.Ready(context.Background()))
}

func TestConfigureNeedsASource(t *testing.T) {
	_, err := Configure(config.Config{})
	assert.ErrorContains(t, err, "no sources configured")
}
