package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/locations"
)

func newApp(t *testing.T) *sitekit.StdApplication {
	t.Helper()
	app := sitekit.NewStdApplication(nil, nil)
	app.RegisterModule(NewModule())
	app.RegisterModule(locations.NewModule())
	return app
}

func TestModule_InitAfterLocations(t *testing.T) {
	app := newApp(t)
	require.NoError(t, app.Init())

	c, err := CatalogFrom(app)
	require.NoError(t, err)
	assert.Equal(t, "Digital Neighbour", c.Brand())
	assert.True(t, c.IsEnabled(SEO, "seo-audits", "queenstown"))
}

func TestModule_RulesFileAndBrandFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hosting:\n  web-hosting: [otago]\n"), 0o600))
	t.Setenv("CATALOG_RULES_FILE", path)
	t.Setenv("SITE_BRAND", "Acme")

	app := newApp(t)
	require.NoError(t, app.Init())

	c, err := CatalogFrom(app)
	require.NoError(t, err)
	assert.Len(t, c.StaticParams(Hosting), 9)
	assert.Empty(t, c.StaticParams(SEO))
	assert.Equal(t, "Web Hosting in Queenstown | Acme", c.LocationMetadata(Hosting, "web-hosting", "queenstown").Title)
}

func TestModule_InvalidBaseURL(t *testing.T) {
	t.Setenv("SITE_URL", "not a url")
	app := newApp(t)
	assert.ErrorIs(t, app.Init(), sitekit.ErrConfigValidationFailed)
}

func TestModule_MissingLocations(t *testing.T) {
	app := sitekit.NewStdApplication(nil, nil)
	app.RegisterModule(NewModule())
	assert.ErrorIs(t, app.Init(), sitekit.ErrRequiredServiceNotFound)
}
