package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "MCP_TRANSPORT", "VENDOR_RPS", "CACHE_TTL_SECONDS", "REDIS_ADDR", "AMADEUS_ENVIRONMENT"} {
		t.Setenv(k, "")
	}
	c := fromEnv()
	assert.Equal(t, "prod", c.AppEnv)
	assert.Equal(t, TransportStdio, c.Transport)
	assert.Equal(t, "test", c.AmadeusEnv)
	assert.Equal(t, 5, c.VendorRPS)
	assert.Equal(t, 30*time.Second, c.VendorTimeout)
	assert.Equal(t, 15*time.Minute, c.CacheTTL)
	assert.Empty(t, c.RedisAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MCP_TRANSPORT", "HTTP")
	t.Setenv("VENDOR_RPS", "2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL_SECONDS", "nope")

	c := fromEnv()
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, 2, c.VendorRPS)
	assert.Equal(t, 3, c.RedisDB)
	assert.Equal(t, 15*time.Minute, c.CacheTTL)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CORALOGIX_DOMAIN=eu2.coralogix.com\nCORALOGIX_API_KEY=from-file\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CORALOGIX_API_KEY", "from-env")
	// registered so t.Setenv restores it after godotenv sets it
	t.Setenv("CORALOGIX_DOMAIN", "")
	require.NoError(t, os.Unsetenv("CORALOGIX_DOMAIN"))

	c := Load()
	assert.Equal(t, "from-env", c.CoralogixAPIKey)
	assert.Equal(t, "eu2.coralogix.com", c.CoralogixDomain)
}
