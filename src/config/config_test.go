package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigs(t *testing.T, cfgJSON, dataJSON string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfgJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(dataJSON), 0644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfigs(t,
		`{"data_path":"data/train.csv","server":{"addr":":9000","read_timeout":"3s"},"reload":{"interval":"1m","watch":false}}`,
		`{"top_n":5,"default_cutoff":"2022-03-01"}`,
	)

	cfg, dcfg, err := LoadConfig(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "data/train.csv", cfg.DataPath)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, time.Duration(cfg.Server.ReadTimeout))
	assert.Equal(t, 60*time.Second, time.Duration(cfg.Server.WriteTimeout))
	assert.Equal(t, time.Minute, time.Duration(cfg.Reload.Interval))
	assert.False(t, cfg.Reload.Watch)

	assert.Equal(t, 5, dcfg.TopN)
	assert.Equal(t, "2022-03-01", dcfg.DefaultCutoff.Time().Format("2006-01-02"))
	assert.Equal(t, []string{"Low", "Medium", "High", "Jam"}, dcfg.GetTrafficOptions())
}

func TestLoadConfigsMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{}`), 0644))

	_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataconfig.json")
}

func TestLoadConfigsEnvOverlay(t *testing.T) {
	dir := writeConfigs(t, `{"server":{"addr":":9000"}}`, `{}`)
	t.Setenv("CURY_SERVER_ADDR", ":7070")
	t.Setenv("CURY_DATA_PATH", "/srv/train.csv")
	t.Setenv("CURY_RELOAD_INTERVAL", "90s")

	cfg, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/srv/train.csv", cfg.DataPath)
	assert.Equal(t, 90*time.Second, time.Duration(cfg.Reload.Interval))
}

func TestParseDataConfigRejectsTopN(t *testing.T) {
	_, err := ParseDataConfig([]byte(`{"top_n":0}`))
	require.Error(t, err)

	_, err = ParseDataConfig([]byte(`{"default_cutoff":"13-04-2022"}`))
	require.Error(t, err)
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"5m0s"`)))
	assert.Equal(t, 5*time.Minute, time.Duration(d))

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"5m0s"`, string(out))

	assert.Error(t, d.UnmarshalJSON([]byte(`"five minutes"`)))
}
