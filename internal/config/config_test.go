package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "p4", cfg.P4Command)
	assert.Equal(t, "//Sol/Dev1/...", cfg.Depot)
	assert.Equal(t, 10, cfg.WindowDays)
	assert.Equal(t, GroupByAction, cfg.GroupBy)
	assert.Equal(t, []string{"jenkins"}, cfg.ExcludeAuthors)
	assert.Equal(t, filepath.Join(home, ".config", "p4cl", "p4cl.db"), cfg.DBPath)

	offset, err := cfg.Offset()
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, offset)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
p4_command = "p4 -p ssl:perforce:1666"
depot = "//Sol/Dev1Next/..."
group_by = "change"
output = "~/reports/history.xlsx"
exclude_authors = ["jenkins", "build-bot"]
ignore_files = ["//**/*.meta"]
workers = 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "p4 -p ssl:perforce:1666", cfg.P4Command)
	assert.Equal(t, "//Sol/Dev1Next/...", cfg.Depot)
	assert.Equal(t, GroupByChange, cfg.GroupBy)
	assert.Equal(t, filepath.Join(home, "reports", "history.xlsx"), cfg.Output)
	assert.Equal(t, []string{"jenkins", "build-bot"}, cfg.ExcludeAuthors)
	assert.Equal(t, []string{"//**/*.meta"}, cfg.IgnoreFiles)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("P4CL_DEPOT", "//Other/...")
	t.Setenv("P4CL_WORKERS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "//Other/...", cfg.Depot)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadReportsMalformedEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("P4CL_WORKERS", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P4CL_WORKERS")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.GroupBy = "file"
	cfg.TimezoneOffset = "nine hours"
	cfg.Charset = "no-such-charset"
	cfg.IgnoreFiles = []string{"//depot/[abc"}
	cfg.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 5)
	assert.Contains(t, err.Error(), "group_by")
	assert.Contains(t, err.Error(), "timezone_offset")
	assert.Contains(t, err.Error(), "charset")
	assert.Contains(t, err.Error(), "ignore_files")
	assert.Contains(t, err.Error(), "workers")
}

func TestValidateAcceptsKnownCharset(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Charset = "euc-kr"
	assert.NoError(t, cfg.Validate())
}

func TestTimeout(t *testing.T) {
	cfg := Default(t.TempDir())

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Zero(t, d)

	cfg.CommandTimeout = "30s"
	d, err = cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	cfg.CommandTimeout = "-1s"
	_, err = cfg.Timeout()
	assert.Error(t, err)
}
