package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willdurand/scriptworker-scripts/internal/config"
)

const testScriptConfig = `
taskcluster_scope_prefixes:
  - "project:releng:beetmover:"
checksums_digests:
  - sha512
  - sha256
clouds:
  aws:
    nightly:
      enabled: true
      bucket: net-mozaws-stage
      region: us-east-1
      fail_task_on_error: true
      url_prefix: https://archive.mozilla.org
      product_buckets:
        devedition: net-mozaws-devedition
    release:
      enabled: false
      bucket: net-mozaws-prod
  gcloud:
    nightly:
      enabled: true
      bucket: moz-fx-stage
      fail_task_on_error: false
`

func writeScriptConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestLoadScriptConfig(t *testing.T) {
	cfg, err := config.LoadScriptConfig(writeScriptConfig(t, testScriptConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"project:releng:beetmover:"}, cfg.ScopePrefixes)
	assert.Equal(t, []string{"sha512", "sha256"}, cfg.Digests(nil))

	resources := cfg.EnabledResources()
	assert.True(t, resources["nightly"])
	assert.False(t, resources["release"])
}

func TestTargetsForOrdering(t *testing.T) {
	cfg, err := config.LoadScriptConfig(writeScriptConfig(t, testScriptConfig))
	require.NoError(t, err)

	targets := cfg.TargetsFor("nightly")
	require.Len(t, targets, 2)
	assert.Equal(t, "aws", targets[0].Cloud)
	assert.True(t, targets[0].FailTaskOnError)
	assert.Equal(t, "gcloud", targets[1].Cloud)
	assert.False(t, targets[1].FailTaskOnError)

	assert.Empty(t, cfg.TargetsFor("release"), "disabled targets are skipped")
}

func TestBucketForProductOverride(t *testing.T) {
	cfg, err := config.LoadScriptConfig(writeScriptConfig(t, testScriptConfig))
	require.NoError(t, err)

	target := cfg.TargetsFor("nightly")[0]
	assert.Equal(t, "net-mozaws-devedition", target.BucketFor("devedition"))
	assert.Equal(t, "net-mozaws-stage", target.BucketFor("firefox"))
}

func TestLoadScriptConfigRejectsMissingPrefixes(t *testing.T) {
	_, err := config.LoadScriptConfig(writeScriptConfig(t, "clouds: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scope prefixes")
}

func TestDigestsFallback(t *testing.T) {
	cfg := &config.ScriptConfig{}
	assert.Equal(t, []string{"sha512"}, cfg.Digests([]string{"sha512"}))
}
