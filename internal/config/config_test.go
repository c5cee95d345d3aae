package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearTarkaEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		for _, prefix := range []string{"DB_", "WORKER_", "FRESHNESS_", "STORAGE_", "S3_", "CLUSTER_NAME", "LISTEN_ADDR", "LOG_", "ALERTNAME_ALLOWLIST"} {
			if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
				name := kv
				if idx := indexOf(kv, '='); idx >= 0 {
					name = kv[:idx]
				}
				os.Unsetenv(name)
			}
		}
	}
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearTarkaEnv(t)
	os.Setenv("CLUSTER_NAME", "prod-east")
	os.Setenv("DB_PASSWORD", "secret")
	t.Cleanup(func() { clearTarkaEnv(t) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod-east", cfg.ClusterName)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 4, cfg.Queue.Concurrency)
	assert.True(t, cfg.Allowed("AnyAlert"))
}

func TestLoadRejectsS3BackendWithoutBucket(t *testing.T) {
	clearTarkaEnv(t)
	os.Setenv("CLUSTER_NAME", "prod-east")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("STORAGE_BACKEND", "s3")
	t.Cleanup(func() { clearTarkaEnv(t) })

	_, err := Load()
	require.Error(t, err)
}

func TestAllowedHonorsAllowlist(t *testing.T) {
	cfg := &Config{AlertnameAllow: []string{"KubePodCrashLooping", "KubeJobFailed"}}
	assert.True(t, cfg.Allowed("KubePodCrashLooping"))
	assert.False(t, cfg.Allowed("SomeOtherAlert"))
}
