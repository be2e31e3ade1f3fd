package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("HYDRA_TEST_KEY", "secret")

	assert.Equal(t, "key: secret", expandEnv("key: ${HYDRA_TEST_KEY}"))
	assert.Equal(t, "key: secret", expandEnv("key: ${HYDRA_TEST_KEY:fallback}"))
	assert.Equal(t, "key: fallback", expandEnv("key: ${HYDRA_TEST_MISSING:fallback}"))
	assert.Equal(t, "key: ", expandEnv("key: ${HYDRA_TEST_MISSING:}"))
	assert.Equal(t, "key: ${HYDRA_TEST_MISSING}", expandEnv("key: ${HYDRA_TEST_MISSING}"))
}

func TestLoadFromAppliesDefaultsWithoutFiles(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "manual", cfg.Features.EntityMerge.Policy)
	assert.Equal(t, int64(5<<20), cfg.Features.Narration.MaxSourceBytes)
	assert.Equal(t, 1000, cfg.Features.Narration.MaxChars)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Providers["gemini"].Model)
	assert.InDelta(t, 0.8, cfg.LLM.Temperatures["chapter"], 1e-9)
	assert.Equal(t, "Kore", cfg.LLM.Speech.DefaultVoice)
}

func TestLoadFromMergesEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "staging")
	t.Setenv("HYDRA_TEST_POLICY", "auto")

	base := []byte("features:\n  entity_merge:\n    policy: ${HYDRA_TEST_POLICY:manual}\nserver:\n  http:\n    port: 9000\n")
	overlay := []byte("server:\n  http:\n    port: 9100\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), base, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), overlay, 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Features.EntityMerge.Policy)
	assert.Equal(t, 9100, cfg.Server.HTTP.Port)
	assert.Equal(t, "0.0.0.0:9100", cfg.Server.HTTP.Addr())
}

func TestLoadFromRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("features:\n  entity_merge:\n    policy: sometimes\n"), 0o600))

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity_merge.policy")
}
