package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DYNAFORM_CONFIG", "")
	t.Setenv("MONGO_DATABASE", "forms_test")
	t.Setenv("MONGO_TRANSACTIONS", "true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RESPONDENT_TOKEN_TTL", "90m")
	t.Setenv("COLLECTION_PREFIX", "x_")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("CHOICE_CACHE_TTL", "not a duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "forms_test", cfg.MongoDatabase)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 90*time.Minute, cfg.Auth.RespondentTTL)
	assert.Equal(t, int64(2048), cfg.Engine.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.Engine.ChoiceCacheTTL, "unparseable values keep the default")
	assert.Equal(t, "x_answers", cfg.Engine.Collection("answers"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynaform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mongoDatabase: from_file
logLevel: debug
engine:
  collectionPrefix: ""
  choiceFetchTimeout: 3s
`), 0o644))
	t.Setenv("DYNAFORM_CONFIG", path)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("MONGO_DATABASE", "")
	t.Setenv("COLLECTION_PREFIX", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.MongoDatabase)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Engine.ChoiceFetchTimeout)
	assert.Equal(t, "answers", cfg.Engine.Collection("answers"))
	assert.Equal(t, "application", cfg.Engine.DefaultAnswerSheetType, "unset keys keep defaults")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("DYNAFORM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Load()
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logLevel: [unclosed"), 0o644))
		t.Setenv("DYNAFORM_CONFIG", path)
		_, err := Load()
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("DYNAFORM_CONFIG", "")
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("short secret", func(t *testing.T) {
		t.Setenv("DYNAFORM_CONFIG", "")
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("JWT_SECRET", "short")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG_ON", "1")
	t.Setenv("FLAG_BAD", "maybe")
	assert.True(t, getBool("FLAG_ON", false))
	assert.True(t, getBool("FLAG_BAD", true))
	assert.False(t, getBool("FLAG_UNSET_FOR_TEST", false))
}
