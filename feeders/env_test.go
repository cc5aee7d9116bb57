package feeders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mode string

type level uint8

type envConfig struct {
	Host    string        `env:"HOST"`
	Port    int           `env:"PORT"`
	Debug   bool          `env:"DEBUG"`
	TTL     time.Duration `env:"TTL"`
	Mode    mode          `env:"MODE"`
	Level   level         `env:"LEVEL"`
	Origins []string      `env:"ORIGINS"`
	Nested  struct {
		Rate float64 `env:"RATE"`
	}
	Untagged string
}

func TestEnvFeeder_Feed(t *testing.T) {
	t.Setenv("HOST", "example.test")
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG", "true")
	t.Setenv("TTL", "90s")
	t.Setenv("MODE", "strict")
	t.Setenv("LEVEL", "3")
	t.Setenv("ORIGINS", "https://a.test, https://b.test")
	t.Setenv("RATE", "2.5")

	var cfg envConfig
	require.NoError(t, NewEnvFeeder().Feed(&cfg))

	assert.Equal(t, "example.test", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 90*time.Second, cfg.TTL)
	assert.Equal(t, mode("strict"), cfg.Mode)
	assert.Equal(t, level(3), cfg.Level)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Origins)
	assert.InDelta(t, 2.5, cfg.Nested.Rate, 0.0001)
	assert.Empty(t, cfg.Untagged)
}

func TestEnvFeeder_LeavesUnsetFieldsAlone(t *testing.T) {
	cfg := envConfig{Host: "preset", Port: 1}
	require.NoError(t, NewEnvFeeder().FeedKey("section", &cfg))
	assert.Equal(t, "preset", cfg.Host)
	assert.Equal(t, 1, cfg.Port)
}

func TestEnvFeeder_Errors(t *testing.T) {
	t.Run("non pointer", func(t *testing.T) {
		assert.ErrorIs(t, NewEnvFeeder().Feed(envConfig{}), ErrEnvInvalidStructure)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("TTL", "soon")
		var cfg envConfig
		assert.ErrorIs(t, NewEnvFeeder().Feed(&cfg), ErrEnvConvert)
	})
	t.Run("bad int", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		var cfg envConfig
		assert.Error(t, NewEnvFeeder().Feed(&cfg))
	})
}

func TestAffixedEnvFeeder(t *testing.T) {
	t.Setenv("SITEKIT_HOST_PROD", "affixed.test")
	t.Setenv("HOST", "plain.test")

	var cfg envConfig
	require.NoError(t, NewAffixedEnvFeeder("sitekit", "prod").Feed(&cfg))
	assert.Equal(t, "affixed.test", cfg.Host)

	assert.ErrorIs(t, NewAffixedEnvFeeder("", "").Feed(&cfg), ErrEnvEmptyPrefixAndSuffix)
}
