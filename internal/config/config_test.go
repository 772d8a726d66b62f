package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "backup.json", cfg.BackupPath)
	assert.Equal(t, "template.html", cfg.TemplatePath)
	assert.Equal(t, "www.reddit.com:80", cfg.RedditHost)
	assert.Equal(t, []int{200, 502}, cfg.ValidStatusCodes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MODBOT_REDDIT_HOST", "localhost:8081")
	t.Setenv("MODBOT_VALID_STATUS", "200")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "localhost:8081", cfg.RedditHost)
	assert.Equal(t, []int{200}, cfg.ValidStatusCodes)
	assert.Equal(t, "debug", cfg.LogLevel)
}
