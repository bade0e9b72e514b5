package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personachat/internal/config"
	"personachat/internal/models"
)

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := config.DefaultConfig()
	c.APIKey = "secret"
	c.DefaultAgent = "q"

	require.NoError(t, writeConfig(path, c, false))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "q", loaded.DefaultAgent)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	c.DefaultAgent = "jarvis"
	assert.Error(t, writeConfig(path, c, false), "existing file is kept without force")
	require.NoError(t, writeConfig(path, c, true))
	loaded, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jarvis", loaded.DefaultAgent)
}

func TestLastReply(t *testing.T) {
	_, ok := lastReply(models.State{})
	assert.False(t, ok)

	conv := &models.Conversation{Messages: []models.Message{
		{Role: models.RoleUser, Content: models.PlainText("hi")},
		{Role: models.RoleAssistant, Content: models.PlainText("hello")},
		{Role: models.RoleUser, Content: models.PlainText("again")},
	}}
	got, ok := lastReply(models.State{ActiveConversation: conv})
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}
