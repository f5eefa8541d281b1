package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestLoadSettings_FromConfigFlag(t *testing.T) {
	prevSettings, prevPath := settingsService, configPath
	defer func() { settingsService, configPath = prevSettings, prevPath }()

	settingsService = nil
	configPath = filepath.Join(t.TempDir(), "docchat.toml")

	settings, err := loadSettings()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCollection, settings.Index.Collection)
	assert.Equal(t, configPath, settingsService.ConfigPath())
}

func TestLoadSettings_EphemeralDoesNotWrite(t *testing.T) {
	prevSettings, prevPath := settingsService, configPath
	defer func() {
		settingsService, configPath, ephemeral = prevSettings, prevPath, false
	}()

	configPath = filepath.Join(t.TempDir(), "docchat.toml")
	original := "[documents]\npaths = [\"/docs/manual.pdf\"]\n"
	require.NoError(t, os.WriteFile(configPath, []byte(original), 0600))
	settingsService = nil
	ephemeral = true

	settings, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/manual.pdf"}, settings.Documents.Paths)

	settings.Documents.Paths = []string{"/docs/other.pdf"}
	require.NoError(t, settingsService.Save(settings))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestOpenRecords_EphemeralUsesMemory(t *testing.T) {
	defer func() {
		ephemeral = false
		_ = shutdown()
	}()
	ephemeral = true

	settings := domain.DefaultAppSettings()
	settings.Index.Dir = t.TempDir()

	store, err := openRecords(context.Background(), &settings)

	require.NoError(t, err)
	assert.IsType(t, &memory.ConversationStore{}, store)
	assert.Nil(t, sqliteStore)

	index, err := openVectorIndex(&settings)
	require.NoError(t, err)
	assert.IsType(t, &memory.VectorIndex{}, index)
}

func TestOpenRecords_Memory(t *testing.T) {
	defer func() { _ = shutdown() }()

	settings := domain.DefaultAppSettings()
	settings.Records.Driver = domain.RecordDriverMemory

	store, err := openRecords(context.Background(), &settings)
	require.NoError(t, err)
	require.NotNil(t, store)

	again, err := openRecords(context.Background(), &settings)
	require.NoError(t, err)
	assert.Same(t, store, again)
}

func TestOpenRecords_SQLite(t *testing.T) {
	defer func() { _ = shutdown() }()

	settings := domain.DefaultAppSettings()
	settings.Index.Dir = t.TempDir()

	store, err := openRecords(context.Background(), &settings)
	require.NoError(t, err)
	require.NotNil(t, sqliteStore)
	assert.Equal(t, sqliteStore.ConversationStore(), store)
}

func TestOpenRecords_UnknownDriver(t *testing.T) {
	defer func() { _ = shutdown() }()

	settings := domain.DefaultAppSettings()
	settings.Records.Driver = "mysql"

	_, err := openRecords(context.Background(), &settings)

	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestEnsureHistory(t *testing.T) {
	prevSettings, prevHistory := settingsService, historyService
	defer func() {
		settingsService, historyService = prevSettings, prevHistory
		_ = shutdown()
	}()

	settings := domain.DefaultAppSettings()
	settings.Records.Driver = domain.RecordDriverMemory
	settingsService = &MockSettingsService{Settings: settings}
	historyService = nil

	require.NoError(t, ensureHistory(context.Background()))
	require.NotNil(t, historyService)

	starts, err := historyService.SessionStarts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, starts)
}

func TestEnsureChat_InvalidSettings(t *testing.T) {
	prevSettings, prevChat := settingsService, chatService
	defer func() { settingsService, chatService = prevSettings, prevChat }()

	settingsService = &MockSettingsService{Settings: domain.DefaultAppSettings()}
	chatService = nil

	err := ensureChat(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Nil(t, chatService)
}

func TestShutdown_ClosesNewestFirst(t *testing.T) {
	var order []int
	closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
		func() error { order = append(order, 3); return nil },
	}

	err := shutdown()

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Empty(t, closers)
	assert.NoError(t, shutdown())
}
