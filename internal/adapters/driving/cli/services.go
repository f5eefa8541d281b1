package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driven/loader"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/postprocessors/chunker"
)

// Services used by the commands. They are built on first use so that
// commands like version never touch the network or the database. Tests
// assign fakes directly.
var (
	settingsService  driving.SettingsService
	chatService      driving.ChatService
	retrieverService driving.Retriever
	indexService     driving.IndexService
	historyService   driving.HistoryService
)

var (
	sqliteStore *sqlite.Store
	records     driven.ConversationStore
	closers     []func() error
)

// loadSettings returns the current settings, opening the config file on
// first use.
func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		store, err := openConfigStore()
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		settingsService = services.NewSettingsService(store, nil)
	}
	return settingsService.Get()
}

// openConfigStore opens the TOML config file. With --ephemeral its values
// are copied into memory so nothing is written back.
func openConfigStore() (driven.ConfigStore, error) {
	store, err := openConfigFile()
	if err != nil {
		return nil, err
	}
	if ephemeral {
		return memory.NewConfigStore(store.Values()), nil
	}
	return store, nil
}

func openConfigFile() (*file.ConfigStore, error) {
	if configPath != "" {
		return file.NewConfigStoreAt(configPath)
	}
	dir, err := file.DefaultDir()
	if err != nil {
		return nil, err
	}
	return file.NewConfigStore(dir)
}

// openVectorIndex returns the SQLite index, or an in-memory one with
// --ephemeral.
func openVectorIndex(settings *domain.AppSettings) (driven.VectorIndex, error) {
	if ephemeral {
		return memory.NewVectorIndex(), nil
	}
	store, err := openSQLite(settings)
	if err != nil {
		return nil, err
	}
	return store.VectorIndex(), nil
}

func openSQLite(settings *domain.AppSettings) (*sqlite.Store, error) {
	if sqliteStore != nil {
		return sqliteStore, nil
	}
	store, err := sqlite.NewStore(settings.Index.Dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened database %s", store.Path())
	sqliteStore = store
	closers = append(closers, store.Close)
	return store, nil
}

// openRecords opens the record store selected by records.driver.
func openRecords(ctx context.Context, settings *domain.AppSettings) (driven.ConversationStore, error) {
	if records != nil {
		return records, nil
	}

	driver := settings.Records.Driver
	if ephemeral {
		driver = domain.RecordDriverMemory
	}

	switch driver {
	case domain.RecordDriverSQLite:
		store, err := openSQLite(settings)
		if err != nil {
			return nil, err
		}
		records = store.ConversationStore()
	case domain.RecordDriverPostgres:
		store, err := postgres.NewConversationStore(ctx, settings.Records.DSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, store.Close)
		records = store
	case domain.RecordDriverMemory:
		records = memory.NewConversationStore()
	default:
		return nil, fmt.Errorf("%w: records.driver %q is not recognised",
			domain.ErrInvalidConfiguration, settings.Records.Driver)
	}

	logger.Debug("record store: %s", driver)
	return records, nil
}

// ensureHistory wires the history service. It needs only the record store.
func ensureHistory(ctx context.Context) error {
	if historyService != nil {
		return nil
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openRecords(ctx, settings)
	if err != nil {
		return err
	}
	historyService = services.NewHistoryService(store)
	return nil
}

// ensureChat validates the settings, builds the corpus and wires every
// service a chat turn needs.
func ensureChat(ctx context.Context) error {
	if chatService != nil {
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger.Section("Startup")
	aiServices, err := ai.NewServices(settings)
	if err != nil {
		return err
	}
	closers = append(closers, func() error {
		aiServices.Close()
		return nil
	})
	if err := aiServices.Ping(ctx); err != nil {
		logger.Warn("%v", err)
	}

	vectors, err := openVectorIndex(settings)
	if err != nil {
		return err
	}

	split, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return err
	}

	index := services.NewIndexService(
		loader.New(),
		split,
		aiServices.EmbeddingService,
		vectors,
		services.IndexConfig{
			Paths:      settings.Documents.Paths,
			Collection: settings.Index.Collection,
			BatchSize:  settings.Index.BatchSize,
		},
	)
	start := time.Now()
	corpus, err := index.Build(ctx)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	logger.Info("corpus ready: %d chunks in %s", corpus.Len(), time.Since(start).Round(time.Millisecond))
	indexService = index
	retrieverService = services.NewRetriever(aiServices.EmbeddingService, corpus)

	turns, err := openRecords(ctx, settings)
	if err != nil {
		return err
	}
	if historyService == nil {
		historyService = services.NewHistoryService(turns)
	}

	opts := []services.ChatOption{services.WithHistoryLimit(settings.Chat.HistoryLimit)}
	if settings.Chat.Retrieval {
		opts = append(opts, services.WithRetriever(retrieverService))
	} else {
		logger.Info("retrieval disabled, answers use conversation history only")
	}

	chatService = services.NewChatService(
		services.NewContextBuilder(turns, time.Local),
		services.NewGenerator(aiServices.LLMService, settings.LLM.SystemPrompt, settings.LLM.MaxTokens),
		turns,
		opts...,
	)
	return nil
}

// shutdown releases everything opened by the ensure functions, newest first.
func shutdown() error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	closers = nil
	sqliteStore = nil
	records = nil
	return errors.Join(errs...)
}
