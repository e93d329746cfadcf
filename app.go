package main

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm/logger"

	"sidepanel/internal/config"
	"sidepanel/internal/database"
	"sidepanel/internal/events"
	"sidepanel/internal/llm/client"
	"sidepanel/internal/services"
	"sidepanel/internal/utils"
)

// App holds the wired services for one run.
type App struct {
	cfg config.Config

	Bus      *events.Bus
	Db       *services.DbServices
	Catalog  services.ModelCatalogService
	Settings *services.SettingsForm
	Chat     *services.ChatService

	dbClose func() error
}

func NewApp(cfg config.Config) *App {
	return &App{cfg: cfg}
}

// startup opens storage and wires the services. The model config record is
// loaded, or seeded, before startup returns.
func (a *App) startup(ctx context.Context) error {
	dev := database.IsDevelopment()
	if dev {
		if err := utils.LoadEnv(a.cfg.Env.DotenvPath); err != nil {
			log.Printf("env: %v", err)
		}
	}

	logLevel := logger.Warn
	if dev {
		logLevel = logger.Info
	}
	db, err := database.Init(database.Config{
		Path:     a.cfg.Storage.DatabasePath,
		LogLevel: logLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if sqlDB, err := db.DB(); err != nil {
		log.Printf("failed to get sql.DB: %v", err)
	} else {
		a.dbClose = sqlDB.Close
	}

	opts := services.ModelConfigStoreOptions{Seed: services.DefaultSeed(dev)}
	if a.cfg.Secrets.UseKeyring {
		vault, err := services.OpenKeyringService(services.KeyringConfig{
			ServiceName:  a.cfg.Secrets.ServiceName,
			Backends:     a.cfg.Secrets.Backends,
			FileDir:      a.cfg.Secrets.FileDir,
			FilePassword: a.cfg.Secrets.FilePassword,
		})
		if err != nil {
			return err
		}
		opts.Vault = vault
	}

	a.Db = services.NewDbServices(db, a.cfg.Storage.StorageKey, opts)
	if err := a.Db.StartDbServices(ctx); err != nil {
		return fmt.Errorf("load model config: %w", err)
	}

	a.Catalog = services.NewModelCatalogService()
	if err := a.Catalog.Startup(); err != nil {
		return err
	}

	a.Bus = events.NewBus(0, true)
	a.Settings = services.NewSettingsForm(a.Db.ModelConfigs, a.Catalog, a.Bus)
	a.Chat = services.NewChatService(a.Db.ModelConfigs, services.DefaultModelFactory(client.Options{
		MaxTokens: a.cfg.Chat.MaxTokens,
		BaseURL:   a.cfg.Chat.BaseURL,
	}), services.ChatOptions{
		SystemPrompt: a.cfg.Chat.SystemPrompt,
		Notifier:     a.Bus,
	})
	a.Chat.RegisterTools(client.ToolInfos(a.cfg.Chat.Tools))
	return nil
}

// shutdown releases resources opened by startup.
func (a *App) shutdown(ctx context.Context) {
	if a.Settings != nil {
		a.Settings.Close()
	}
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			log.Printf("failed to close database: %v", err)
		} else {
			log.Printf("database closed")
		}
		a.dbClose = nil
	}
}
