package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"sidepanel/internal/buildcheck"
	"sidepanel/internal/config"
	"sidepanel/internal/ui"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides storage.database_path)")
	route := flag.String("route", string(ui.RouteChat), "initial route: /chat or /settings")
	logPath := flag.String("log", "sidepanel.log", "log file while the UI is running")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flag.Arg(0) == "check-build" {
		dir := flag.Arg(1)
		if dir == "" {
			dir = "."
		}
		if _, err := buildcheck.Check(ctx, dir, buildcheck.ExecRunner{}); err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Storage.DatabasePath = *dbPath
	}

	// The UI owns the terminal; logs go to a file.
	logFile, err := tea.LogToFile(*logPath, "sidepanel")
	if err != nil {
		fmt.Println("Error opening log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	app := NewApp(cfg)
	if err := app.startup(ctx); err != nil {
		fmt.Println("Error starting:", err)
		app.shutdown(ctx)
		os.Exit(1)
	}
	defer app.shutdown(ctx)

	model := ui.New(ctx, ui.Options{
		Form:    app.Settings,
		Catalog: app.Catalog,
		Chat:    app.Chat,
		Bus:     app.Bus,
		Route:   ui.Route(*route),
	})
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		println("Error:", err.Error())
	}
}
