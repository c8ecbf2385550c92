package main

import (
	"context"
	"embed"
	"flag"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"github.com/zjregee/crmdesk/internal/app"
	"github.com/zjregee/crmdesk/internal/config"
	"github.com/zjregee/crmdesk/internal/logging"
	"github.com/zjregee/crmdesk/internal/service"
)

//go:embed all:frontend/src
var assets embed.FS

func main() {
	configPath := flag.String("config", "", "path to a crmdesk TOML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	inbox, err := service.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open inbox")
	}

	application := app.NewApp(inbox, logger)

	err = wails.Run(&options.App{
		Title:     "CRM Desk",
		Width:     1100,
		Height:    720,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 30, G: 30, B: 30, A: 255},
		OnStartup:        application.Startup,
		OnShutdown:       application.Shutdown,
		Bind: []any{
			application,
		},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarDefault(),
			Appearance:           mac.NSAppearanceNameDarkAqua,
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
		},
	})

	if err != nil {
		logger.Fatal().Err(err).Msg("application exited")
	}
}
