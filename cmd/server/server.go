package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hanzlah101/t3-clone/internal/config"
	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/domain/usage"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/auth"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/crontab"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/repository/messagerepo"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/repository/threadrepo"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/repository/usagerepo"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/inference"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/logger"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/metrics"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/observability"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/search"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/modelhandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/sharehandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/threadhandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/usagehandler"
	v1 "github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1"
	chatroute "github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1/chat"
	shareroute "github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1/share"
	threadroute "github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1/threads"

	_ "net/http/pprof"
)

type application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
	cfg        *config.Config
}

func (app *application) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		err := http.ListenAndServe("0.0.0.0:6060", nil)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(fmt.Sprintf(":%d", app.cfg.MetricsPort), mux)
		if err != nil {
			cancel()
		}
		return err
	})
	if app.crontab != nil {
		eg.Go(func() error {
			err := app.crontab.Run(ctx)
			if err != nil {
				cancel()
			}
			return err
		})
	}
	eg.Go(func() error {
		err := app.httpServer.Run()
		if err != nil {
			cancel()
		}
		return err
	})

	return eg.Wait()
}

func main() {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("configure logger")
	}

	ctx := context.Background()

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	db, err := database.NewDB(cfg.DatabaseURL, cfg.DBPostgresReadDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
	}

	validator, err := auth.NewJWTValidator(ctx, cfg.JWKSURL, cfg.Issuer, cfg.Audience, cfg.RefreshJWKSInterval, cfg.ClockSkew, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize jwt validator")
	}

	// Repositories and domain services
	threadRepo := threadrepo.NewThreadGormRepository(db)
	messageRepo := messagerepo.NewMessageGormRepository(db)
	usageRepo := usagerepo.NewUsageGormRepository(db)

	threadService := thread.NewThreadService(threadRepo, messageRepo)
	messageService := message.NewMessageService(messageRepo, threadService)
	usageService := usage.NewService(usageRepo)

	// Inference and generation
	provider := inference.NewProvider(cfg)
	searchClient := search.NewClient(cfg.SearchBaseURL, cfg.SearchAPIKey, cfg.SearchTimeout)
	coordinator := generation.NewCoordinator(
		threadService,
		messageService,
		provider,
		searchClient,
		usageService,
		metrics.NewGenerationRecorder(),
		log,
	)

	var titles *generation.TitleGenerator
	if cfg.TitleGenEnable {
		titles = generation.NewTitleGenerator(provider, threadService, cfg.TitleModelID, log)
	}

	// HTTP layer
	threadHandler := threadhandler.NewThreadHandler(threadService, messageService, titles)
	chatHandler := chathandler.NewChatHandler(coordinator, threadHandler)
	shareHandler := sharehandler.NewShareHandler(threadService, messageService)

	v1Route := v1.NewV1Route(
		chatroute.NewChatRoute(chatHandler),
		threadroute.NewThreadRoute(threadHandler),
		shareroute.NewShareRoute(shareHandler),
		modelhandler.NewModelHandler(),
		usagehandler.NewUsageHandler(usageService),
		validator,
	)

	httpServer, err := httpserver.NewHTTPServer(v1Route, validator, log, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create http server")
	}

	app := &application{
		httpServer: httpServer,
		cfg:        cfg,
	}
	if cfg.ReaperEnabled {
		app.crontab = crontab.NewCrontab(messageService, cfg.StaleThreshold)
	}

	if err := app.start(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
