package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/supply-ledger/internal/application/analytics"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/application/usecase"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/supply-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/supply-ledger/internal/interfaces/http"
	"github.com/jhoicas/supply-ledger/pkg/config"
	"github.com/jhoicas/supply-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel, cfg.App.Name, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar OpenTelemetry")
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("abrir almacenamiento")
	}
	defer store.Close()

	// RabbitMQ es opcional: sin RABBITMQ_URL los eventos se descartan.
	var publisher inventory.EventPublisher = inventory.NoopPublisher{}
	var broker *messaging.Broker
	if cfg.Rabbit.Enabled() {
		broker, err = messaging.Dial(cfg.Rabbit, log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer broker.Close()
		publisher = broker
	}

	engine := inventory.NewEngine(log.Zerolog(), nil)
	coordinator := inventory.NewCoordinator(store.Tx, engine, store.Projector, publisher, cfg.Ledger.LockTimeout, log.Zerolog())
	queries := inventory.NewQueryUseCase(engine, store.Items, store.Movements, store.Projector, infrapdf.NewStockCardRenderer(cfg.App.OfficeName))
	reconciliationUC := inventory.NewReconciliationUseCase(coordinator, store.Reconciliations)
	requestsUC := inventory.NewRequestFulfillmentUseCase(coordinator, store.Movements)
	replenishmentUC := inventory.NewReplenishmentUseCase(store.Items, store.Movements)
	dashboardUC := analytics.NewDashboardUseCase(store.Items, store.Movements)
	itemUC := usecase.NewItemUseCase(store.Items)

	if broker != nil {
		consumer := messaging.NewRequestConsumer(broker, requestsUC, log.Zerolog())
		if err := consumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("iniciar consumidor de solicitudes")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (requiere `swag init` previo)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Supply Ledger API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado; /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemUC:         itemUC,
		Coordinator:    coordinator,
		Queries:        queries,
		Reconciliation: reconciliationUC,
		Requests:       requestsUC,
		Replenishment:  replenishmentUC,
		Dashboard:      dashboardUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de OpenTelemetry")
	}

	log.Info().Msg("aplicación detenida")
}
