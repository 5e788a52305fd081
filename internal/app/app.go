package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/order-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/order-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/order-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/auth"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/events"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/invoice"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/jobs"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/kafka"
	s3Repo "github.com/DRSN-tech/order-backend/internal/repository/minio"
	"github.com/DRSN-tech/order-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/order-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/order-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/order-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/clients"
	"github.com/DRSN-tech/order-backend/pkg/closer"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/DRSN-tech/order-backend/pkg/postgres"
	"github.com/DRSN-tech/order-backend/pkg/tracing"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthProbeInterval = 5 * time.Second
	kafkaTopicTimeout   = 10 * time.Second
)

// App собирает зависимости сервиса заказов и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv   *v1Http.Server
	grpcSrv   *v1Grpc.GRPCServer
	worker    *kafka.OutboxWorker
	lowStock  *jobs.LowStockJob
	probes    []v1Grpc.Probe
	bgCtx     context.Context
	bgCancel  context.CancelFunc
	httpErrCh chan error
	grpcErrCh chan error
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	a := &App{
		cfg:       cfg,
		logger:    logger,
		closer:    closer.NewCloser(0),
		httpErrCh: make(chan error, 1),
		grpcErrCh: make(chan error, 1),
	}
	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	if err := a.init(); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := a.closer.Close(shutdownCtx); closeErr != nil {
			logger.Warnf("%v", closeErr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	cfg, logger := a.cfg, a.logger

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Otel)
	if err != nil {
		logger.Errorf(err, "failed to initialize tracing")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("tracing", shutdownTracing)

	db, err := initPGDB(logger, cfg)
	if err != nil {
		return err
	}
	a.closer.AddSimple("postgres", func() error { db.Close(); return nil })
	a.probes = append(a.probes, v1Grpc.Probe{Name: "postgres", Check: db.Pool.Ping})

	txManager := manager.Must(trmpgx.NewDefaultFactory(db.Pool))

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{})
	logRepo := pgdb.NewInventoryLogRepo(db.Pool, pgdbConv.InventoryLogConverter{})
	orderRepo := pgdb.NewOrderRepo(db.Pool, pgdbConv.OrderConverter{}, pgdbConv.ProductConverter{})
	userRepo := pgdb.NewUserRepo(db.Pool, pgdbConv.UserConverter{})
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return err
	}
	a.closer.AddSimple("redis", redisClient.Close)
	a.probes = append(a.probes, v1Grpc.Probe{Name: "redis", Check: redisClient.Ping})

	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.ProductConverter{}, cfg.Redis, logger)
	rateLimitRepo := redis.NewRateLimitRepo(redisClient)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		return err
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer minioCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		logger.Errorf(err, "failed to initialize MinIO bucket")
		return err
	}
	invoiceRepo := s3Repo.NewInvoiceRepo(minioClient, cfg.Minio)

	renderer, err := invoice.NewHTMLRenderer()
	if err != nil {
		logger.Errorf(err, "failed to parse invoice template")
		return err
	}

	dispatcher := events.NewOutboxDispatcher(outboxRepo)

	inventoryUC := usecase.NewInventoryUC(productRepo, logRepo, txManager, cacheRepo, dispatcher, logger)
	productUC := usecase.NewProductUC(productRepo, inventoryUC, txManager, cacheRepo, logger)
	orderUC := usecase.NewOrderUC(orderRepo, productRepo, inventoryUC, dispatcher, txManager, cacheRepo, logger)
	invoiceUC := usecase.NewInvoiceUC(orderRepo, userRepo, invoiceRepo, renderer, logger)
	authUC := usecase.NewAuthUC(userRepo, auth.NewBcryptHasher(0), auth.NewJWTIssuer(cfg.Auth), logger)

	producer := kafka.NewProducer(logger, cfg.Kafka)
	if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
		// топик может создать администратор кластера; воркер повторит отправку
		logger.Warnf("failed to ensure kafka topic %s: %v", cfg.Kafka.Topic, err)
	}
	a.closer.AddSimple("kafka producer", producer.Close)

	a.worker = kafka.NewOutboxWorker(outboxRepo, logger, producer, cfg.Outbox, db.Dsn)
	a.lowStock = jobs.NewLowStockJob(inventoryUC, cfg.Jobs.LowStockInterval, logger)

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, logger)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(
		v1Http.NewMiddleware(authUC, rateLimitRepo, cfg.RateLimit, logger),
		v1Http.Handlers{
			Auth:      v1Http.NewAuthHandler(authUC, logger),
			Products:  v1Http.NewProductHandler(productUC, logger),
			Inventory: v1Http.NewInventoryHandler(inventoryUC, productUC, logger),
			Orders:    v1Http.NewOrderHandler(orderUC, invoiceUC, logger),
		},
	)
	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return nil
}

// Run запускает серверы и фоновые процессы и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	logger := a.logger

	a.worker.Start(a.bgCtx)
	a.lowStock.Start(a.bgCtx)
	go a.grpcSrv.MonitorDependencies(a.bgCtx, healthProbeInterval, a.probes...)

	go func() {
		logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			logger.Errorf(err, "gRPC server failed")
			a.grpcErrCh <- err
		}
	}()

	go func() {
		logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed")
			a.httpErrCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-a.httpErrCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-a.grpcErrCh:
		logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.stop()

	logger.Infof("Application shutdown complete")
	return appErr
}

// stop останавливает приём запросов, затем фоновые процессы, затем закрывает подключения.
func (a *App) stop() {
	logger := a.logger

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		logger.Errorf(err, "HTTP server shutdown error")
	} else {
		logger.Infof("HTTP server stopped")
	}

	if err := a.grpcSrv.Stop(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			logger.Errorf(err, "gRPC server shutdown error")
		} else {
			logger.Warnf("gRPC server shutdown timeout")
		}
	}

	a.bgCancel()
	a.lowStock.Stop()
	a.worker.Stop()

	if err := a.closer.Close(shutdownCtx); err != nil {
		logger.Warnf("%v", err)
	}
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
