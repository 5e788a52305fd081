// Процесс уведомлений: читает события заказов и склада из Kafka и уведомляет покупателей и продавцов.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/events"
	"github.com/DRSN-tech/order-backend/internal/infrastructure/kafka"
	"github.com/DRSN-tech/order-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/order-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/order-backend/pkg/closer"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/DRSN-tech/order-backend/pkg/postgres"
	"github.com/joho/godotenv"
)

func main() {
	logCfg := config.LoadLogCfg()
	log := logger.New(logCfg.Backend, logCfg.Level)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to read .env file: %v", err)
	}

	kafkaCfg, err := config.LoadKafkaCfg()
	if err != nil {
		log.Errorf(err, "failed to load kafka config")
		os.Exit(1)
	}

	dbCfg, err := config.LoadPGDBCfg(log)
	if err != nil {
		log.Errorf(err, "failed to load database config")
		os.Exit(1)
	}

	db, err := postgres.Connect(dbCfg)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		os.Exit(1)
	}

	cl := closer.NewCloser(0)
	cl.AddSimple("postgres", func() error { db.Close(); return nil })

	userRepo := pgdb.NewUserRepo(db.Pool, pgdbConv.UserConverter{})
	consumer := kafka.NewConsumer(kafkaCfg, events.NewNotifier(userRepo, log), log)
	cl.AddSimple("kafka consumer", consumer.Close)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("notifier consuming topic %s as group %s", kafkaCfg.Topic, kafkaCfg.GroupID)
	runErr := consumer.Run(ctx)
	if runErr != nil {
		log.Errorf(runErr, "consumer stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cl.Close(shutdownCtx); err != nil {
		log.Warnf("%v", err)
	}

	log.Infof("Notifier shutdown complete")
	if runErr != nil {
		os.Exit(1)
	}
}
