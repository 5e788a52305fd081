package main

import (
	"os"

	"github.com/DRSN-tech/order-backend/internal/app"
	config "github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

//	@title						Order Backend API
//	@version					1.0
//	@description				Каталог, склад и заказы.
//	@host						localhost:8080
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	logCfg := config.LoadLogCfg()
	log := logger.New(logCfg.Backend, logCfg.Level)

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
