package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/infrastructure/database/postgres"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/internal/api"
	"github.com/vfg2006/budget-control-api/internal/config"
	"github.com/vfg2006/budget-control-api/internal/scheduler"
	"github.com/vfg2006/budget-control-api/internal/usecases/authenticating"
	"github.com/vfg2006/budget-control-api/internal/usecases/enforcement"
	"github.com/vfg2006/budget-control-api/internal/usecases/spending"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	brandRepo := repository.NewBrandRepository(pgConn)
	campaignRepo := repository.NewCampaignRepository(pgConn)
	spendRepo := repository.NewSpendRepository(pgConn)
	scheduleRepo := repository.NewScheduleRepository(pgConn)
	userRepo := repository.NewUserRepository(pgConn)

	authenticator := authenticating.NewService(userRepo, cfg)

	if err := authenticator.EnsureBootstrapAdmin(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao garantir o administrador inicial")
	}

	recorder := spending.NewService(pgConn, campaignRepo, spendRepo, scheduleRepo, cfg)
	enforcer := enforcement.NewService(brandRepo, campaignRepo, scheduleRepo)

	// Inicializa os agendadores das varreduras, resets e simulação
	sweepService := scheduler.NewEnforcementSweepService(enforcer, cfg)
	resetService := scheduler.NewBudgetResetService(enforcer, cfg)
	simulationService := scheduler.NewSpendSimulationService(recorder, cfg)

	if err := sweepService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de varreduras")
	} else {
		logrus.Info("Agendador de varreduras iniciado com sucesso")
	}

	if err := resetService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de resets de orçamento")
	} else {
		logrus.Info("Agendador de resets de orçamento iniciado com sucesso")
	}

	if err := simulationService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o simulador de gastos")
	} else {
		logrus.Info("Simulador de gastos iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		brandRepo,
		campaignRepo,
		spendRepo,
		scheduleRepo,
		recorder,
		authenticator,
		sweepService,
		resetService,
		simulationService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
