package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/internal/config"
	"github.com/vfg2006/budget-control-api/internal/usecases/spending"
)

// SpendSimulationConfig representa a configuração do gerador de gasto sintético
type SpendSimulationConfig struct {
	CronSchedule string
	Enabled      bool
	MinAmount    float64
	MaxAmount    float64
}

// SpendSimulationService gera gastos sintéticos para campanhas ativas dentro
// de suas janelas. Desabilitado por padrão; só serve para demonstrar o fluxo
// de enforcement de ponta a ponta sem um emissor de tráfego real.
type SpendSimulationService struct {
	scheduler *gocron.Scheduler
	config    SpendSimulationConfig
	recorder  spending.Recorder

	simMutex     sync.Mutex
	simRunning   bool
	lastRunAt    time.Time
	lastRecorded int
}

// NewSpendSimulationService cria uma nova instância do simulador de gastos
func NewSpendSimulationService(recorder spending.Recorder, appConfig *config.Config) *SpendSimulationService {
	simConfig := SpendSimulationConfig{
		CronSchedule: appConfig.SpendSimulation.CronSchedule,
		Enabled:      appConfig.SpendSimulation.Enabled,
		MinAmount:    appConfig.SpendSimulation.MinAmount,
		MaxAmount:    appConfig.SpendSimulation.MaxAmount,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": simConfig.CronSchedule,
		"enabled":       simConfig.Enabled,
		"min_amount":    simConfig.MinAmount,
		"max_amount":    simConfig.MaxAmount,
	}).Info("Configuração do simulador de gastos carregada")

	return &SpendSimulationService{
		scheduler: gocron.NewScheduler(time.Local),
		config:    simConfig,
		recorder:  recorder,
	}
}

// Start inicia o agendador
func (s *SpendSimulationService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Simulador de gastos desabilitado por configuração")
		return nil
	}

	if _, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runSimulation()
	}); err != nil {
		return fmt.Errorf("erro ao agendar simulador de gastos: %w", err)
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando simulador de gastos")
	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando simulador de gastos")
		s.scheduler.Stop()
	}()

	return nil
}

// GetStatus retorna o status atual do simulador
func (s *SpendSimulationService) GetStatus() map[string]any {
	s.simMutex.Lock()
	defer s.simMutex.Unlock()

	return map[string]any{
		"enabled":       s.config.Enabled,
		"cron":          s.config.CronSchedule,
		"min_amount":    s.config.MinAmount,
		"max_amount":    s.config.MaxAmount,
		"running":       s.simRunning,
		"last_run_at":   s.lastRunAt,
		"last_recorded": s.lastRecorded,
	}
}

func (s *SpendSimulationService) runSimulation() {
	s.simMutex.Lock()
	if s.simRunning {
		s.simMutex.Unlock()
		logrus.Info("Simulação de gastos já em andamento, ignorando")
		return
	}
	s.simRunning = true
	s.simMutex.Unlock()

	defer func() {
		s.simMutex.Lock()
		s.simRunning = false
		s.lastRunAt = time.Now()
		s.simMutex.Unlock()
	}()

	recorded, err := s.recorder.SimulateSpends(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Erro ao gerar gastos simulados")
		return
	}

	s.simMutex.Lock()
	s.lastRecorded = recorded
	s.simMutex.Unlock()

	if recorded > 0 {
		logrus.WithField("recorded", recorded).Info("Gastos simulados registrados")
	}
}
