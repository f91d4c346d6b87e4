package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/internal/config"
	"github.com/vfg2006/budget-control-api/internal/usecases/enforcement"
)

// BudgetResetConfig representa a configuração do agendador de resets
type BudgetResetConfig struct {
	DailyCron   string
	MonthlyCron string
	Enabled     bool
}

// BudgetResetService zera os acumuladores diários na virada do dia e os
// mensais na virada do mês. Os resets não reativam nada: a varredura de
// reativação seguinte faz isso ao reencontrar saldo.
type BudgetResetService struct {
	scheduler *gocron.Scheduler
	config    BudgetResetConfig
	enforcer  enforcement.Enforcer

	resetMutex         sync.Mutex
	lastResetAt        time.Time
	lastMonthlyResetAt time.Time
}

// NewBudgetResetService cria uma nova instância do serviço de resets
func NewBudgetResetService(enforcer enforcement.Enforcer, appConfig *config.Config) *BudgetResetService {
	resetConfig := BudgetResetConfig{
		DailyCron:   appConfig.BudgetResets.DailyCronSchedule,
		MonthlyCron: appConfig.BudgetResets.MonthlyCronSchedule,
		Enabled:     appConfig.BudgetResets.Enabled,
	}

	logrus.WithFields(logrus.Fields{
		"daily_cron":   resetConfig.DailyCron,
		"monthly_cron": resetConfig.MonthlyCron,
		"enabled":      resetConfig.Enabled,
	}).Info("Configuração do agendador de resets carregada")

	return &BudgetResetService{
		scheduler: gocron.NewScheduler(time.Local),
		config:    resetConfig,
		enforcer:  enforcer,
	}
}

// Start inicia o agendador
func (s *BudgetResetService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Resets de orçamento desabilitados por configuração")
		return nil
	}

	if _, err := s.scheduler.Cron(s.config.DailyCron).Do(func() {
		s.runDailyReset()
	}); err != nil {
		return fmt.Errorf("erro ao agendar reset diário: %w", err)
	}

	// Na virada do mês os dois crons coincidem; o mutex serializa os resets
	if _, err := s.scheduler.Cron(s.config.MonthlyCron).Do(func() {
		s.runMonthlyReset()
	}); err != nil {
		return fmt.Errorf("erro ao agendar reset mensal: %w", err)
	}

	logrus.Info("Iniciando agendador de resets de orçamento")
	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de resets de orçamento")
		s.scheduler.Stop()
	}()

	return nil
}

// GetStatus retorna o status atual do agendador
func (s *BudgetResetService) GetStatus() map[string]any {
	s.resetMutex.Lock()
	defer s.resetMutex.Unlock()

	return map[string]any{
		"enabled":               s.config.Enabled,
		"daily_cron":            s.config.DailyCron,
		"monthly_cron":          s.config.MonthlyCron,
		"last_daily_reset_at":   s.lastResetAt,
		"last_monthly_reset_at": s.lastMonthlyResetAt,
	}
}

func (s *BudgetResetService) runDailyReset() {
	s.resetMutex.Lock()
	defer s.resetMutex.Unlock()

	if err := s.enforcer.ResetDailyBudgets(context.Background()); err != nil {
		logrus.WithError(err).Error("Erro ao executar reset diário de orçamento")
		return
	}

	s.lastResetAt = time.Now()
}

func (s *BudgetResetService) runMonthlyReset() {
	s.resetMutex.Lock()
	defer s.resetMutex.Unlock()

	if err := s.enforcer.ResetMonthlyBudgets(context.Background()); err != nil {
		logrus.WithError(err).Error("Erro ao executar reset mensal de orçamento")
		return
	}

	s.lastMonthlyResetAt = time.Now()
}
