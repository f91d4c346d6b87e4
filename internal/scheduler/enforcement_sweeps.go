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

// Nomes das varreduras aceitos pelo disparo manual.
const (
	SweepBudget       = "budget"
	SweepDayparting   = "dayparting"
	SweepReactivation = "reactivation"
)

// EnforcementSweepConfig representa a configuração do agendador de varreduras
type EnforcementSweepConfig struct {
	BudgetCron         string
	BudgetEnabled      bool
	DaypartingCron     string
	DaypartingEnabled  bool
	ReactivationCron   string
	ReactivationEnable bool
}

// EnforcementSweepService gerencia o agendamento das varreduras de orçamento,
// dayparting e reativação. Cada varredura tem seu próprio cron; uma execução
// em andamento nunca é sobreposta por outra da mesma varredura.
type EnforcementSweepService struct {
	scheduler *gocron.Scheduler
	config    EnforcementSweepConfig
	enforcer  enforcement.Enforcer

	sweepMutex          sync.Mutex
	sweepRunning        map[string]bool
	lastSweepStartedAt  map[string]time.Time
	lastSweepFinishedAt map[string]time.Time
}

// NewEnforcementSweepService cria uma nova instância do serviço de varreduras
func NewEnforcementSweepService(enforcer enforcement.Enforcer, appConfig *config.Config) *EnforcementSweepService {
	sweepConfig := EnforcementSweepConfig{
		BudgetCron:         appConfig.BudgetSweep.CronSchedule,
		BudgetEnabled:      appConfig.BudgetSweep.Enabled,
		DaypartingCron:     appConfig.DaypartingSweep.CronSchedule,
		DaypartingEnabled:  appConfig.DaypartingSweep.Enabled,
		ReactivationCron:   appConfig.Reactivation.CronSchedule,
		ReactivationEnable: appConfig.Reactivation.Enabled,
	}

	logrus.WithFields(logrus.Fields{
		"budget_cron":          sweepConfig.BudgetCron,
		"budget_enabled":       sweepConfig.BudgetEnabled,
		"dayparting_cron":      sweepConfig.DaypartingCron,
		"dayparting_enabled":   sweepConfig.DaypartingEnabled,
		"reactivation_cron":    sweepConfig.ReactivationCron,
		"reactivation_enabled": sweepConfig.ReactivationEnable,
	}).Info("Configuração do agendador de varreduras carregada")

	return &EnforcementSweepService{
		scheduler:           gocron.NewScheduler(time.Local),
		config:              sweepConfig,
		enforcer:            enforcer,
		sweepRunning:        make(map[string]bool),
		lastSweepStartedAt:  make(map[string]time.Time),
		lastSweepFinishedAt: make(map[string]time.Time),
	}
}

// Start inicia o agendador
func (s *EnforcementSweepService) Start(ctx context.Context) error {
	if s.config.BudgetEnabled {
		if _, err := s.scheduler.Cron(s.config.BudgetCron).Do(func() {
			s.runSweep(SweepBudget)
		}); err != nil {
			return fmt.Errorf("erro ao agendar varredura de orçamento: %w", err)
		}
	} else {
		logrus.Info("Varredura de orçamento desabilitada por configuração")
	}

	if s.config.DaypartingEnabled {
		if _, err := s.scheduler.Cron(s.config.DaypartingCron).Do(func() {
			s.runSweep(SweepDayparting)
		}); err != nil {
			return fmt.Errorf("erro ao agendar varredura de dayparting: %w", err)
		}
	} else {
		logrus.Info("Varredura de dayparting desabilitada por configuração")
	}

	if s.config.ReactivationEnable {
		if _, err := s.scheduler.Cron(s.config.ReactivationCron).Do(func() {
			s.runSweep(SweepReactivation)
		}); err != nil {
			return fmt.Errorf("erro ao agendar varredura de reativação: %w", err)
		}
	} else {
		logrus.Info("Varredura de reativação desabilitada por configuração")
	}

	logrus.Info("Iniciando agendador de varreduras")
	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de varreduras")
		s.scheduler.Stop()
	}()

	return nil
}

// TriggerManualSweep dispara uma varredura fora do cron. Retorna erro para
// nome desconhecido; varredura já em andamento é ignorada em silêncio.
func (s *EnforcementSweepService) TriggerManualSweep(sweep string) error {
	switch sweep {
	case SweepBudget, SweepDayparting, SweepReactivation:
	default:
		return fmt.Errorf("varredura desconhecida: %s", sweep)
	}

	logrus.WithField("sweep", sweep).Info("Iniciando varredura manual")
	go s.runSweep(sweep)

	return nil
}

// GetStatus retorna o status atual do agendador. Os mapas de horário saem
// como cópias: o chamador serializa fora do lock enquanto as varreduras
// continuam gravando.
func (s *EnforcementSweepService) GetStatus() map[string]any {
	s.sweepMutex.Lock()
	defer s.sweepMutex.Unlock()

	return map[string]any{
		"budget_enabled":       s.config.BudgetEnabled,
		"budget_cron":          s.config.BudgetCron,
		"dayparting_enabled":   s.config.DaypartingEnabled,
		"dayparting_cron":      s.config.DaypartingCron,
		"reactivation_enabled": s.config.ReactivationEnable,
		"reactivation_cron":    s.config.ReactivationCron,
		"running":              s.runningSweeps(),
		"last_started_at":      copySweepTimes(s.lastSweepStartedAt),
		"last_finished_at":     copySweepTimes(s.lastSweepFinishedAt),
	}
}

func (s *EnforcementSweepService) runningSweeps() []string {
	running := make([]string, 0)
	for sweep, active := range s.sweepRunning {
		if active {
			running = append(running, sweep)
		}
	}
	return running
}

func copySweepTimes(src map[string]time.Time) map[string]time.Time {
	dst := make(map[string]time.Time, len(src))
	for sweep, at := range src {
		dst[sweep] = at
	}
	return dst
}

func (s *EnforcementSweepService) runSweep(sweep string) {
	s.sweepMutex.Lock()
	if s.sweepRunning[sweep] {
		s.sweepMutex.Unlock()
		logrus.WithField("sweep", sweep).Info("Varredura já em andamento, ignorando")
		return
	}
	s.sweepRunning[sweep] = true
	s.lastSweepStartedAt[sweep] = time.Now()
	s.sweepMutex.Unlock()

	defer func() {
		s.sweepMutex.Lock()
		s.sweepRunning[sweep] = false
		s.lastSweepFinishedAt[sweep] = time.Now()
		s.sweepMutex.Unlock()
	}()

	ctx := context.Background()

	var err error
	switch sweep {
	case SweepBudget:
		_, err = s.enforcer.SweepBudgets(ctx)
	case SweepDayparting:
		_, err = s.enforcer.SweepDayparting(ctx)
	case SweepReactivation:
		_, err = s.enforcer.SweepReactivations(ctx)
	}

	if err != nil {
		logrus.WithError(err).WithField("sweep", sweep).Error("Erro ao executar varredura")
	}
}
