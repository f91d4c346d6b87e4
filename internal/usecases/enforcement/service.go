package enforcement

import (
	"context"
	"time"

	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/internal/domain"
	"github.com/vfg2006/budget-control-api/pkg/log"
	"github.com/vfg2006/budget-control-api/pkg/utils"
)

// SweepResult resume uma execução de varredura. As varreduras decidem em
// memória e gravam com compare-and-set; Skipped conta as gravações perdidas
// para outra varredura concorrente, que não são erro.
type SweepResult struct {
	RunID   string `json:"run_id"`
	Checked int    `json:"checked"`
	Paused  int    `json:"paused"`
	Resumed int    `json:"resumed"`
	Skipped int    `json:"skipped"`
}

type Enforcer interface {
	SweepBudgets(ctx context.Context) (*SweepResult, error)
	SweepDayparting(ctx context.Context) (*SweepResult, error)
	SweepReactivations(ctx context.Context) (*SweepResult, error)
	ResetDailyBudgets(ctx context.Context) error
	ResetMonthlyBudgets(ctx context.Context) error
}

type Service struct {
	brandRepo    repository.BrandRepository
	campaignRepo repository.CampaignRepository
	scheduleRepo repository.ScheduleRepository

	// now é injetado para que o dayparting seja testável em qualquer horário
	now func() time.Time
}

func NewService(
	brandRepo repository.BrandRepository,
	campaignRepo repository.CampaignRepository,
	scheduleRepo repository.ScheduleRepository,
) *Service {
	return &Service{
		brandRepo:    brandRepo,
		campaignRepo: campaignRepo,
		scheduleRepo: scheduleRepo,
		now:          time.Now,
	}
}

// SweepBudgets reavalia marcas e campanhas contra os limites de orçamento com
// a comparação >= da varredura periódica. Pausa quem estourou, reativa quem
// voltou a ter saldo, e é idempotente: rodar duas vezes seguidas não muda nada
// na segunda passada.
func (s *Service) SweepBudgets(ctx context.Context) (*SweepResult, error) {
	result, logger := s.newSweep(ctx, "budget")

	brands, err := s.brandRepo.ListBrands(ctx)
	if err != nil {
		return nil, err
	}

	for _, brand := range brands {
		result.Checked++

		next, changed := brand.CheckBudgetLimits()
		if !changed {
			continue
		}

		ok, err := s.brandRepo.ApplyActivationChange(ctx, &next, brand.IsActive)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Skipped++
			logger.WithField("brand_id", brand.ID).Info("Marca alterada por outra varredura; pulando")
			continue
		}

		if next.IsActive {
			result.Resumed++
			logger.WithField("brand_id", brand.ID).Info("Marca reativada com saldo de orçamento")
		} else {
			result.Paused++
			logger.WithField("brand_id", brand.ID).Info("Marca desativada por limite de orçamento")
		}
	}

	campaigns, err := s.campaignRepo.ListCampaigns(ctx, repository.CampaignFilter{
		Statuses: []domain.CampaignStatus{domain.CampaignStatusActive, domain.CampaignStatusPaused},
	})
	if err != nil {
		return nil, err
	}

	for _, campaign := range campaigns {
		result.Checked++

		next, changed := campaign.CheckBudgetLimits()
		if !changed {
			continue
		}

		ok, err := s.campaignRepo.ApplyStatusChange(ctx, &next, campaign.Status)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Skipped++
			logger.WithField("campaign_id", campaign.ID).Info("Campanha alterada por outra varredura; pulando")
			continue
		}

		if next.Status == domain.CampaignStatusActive {
			result.Resumed++
			logger.WithField("campaign_id", campaign.ID).Info("Campanha reativada com saldo de orçamento")
		} else {
			result.Paused++
			logger.WithFields(log.Fields{
				"campaign_id":  campaign.ID,
				"pause_reason": *next.PauseReason,
			}).Info("Campanha pausada por limite de orçamento")
		}
	}

	logger.WithFields(resultFields(result)).Info("Varredura de orçamento concluída")

	return result, nil
}

// SweepDayparting pausa campanhas fora da janela horária e reativa as que a
// janela voltou a cobrir. Campanha sem nenhuma agenda é irrestrita e nunca é
// tocada aqui; campanha pausada por orçamento também não, o orçamento tem
// precedência sobre o horário.
func (s *Service) SweepDayparting(ctx context.Context) (*SweepResult, error) {
	result, logger := s.newSweep(ctx, "dayparting")
	now := s.now()

	campaigns, err := s.campaignRepo.ListCampaigns(ctx, repository.CampaignFilter{
		Statuses:   []domain.CampaignStatus{domain.CampaignStatusActive, domain.CampaignStatusPaused},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	for _, campaign := range campaigns {
		if campaign.IsPausedForBudget() {
			continue
		}

		schedules, err := s.scheduleRepo.ListSchedulesByCampaign(ctx, campaign.ID)
		if err != nil {
			return nil, err
		}

		if len(schedules) == 0 {
			continue
		}

		result.Checked++
		within := campaign.IsWithinDayparting(schedules, now)

		switch {
		case !within && campaign.Status == domain.CampaignStatusActive:
			next := campaign.PauseForDayparting()

			ok, err := s.campaignRepo.ApplyStatusChange(ctx, &next, domain.CampaignStatusActive)
			if err != nil {
				return nil, err
			}
			if !ok {
				result.Skipped++
				logger.WithField("campaign_id", campaign.ID).Info("Campanha alterada por outra varredura; pulando")
				continue
			}

			result.Paused++
			logger.WithField("campaign_id", campaign.ID).Info("Campanha pausada fora da janela de dayparting")

		case within && campaign.IsPausedFor(domain.PauseReasonOutsideDayparting):
			// Sem saldo a campanha não volta por aqui; a varredura de
			// orçamento vai reclassificar o motivo da pausa.
			if !campaign.CanResume() {
				continue
			}

			next := campaign.Resume()

			ok, err := s.campaignRepo.ApplyStatusChange(ctx, &next, domain.CampaignStatusPaused)
			if err != nil {
				return nil, err
			}
			if !ok {
				result.Skipped++
				logger.WithField("campaign_id", campaign.ID).Info("Campanha alterada por outra varredura; pulando")
				continue
			}

			result.Resumed++
			logger.WithField("campaign_id", campaign.ID).Info("Campanha reativada dentro da janela de dayparting")
		}
	}

	logger.WithFields(resultFields(result)).Info("Varredura de dayparting concluída")

	return result, nil
}

// SweepReactivations percorre campanhas pausadas, qualquer que seja o motivo
// da pausa, e reativa as que voltaram a ter saldo estrito nos dois
// acumuladores, tipicamente após um reset diário ou mensal. Uma campanha que
// voltar fora da janela é pausada de novo pela varredura de dayparting.
func (s *Service) SweepReactivations(ctx context.Context) (*SweepResult, error) {
	result, logger := s.newSweep(ctx, "reactivation")

	campaigns, err := s.campaignRepo.ListCampaigns(ctx, repository.CampaignFilter{
		Statuses: []domain.CampaignStatus{domain.CampaignStatusPaused},
	})
	if err != nil {
		return nil, err
	}

	for _, campaign := range campaigns {
		result.Checked++

		if !campaign.CanResume() {
			continue
		}

		next := campaign.Resume()

		ok, err := s.campaignRepo.ApplyStatusChange(ctx, &next, domain.CampaignStatusPaused)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Skipped++
			logger.WithField("campaign_id", campaign.ID).Info("Campanha alterada por outra varredura; pulando")
			continue
		}

		result.Resumed++
		logger.WithField("campaign_id", campaign.ID).Info("Campanha reativada após reset de orçamento")
	}

	logger.WithFields(resultFields(result)).Info("Varredura de reativação concluída")

	return result, nil
}

// ResetDailyBudgets zera os acumuladores diários de marcas e campanhas na
// virada do dia. As campanhas pausadas não são reativadas aqui: a varredura
// de reativação seguinte faz isso ao ver saldo de novo.
func (s *Service) ResetDailyBudgets(ctx context.Context) error {
	brands, err := s.brandRepo.ResetDailySpend(ctx)
	if err != nil {
		return err
	}

	campaigns, err := s.campaignRepo.ResetDailySpend(ctx)
	if err != nil {
		return err
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"brands":    brands,
		"campaigns": campaigns,
	}).Info("Acumuladores diários zerados")

	return nil
}

// ResetMonthlyBudgets zera os acumuladores mensais na virada do mês.
func (s *Service) ResetMonthlyBudgets(ctx context.Context) error {
	brands, err := s.brandRepo.ResetMonthlySpend(ctx)
	if err != nil {
		return err
	}

	campaigns, err := s.campaignRepo.ResetMonthlySpend(ctx)
	if err != nil {
		return err
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"brands":    brands,
		"campaigns": campaigns,
	}).Info("Acumuladores mensais zerados")

	return nil
}

func (s *Service) newSweep(ctx context.Context, sweep string) (*SweepResult, log.Logger) {
	runID, err := utils.GenerateRunID()
	if err != nil {
		runID = "------"
	}

	result := &SweepResult{RunID: runID}

	logger := log.ForContext(ctx).WithFields(log.Fields{
		"sweep":  sweep,
		"run_id": runID,
	})

	return result, logger
}

func resultFields(result *SweepResult) log.Fields {
	return log.Fields{
		"checked": result.Checked,
		"paused":  result.Paused,
		"resumed": result.Resumed,
		"skipped": result.Skipped,
	}
}
