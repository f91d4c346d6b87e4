package spending

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vfg2006/budget-control-api/infrastructure/database/postgres"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/internal/config"
	"github.com/vfg2006/budget-control-api/internal/domain"
	"github.com/vfg2006/budget-control-api/pkg/log"
)

var (
	ErrNegativeAmount   = errors.New("valor de gasto não pode ser negativo")
	ErrCampaignNotFound = errors.New("campanha não encontrada")
)

type Recorder interface {
	RecordSpend(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*domain.Campaign, error)
	SimulateSpends(ctx context.Context) (int, error)
}

type Service struct {
	tx           postgres.TxRunner
	campaignRepo repository.CampaignRepository
	spendRepo    repository.SpendRepository
	scheduleRepo repository.ScheduleRepository
	cfg          *config.Config

	// now é injetado para que as regras de data e hora sejam testáveis
	now func() time.Time
}

func NewService(
	tx postgres.TxRunner,
	campaignRepo repository.CampaignRepository,
	spendRepo repository.SpendRepository,
	scheduleRepo repository.ScheduleRepository,
	cfg *config.Config,
) *Service {
	return &Service{
		tx:           tx,
		campaignRepo: campaignRepo,
		spendRepo:    spendRepo,
		scheduleRepo: scheduleRepo,
		cfg:          cfg,
		now:          time.Now,
	}
}

// RecordSpend registra um gasto na campanha e aplica a verificação inline de
// orçamento. Tudo acontece em uma transação com a linha da campanha travada,
// então dois registros concorrentes da mesma campanha são serializados e
// nenhum incremento se perde.
func (s *Service) RecordSpend(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*domain.Campaign, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	// Consulta fora da transação só para falhar cedo com um erro claro;
	// a checagem que vale é a releitura com FOR UPDATE logo abaixo.
	existing, err := s.campaignRepo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCampaignNotFound
	}

	var updated domain.Campaign

	err = s.tx.RunInTransaction(ctx, func(q postgres.Queryer) error {
		campaign, err := s.campaignRepo.GetCampaignForUpdate(ctx, q, campaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}

		spend := domain.NewSpend(campaignID, amount, s.now())
		if err := s.spendRepo.Create(ctx, q, spend); err != nil {
			return err
		}

		next := campaign.ApplySpend(amount)
		next, paused := next.CheckRecordedSpend()

		if err := s.campaignRepo.SaveSpendRecording(ctx, q, &next); err != nil {
			return err
		}

		if paused {
			log.ForContext(ctx).WithFields(log.Fields{
				"campaign_id":  campaignID,
				"pause_reason": *next.PauseReason,
				"daily_spend":  next.DailySpend,
				"amount":       amount,
			}).Info("Campanha pausada no registro de gasto")
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// SimulateSpends gera gastos sintéticos para campanhas ativas com alguma
// agenda aberta no momento; campanha sem agenda não recebe gasto simulado.
// Serve apenas para demonstrar o fluxo de ponta a ponta; retorna quantos
// gastos foram registrados.
func (s *Service) SimulateSpends(ctx context.Context) (int, error) {
	campaigns, err := s.campaignRepo.ListCampaigns(ctx, repository.CampaignFilter{
		Statuses:   []domain.CampaignStatus{domain.CampaignStatusActive},
		ActiveOnly: true,
	})
	if err != nil {
		return 0, err
	}

	now := s.now()
	recorded := 0

	for _, campaign := range campaigns {
		schedules, err := s.scheduleRepo.ListSchedulesByCampaign(ctx, campaign.ID)
		if err != nil {
			log.ForContext(ctx).WithError(err).WithField("campaign_id", campaign.ID).
				Warn("Erro ao consultar agendas; pulando campanha na simulação")
			continue
		}

		if len(schedules) == 0 || !campaign.IsWithinDayparting(schedules, now) {
			continue
		}

		amount := s.randomAmount()

		if _, err := s.RecordSpend(ctx, campaign.ID, amount); err != nil {
			log.ForContext(ctx).WithError(err).WithField("campaign_id", campaign.ID).
				Warn("Erro ao registrar gasto simulado")
			continue
		}

		recorded++
	}

	return recorded, nil
}

func (s *Service) randomAmount() decimal.Decimal {
	min := s.cfg.SpendSimulation.MinAmount
	max := s.cfg.SpendSimulation.MaxAmount
	if max <= min {
		return decimal.NewFromFloat(min).Round(2)
	}

	value := min + rand.Float64()*(max-min)
	return decimal.NewFromFloat(value).Round(2)
}
