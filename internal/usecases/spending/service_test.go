package spending

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/budget-control-api/infrastructure/database/postgres"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/infrastructure/repository/mocks"
	"github.com/vfg2006/budget-control-api/internal/config"
	"github.com/vfg2006/budget-control-api/internal/domain"
	"go.uber.org/mock/gomock"
)

// fakeTxRunner executa a função diretamente, sem banco. Os repositórios dos
// testes são mocks, então o Queryer entregue nunca é usado de verdade.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(ctx context.Context, fn func(q postgres.Queryer) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (*Service, *mocks.MockCampaignRepository, *mocks.MockSpendRepository, *mocks.MockScheduleRepository) {
	ctrl := gomock.NewController(t)

	campaignRepo := mocks.NewMockCampaignRepository(ctrl)
	spendRepo := mocks.NewMockSpendRepository(ctrl)
	scheduleRepo := mocks.NewMockScheduleRepository(ctrl)

	cfg := &config.Config{
		SpendSimulation: config.SpendSimulation{
			MinAmount: 1.0,
			MaxAmount: 5.0,
		},
	}

	service := NewService(fakeTxRunner{}, campaignRepo, spendRepo, scheduleRepo, cfg)
	service.now = func() time.Time {
		return time.Date(2024, 3, 12, 14, 30, 0, 0, time.UTC)
	}

	return service, campaignRepo, spendRepo, scheduleRepo
}

func activeCampaign(daily, monthly, dailySpent, monthlySpent int64) *domain.Campaign {
	return &domain.Campaign{
		ID:            uuid.New(),
		BrandID:       uuid.New(),
		Name:          "Campanha de teste",
		Status:        domain.CampaignStatusActive,
		DailyBudget:   decimal.NewFromInt(daily),
		MonthlyBudget: decimal.NewFromInt(monthly),
		DailySpend:    decimal.NewFromInt(dailySpent),
		MonthlySpend:  decimal.NewFromInt(monthlySpent),
		IsActive:      true,
	}
}

func TestService_RecordSpend(t *testing.T) {
	ctx := context.Background()

	t.Run("rejeita valor negativo sem tocar no banco", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, err := service.RecordSpend(ctx, uuid.New(), decimal.NewFromInt(-1))

		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("campanha inexistente", func(t *testing.T) {
		service, campaignRepo, _, _ := newTestService(t)
		campaignID := uuid.New()

		campaignRepo.EXPECT().GetCampaignByID(gomock.Any(), campaignID).Return(nil, nil)

		_, err := service.RecordSpend(ctx, campaignID, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, ErrCampaignNotFound)
	})

	t.Run("gasto que ultrapassa o diário pausa a campanha", func(t *testing.T) {
		service, campaignRepo, spendRepo, _ := newTestService(t)

		campaign := activeCampaign(50, 1000, 45, 200)

		campaignRepo.EXPECT().GetCampaignByID(gomock.Any(), campaign.ID).Return(campaign, nil)
		campaignRepo.EXPECT().GetCampaignForUpdate(gomock.Any(), gomock.Any(), campaign.ID).Return(campaign, nil)

		spendRepo.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ postgres.Queryer, spend *domain.Spend) error {
				assert.Equal(t, campaign.ID, spend.CampaignID)
				assert.True(t, spend.Amount.Equal(decimal.NewFromInt(10)))
				require.NotNil(t, spend.Hour)
				assert.Equal(t, 14, *spend.Hour)
				return nil
			})

		campaignRepo.EXPECT().
			SaveSpendRecording(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ postgres.Queryer, saved *domain.Campaign) error {
				assert.True(t, saved.DailySpend.Equal(decimal.NewFromInt(55)))
				assert.True(t, saved.MonthlySpend.Equal(decimal.NewFromInt(210)))
				return nil
			})

		updated, err := service.RecordSpend(ctx, campaign.ID, decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusPaused, updated.Status)
		require.NotNil(t, updated.PauseReason)
		assert.Equal(t, domain.PauseReasonDailyBudgetExceeded, *updated.PauseReason)
		assert.False(t, updated.IsActive)
	})

	t.Run("gasto exatamente no limite não pausa inline", func(t *testing.T) {
		service, campaignRepo, spendRepo, _ := newTestService(t)

		campaign := activeCampaign(50, 1000, 40, 200)

		campaignRepo.EXPECT().GetCampaignByID(gomock.Any(), campaign.ID).Return(campaign, nil)
		campaignRepo.EXPECT().GetCampaignForUpdate(gomock.Any(), gomock.Any(), campaign.ID).Return(campaign, nil)
		spendRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		campaignRepo.EXPECT().SaveSpendRecording(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := service.RecordSpend(ctx, campaign.ID, decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusActive, updated.Status)
		assert.True(t, updated.DailySpend.Equal(decimal.NewFromInt(50)))
		assert.True(t, updated.IsActive)
	})

	t.Run("valor zero gera registro de gasto sem pausar", func(t *testing.T) {
		service, campaignRepo, spendRepo, _ := newTestService(t)

		campaign := activeCampaign(50, 1000, 45, 200)

		campaignRepo.EXPECT().GetCampaignByID(gomock.Any(), campaign.ID).Return(campaign, nil)
		campaignRepo.EXPECT().GetCampaignForUpdate(gomock.Any(), gomock.Any(), campaign.ID).Return(campaign, nil)

		spendRepo.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ postgres.Queryer, spend *domain.Spend) error {
				assert.True(t, spend.Amount.IsZero())
				return nil
			})

		campaignRepo.EXPECT().SaveSpendRecording(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := service.RecordSpend(ctx, campaign.ID, decimal.Zero)

		require.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusActive, updated.Status)
		assert.True(t, updated.DailySpend.Equal(decimal.NewFromInt(45)))
		assert.True(t, updated.IsActive)
	})

	t.Run("campanha concluída acumula mas não transiciona", func(t *testing.T) {
		service, campaignRepo, spendRepo, _ := newTestService(t)

		campaign := activeCampaign(50, 1000, 45, 200)
		campaign.Status = domain.CampaignStatusCompleted

		campaignRepo.EXPECT().GetCampaignByID(gomock.Any(), campaign.ID).Return(campaign, nil)
		campaignRepo.EXPECT().GetCampaignForUpdate(gomock.Any(), gomock.Any(), campaign.ID).Return(campaign, nil)
		spendRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		campaignRepo.EXPECT().SaveSpendRecording(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := service.RecordSpend(ctx, campaign.ID, decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusCompleted, updated.Status)
		assert.True(t, updated.DailySpend.Equal(decimal.NewFromInt(55)))
		assert.Nil(t, updated.PauseReason)
	})
}

func TestService_SimulateSpends(t *testing.T) {
	ctx := context.Background()

	// now injetado: terça-feira (dia 1), 14h30
	t.Run("fora da janela não gera gasto", func(t *testing.T) {
		service, campaignRepo, _, scheduleRepo := newTestService(t)

		campaign := activeCampaign(100, 1000, 0, 0)

		campaignRepo.EXPECT().
			ListCampaigns(gomock.Any(), repository.CampaignFilter{
				Statuses:   []domain.CampaignStatus{domain.CampaignStatusActive},
				ActiveOnly: true,
			}).
			Return([]*domain.Campaign{campaign}, nil)

		scheduleRepo.EXPECT().
			ListSchedulesByCampaign(gomock.Any(), campaign.ID).
			Return([]*domain.DaypartingSchedule{
				{CampaignID: campaign.ID, DayOfWeek: 1, StartHour: 20, EndHour: 23, IsActive: true},
			}, nil)

		recorded, err := service.SimulateSpends(ctx)

		require.NoError(t, err)
		assert.Zero(t, recorded)
	})

	t.Run("campanha sem agenda não recebe gasto simulado", func(t *testing.T) {
		service, campaignRepo, _, scheduleRepo := newTestService(t)

		campaign := activeCampaign(100, 1000, 0, 0)

		campaignRepo.EXPECT().
			ListCampaigns(gomock.Any(), gomock.Any()).
			Return([]*domain.Campaign{campaign}, nil)

		scheduleRepo.EXPECT().
			ListSchedulesByCampaign(gomock.Any(), campaign.ID).
			Return([]*domain.DaypartingSchedule{}, nil)

		recorded, err := service.SimulateSpends(ctx)

		require.NoError(t, err)
		assert.Zero(t, recorded)
	})

	t.Run("campanha com janela aberta recebe gasto dentro da faixa", func(t *testing.T) {
		service, campaignRepo, spendRepo, scheduleRepo := newTestService(t)

		campaign := activeCampaign(100, 1000, 0, 0)

		campaignRepo.EXPECT().
			ListCampaigns(gomock.Any(), gomock.Any()).
			Return([]*domain.Campaign{campaign}, nil)

		scheduleRepo.EXPECT().
			ListSchedulesByCampaign(gomock.Any(), campaign.ID).
			Return([]*domain.DaypartingSchedule{
				{CampaignID: campaign.ID, DayOfWeek: 1, StartHour: 9, EndHour: 18, IsActive: true},
			}, nil)

		campaignRepo.EXPECT().GetCampaignByID(gomock.Any(), campaign.ID).Return(campaign, nil)
		campaignRepo.EXPECT().GetCampaignForUpdate(gomock.Any(), gomock.Any(), campaign.ID).Return(campaign, nil)

		spendRepo.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ postgres.Queryer, spend *domain.Spend) error {
				assert.True(t, spend.Amount.GreaterThanOrEqual(decimal.NewFromInt(1)))
				assert.True(t, spend.Amount.LessThanOrEqual(decimal.NewFromInt(5)))
				return nil
			})

		campaignRepo.EXPECT().SaveSpendRecording(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		recorded, err := service.SimulateSpends(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, recorded)
	})
}
