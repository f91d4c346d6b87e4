package enforcement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/infrastructure/repository/mocks"
	"github.com/vfg2006/budget-control-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (*Service, *mocks.MockBrandRepository, *mocks.MockCampaignRepository, *mocks.MockScheduleRepository) {
	ctrl := gomock.NewController(t)

	brandRepo := mocks.NewMockBrandRepository(ctrl)
	campaignRepo := mocks.NewMockCampaignRepository(ctrl)
	scheduleRepo := mocks.NewMockScheduleRepository(ctrl)

	service := NewService(brandRepo, campaignRepo, scheduleRepo)
	service.now = func() time.Time {
		// terça-feira (dia 1), 14h30
		return time.Date(2024, 3, 12, 14, 30, 0, 0, time.UTC)
	}

	return service, brandRepo, campaignRepo, scheduleRepo
}

func campaign(status domain.CampaignStatus, daily, monthly, dailySpent, monthlySpent int64) *domain.Campaign {
	return &domain.Campaign{
		ID:            uuid.New(),
		BrandID:       uuid.New(),
		Name:          "Campanha de teste",
		Status:        status,
		DailyBudget:   decimal.NewFromInt(daily),
		MonthlyBudget: decimal.NewFromInt(monthly),
		DailySpend:    decimal.NewFromInt(dailySpent),
		MonthlySpend:  decimal.NewFromInt(monthlySpent),
		IsActive:      status == domain.CampaignStatusActive,
	}
}

func pausedFor(c *domain.Campaign, reason domain.PauseReason) *domain.Campaign {
	c.Status = domain.CampaignStatusPaused
	c.PauseReason = &reason
	c.IsActive = reason == domain.PauseReasonOutsideDayparting
	return c
}

func TestService_SweepBudgets(t *testing.T) {
	ctx := context.Background()

	t.Run("campanha exatamente no limite é pausada pela varredura", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := campaign(domain.CampaignStatusActive, 50, 1000, 50, 200)

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusActive).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.CampaignStatusPaused, next.Status)
				require.NotNil(t, next.PauseReason)
				assert.Equal(t, domain.PauseReasonDailyBudgetExceeded, *next.PauseReason)
				assert.False(t, next.IsActive)
				return true, nil
			})

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Paused)
		assert.Zero(t, result.Resumed)
	})

	t.Run("o diário tem prioridade sobre o mensal", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := campaign(domain.CampaignStatusActive, 50, 200, 60, 300)

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.PauseReasonDailyBudgetExceeded, *next.PauseReason)
				return true, nil
			})

		_, err := service.SweepBudgets(ctx)
		require.NoError(t, err)
	})

	t.Run("varredura é idempotente para campanha já pausada", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 60, 200), domain.PauseReasonDailyBudgetExceeded)

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Zero(t, result.Paused)
		assert.Zero(t, result.Resumed)
		assert.Zero(t, result.Skipped)
	})

	t.Run("campanha pausada com saldo volta a ficar ativa", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 60, 200), domain.PauseReasonDailyBudgetExceeded)
		c.DailySpend = decimal.Zero

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusPaused).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.CampaignStatusActive, next.Status)
				assert.Nil(t, next.PauseReason)
				assert.True(t, next.IsActive)
				return true, nil
			})

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Resumed)
	})

	t.Run("pausa de dayparting não é desfeita pela varredura de orçamento", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 0, 200), domain.PauseReasonOutsideDayparting)

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Checked)
		assert.Zero(t, result.Resumed)
	})

	t.Run("campanha com mensal estourado continua pausada após reset diário", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 200, 0, 300), domain.PauseReasonMonthlyBudgetExceeded)

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Zero(t, result.Resumed)
		assert.Zero(t, result.Paused)
	})

	t.Run("gravação perdida para outra varredura conta como skipped", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		c := campaign(domain.CampaignStatusActive, 50, 1000, 50, 200)

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)
		campaignRepo.EXPECT().ApplyStatusChange(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Zero(t, result.Paused)
	})

	t.Run("marca no limite é desativada e com saldo é reativada", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		exhausted := &domain.Brand{
			ID:            uuid.New(),
			Name:          "Marca estourada",
			DailyBudget:   decimal.NewFromInt(100),
			MonthlyBudget: decimal.NewFromInt(1000),
			DailySpend:    decimal.NewFromInt(100),
			IsActive:      true,
		}
		recovered := &domain.Brand{
			ID:            uuid.New(),
			Name:          "Marca recuperada",
			DailyBudget:   decimal.NewFromInt(100),
			MonthlyBudget: decimal.NewFromInt(1000),
			DailySpend:    decimal.NewFromInt(10),
			MonthlySpend:  decimal.NewFromInt(10),
			IsActive:      false,
		}

		brandRepo.EXPECT().ListBrands(gomock.Any()).Return([]*domain.Brand{exhausted, recovered}, nil)

		brandRepo.EXPECT().
			ApplyActivationChange(gomock.Any(), gomock.Any(), true).
			DoAndReturn(func(_ context.Context, next *domain.Brand, _ bool) (bool, error) {
				assert.False(t, next.IsActive)
				return true, nil
			})
		brandRepo.EXPECT().
			ApplyActivationChange(gomock.Any(), gomock.Any(), false).
			DoAndReturn(func(_ context.Context, next *domain.Brand, _ bool) (bool, error) {
				assert.True(t, next.IsActive)
				return true, nil
			})

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return(nil, nil)

		result, err := service.SweepBudgets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Paused)
		assert.Equal(t, 1, result.Resumed)
	})
}

func TestService_SweepDayparting(t *testing.T) {
	ctx := context.Background()

	t.Run("campanha sem agenda nunca é tocada", func(t *testing.T) {
		service, _, campaignRepo, scheduleRepo := newTestService(t)

		c := campaign(domain.CampaignStatusActive, 100, 1000, 0, 0)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)
		scheduleRepo.EXPECT().ListSchedulesByCampaign(gomock.Any(), c.ID).Return(nil, nil)

		result, err := service.SweepDayparting(ctx)

		require.NoError(t, err)
		assert.Zero(t, result.Checked)
	})

	t.Run("pausa por orçamento tem precedência sobre o horário", func(t *testing.T) {
		service, _, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 60, 0), domain.PauseReasonDailyBudgetExceeded)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		result, err := service.SweepDayparting(ctx)

		require.NoError(t, err)
		assert.Zero(t, result.Checked)
	})

	t.Run("campanha ativa fora da janela é pausada mantendo is_active", func(t *testing.T) {
		service, _, campaignRepo, scheduleRepo := newTestService(t)

		c := campaign(domain.CampaignStatusActive, 100, 1000, 0, 0)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)
		scheduleRepo.EXPECT().ListSchedulesByCampaign(gomock.Any(), c.ID).Return([]*domain.DaypartingSchedule{
			{CampaignID: c.ID, DayOfWeek: 1, StartHour: 20, EndHour: 23, IsActive: true},
		}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusActive).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.CampaignStatusPaused, next.Status)
				assert.Equal(t, domain.PauseReasonOutsideDayparting, *next.PauseReason)
				assert.True(t, next.IsActive)
				return true, nil
			})

		result, err := service.SweepDayparting(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Paused)
	})

	t.Run("agenda inativa não abre janela", func(t *testing.T) {
		service, _, campaignRepo, scheduleRepo := newTestService(t)

		c := campaign(domain.CampaignStatusActive, 100, 1000, 0, 0)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)
		scheduleRepo.EXPECT().ListSchedulesByCampaign(gomock.Any(), c.ID).Return([]*domain.DaypartingSchedule{
			{CampaignID: c.ID, DayOfWeek: 1, StartHour: 9, EndHour: 18, IsActive: false},
		}, nil)

		campaignRepo.EXPECT().ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusActive).Return(true, nil)

		result, err := service.SweepDayparting(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Paused)
	})

	t.Run("janela que vira a meia-noite cobre a madrugada", func(t *testing.T) {
		service, _, campaignRepo, scheduleRepo := newTestService(t)
		service.now = func() time.Time {
			// terça-feira, 1h da manhã
			return time.Date(2024, 3, 12, 1, 0, 0, 0, time.UTC)
		}

		c := pausedFor(campaign(domain.CampaignStatusActive, 100, 1000, 0, 0), domain.PauseReasonOutsideDayparting)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)
		scheduleRepo.EXPECT().ListSchedulesByCampaign(gomock.Any(), c.ID).Return([]*domain.DaypartingSchedule{
			{CampaignID: c.ID, DayOfWeek: 1, StartHour: 22, EndHour: 2, IsActive: true},
		}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusPaused).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.CampaignStatusActive, next.Status)
				assert.Nil(t, next.PauseReason)
				return true, nil
			})

		result, err := service.SweepDayparting(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Resumed)
	})

	t.Run("sem saldo a campanha não volta pela janela", func(t *testing.T) {
		service, _, campaignRepo, scheduleRepo := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 60, 0), domain.PauseReasonOutsideDayparting)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)
		scheduleRepo.EXPECT().ListSchedulesByCampaign(gomock.Any(), c.ID).Return([]*domain.DaypartingSchedule{
			{CampaignID: c.ID, DayOfWeek: 1, StartHour: 9, EndHour: 18, IsActive: true},
		}, nil)

		result, err := service.SweepDayparting(ctx)

		require.NoError(t, err)
		assert.Zero(t, result.Resumed)
	})
}

func TestService_SweepReactivations(t *testing.T) {
	ctx := context.Background()

	t.Run("campanha pausada por orçamento volta após o reset", func(t *testing.T) {
		service, _, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 0, 200), domain.PauseReasonDailyBudgetExceeded)

		campaignRepo.EXPECT().
			ListCampaigns(gomock.Any(), repository.CampaignFilter{
				Statuses: []domain.CampaignStatus{domain.CampaignStatusPaused},
			}).
			Return([]*domain.Campaign{c}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusPaused).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.CampaignStatusActive, next.Status)
				assert.Nil(t, next.PauseReason)
				assert.True(t, next.IsActive)
				return true, nil
			})

		result, err := service.SweepReactivations(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Resumed)
	})

	t.Run("pausa de dayparting com saldo também volta por aqui", func(t *testing.T) {
		service, _, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 1000, 0, 200), domain.PauseReasonOutsideDayparting)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		campaignRepo.EXPECT().
			ApplyStatusChange(gomock.Any(), gomock.Any(), domain.CampaignStatusPaused).
			DoAndReturn(func(_ context.Context, next *domain.Campaign, _ domain.CampaignStatus) (bool, error) {
				assert.Equal(t, domain.CampaignStatusActive, next.Status)
				assert.Nil(t, next.PauseReason)
				assert.True(t, next.IsActive)
				return true, nil
			})

		result, err := service.SweepReactivations(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Checked)
		assert.Equal(t, 1, result.Resumed)
	})

	t.Run("sem saldo estrito a campanha não volta", func(t *testing.T) {
		service, _, campaignRepo, _ := newTestService(t)

		c := pausedFor(campaign(domain.CampaignStatusActive, 50, 200, 0, 200), domain.PauseReasonMonthlyBudgetExceeded)

		campaignRepo.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{c}, nil)

		result, err := service.SweepReactivations(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Checked)
		assert.Zero(t, result.Resumed)
	})
}

func TestService_Resets(t *testing.T) {
	ctx := context.Background()

	t.Run("reset diário zera marcas e campanhas", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		brandRepo.EXPECT().ResetDailySpend(gomock.Any()).Return(int64(3), nil)
		campaignRepo.EXPECT().ResetDailySpend(gomock.Any()).Return(int64(12), nil)

		require.NoError(t, service.ResetDailyBudgets(ctx))
	})

	t.Run("reset mensal zera marcas e campanhas", func(t *testing.T) {
		service, brandRepo, campaignRepo, _ := newTestService(t)

		brandRepo.EXPECT().ResetMonthlySpend(gomock.Any()).Return(int64(3), nil)
		campaignRepo.EXPECT().ResetMonthlySpend(gomock.Any()).Return(int64(12), nil)

		require.NoError(t, service.ResetMonthlyBudgets(ctx))
	})
}
