package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCampaign() Campaign {
	return Campaign{
		ID:            uuid.New(),
		BrandID:       uuid.New(),
		Name:          "Campanha Teste",
		Status:        CampaignStatusActive,
		DailyBudget:   decimal.RequireFromString("50.00"),
		MonthlyBudget: decimal.RequireFromString("500.00"),
		DailySpend:    decimal.Zero,
		MonthlySpend:  decimal.Zero,
		IsActive:      true,
	}
}

func TestCampaign_CheckRecordedSpend(t *testing.T) {
	t.Run("gasto que ultrapassa o limite diário pausa com motivo diário", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("45.00")

		c = c.ApplySpend(decimal.RequireFromString("10.00"))
		c, changed := c.CheckRecordedSpend()

		assert.True(t, changed)
		assert.Equal(t, "55", c.DailySpend.String())
		assert.Equal(t, CampaignStatusPaused, c.Status)
		require.NotNil(t, c.PauseReason)
		assert.Equal(t, PauseReasonDailyBudgetExceeded, *c.PauseReason)
		assert.False(t, c.IsActive)
	})

	t.Run("gasto exatamente no limite não pausa no caminho inline", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("40.00")

		c = c.ApplySpend(decimal.RequireFromString("10.00"))
		c, changed := c.CheckRecordedSpend()

		assert.False(t, changed)
		assert.Equal(t, CampaignStatusActive, c.Status)
		assert.Nil(t, c.PauseReason)
	})

	t.Run("limite mensal só é avaliado se o diário não disparou", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("10.00")
		c.MonthlySpend = decimal.RequireFromString("600.00")

		c, changed := c.CheckRecordedSpend()

		assert.True(t, changed)
		require.NotNil(t, c.PauseReason)
		assert.Equal(t, PauseReasonMonthlyBudgetExceeded, *c.PauseReason)
	})

	t.Run("diário tem prioridade sobre o mensal", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("60.00")
		c.MonthlySpend = decimal.RequireFromString("600.00")

		c, _ = c.CheckRecordedSpend()

		require.NotNil(t, c.PauseReason)
		assert.Equal(t, PauseReasonDailyBudgetExceeded, *c.PauseReason)
	})

	t.Run("campanha COMPLETED acumula mas não transiciona", func(t *testing.T) {
		c := newTestCampaign()
		c.Status = CampaignStatusCompleted
		c.DailySpend = decimal.RequireFromString("999.00")

		c, changed := c.CheckRecordedSpend()

		assert.False(t, changed)
		assert.Equal(t, CampaignStatusCompleted, c.Status)
	})
}

func TestCampaign_CheckBudgetLimits(t *testing.T) {
	t.Run("varredura pausa no limite exato (>=)", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("50.00")

		c, changed := c.CheckBudgetLimits()

		assert.True(t, changed)
		assert.Equal(t, CampaignStatusPaused, c.Status)
		require.NotNil(t, c.PauseReason)
		assert.Equal(t, PauseReasonDailyBudgetExceeded, *c.PauseReason)
	})

	t.Run("varredura é idempotente", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("80.00")

		c, changed := c.CheckBudgetLimits()
		assert.True(t, changed)

		again, changed := c.CheckBudgetLimits()
		assert.False(t, changed)
		assert.Equal(t, c, again)
	})

	t.Run("pausada com saldo nos dois acumuladores reativa", func(t *testing.T) {
		c := newTestCampaign()
		reason := PauseReasonDailyBudgetExceeded
		c.Status = CampaignStatusPaused
		c.PauseReason = &reason
		c.IsActive = false
		c.DailySpend = decimal.RequireFromString("10.00")

		c, changed := c.CheckBudgetLimits()

		assert.True(t, changed)
		assert.Equal(t, CampaignStatusActive, c.Status)
		assert.Nil(t, c.PauseReason)
		assert.True(t, c.IsActive)
	})

	t.Run("pausa de dayparting não é desfeita pela checagem de orçamento", func(t *testing.T) {
		c := newTestCampaign()
		c = c.PauseForDayparting()
		c.DailySpend = decimal.RequireFromString("10.00")
		c.MonthlySpend = decimal.RequireFromString("200.00")

		_, changed := c.CheckBudgetLimits()

		assert.False(t, changed)
	})

	t.Run("ativa abaixo do limite não muda", func(t *testing.T) {
		c := newTestCampaign()
		c.DailySpend = decimal.RequireFromString("10.00")

		_, changed := c.CheckBudgetLimits()

		assert.False(t, changed)
	})
}

func TestCampaign_CanResume(t *testing.T) {
	c := newTestCampaign()
	c.DailySpend = decimal.RequireFromString("25.00")
	c.MonthlySpend = decimal.RequireFromString("600.00")

	// mensal ainda estourado: não pode reativar
	assert.False(t, c.CanResume())

	c.MonthlySpend = decimal.RequireFromString("499.99")
	assert.True(t, c.CanResume())

	// igualdade não basta, a comparação é estrita
	c.DailySpend = decimal.RequireFromString("50.00")
	assert.False(t, c.CanResume())
}

func TestCampaign_IsWithinDayparting(t *testing.T) {
	campaign := newTestCampaign()

	// segunda-feira, 23h
	mondayNight := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)

	schedules := []*DaypartingSchedule{
		{CampaignID: campaign.ID, DayOfWeek: 0, StartHour: 22, EndHour: 2, IsActive: true},
	}

	assert.True(t, campaign.IsWithinDayparting(schedules, mondayNight))

	// mesma segunda às 14h: fora da janela
	mondayAfternoon := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	assert.False(t, campaign.IsWithinDayparting(schedules, mondayAfternoon))

	// terça às 23h: dia não bate
	tuesdayNight := time.Date(2024, 1, 16, 23, 0, 0, 0, time.UTC)
	assert.False(t, campaign.IsWithinDayparting(schedules, tuesdayNight))

	// agenda inativa é ignorada
	schedules[0].IsActive = false
	assert.False(t, campaign.IsWithinDayparting(schedules, mondayNight))
}

func TestCampaign_PauseForDayparting(t *testing.T) {
	c := newTestCampaign()

	c = c.PauseForDayparting()

	assert.Equal(t, CampaignStatusPaused, c.Status)
	require.NotNil(t, c.PauseReason)
	assert.Equal(t, PauseReasonOutsideDayparting, *c.PauseReason)
	// dayparting não derruba o flag: a própria varredura precisa reencontrar
	// a campanha para reativá-la quando a janela abrir
	assert.True(t, c.IsActive)

	assert.True(t, c.IsPausedFor(PauseReasonOutsideDayparting))
	assert.False(t, c.IsPausedForBudget())
}
