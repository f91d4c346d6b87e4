package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vfg2006/budget-control-api/pkg/utils"
)

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
)

type PauseReason string

const (
	PauseReasonDailyBudgetExceeded   PauseReason = "DAILY_BUDGET_EXCEEDED"
	PauseReasonMonthlyBudgetExceeded PauseReason = "MONTHLY_BUDGET_EXCEEDED"
	PauseReasonOutsideDayparting     PauseReason = "OUTSIDE_DAYPARTING_HOURS"
)

// Campaign é o snapshot de uma campanha. Os métodos de regra nunca salvam
// nada: recebem o snapshot por valor e devolvem o próximo estado, deixando
// a escrita para o repositório.
type Campaign struct {
	ID            uuid.UUID       `json:"id"`
	BrandID       uuid.UUID       `json:"brand_id"`
	Name          string          `json:"name"`
	Status        CampaignStatus  `json:"status"`
	DailyBudget   decimal.Decimal `json:"daily_budget"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	DailySpend    decimal.Decimal `json:"daily_spend"`
	MonthlySpend  decimal.Decimal `json:"monthly_spend"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	IsActive      bool            `json:"is_active"`
	PauseReason   *PauseReason    `json:"pause_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ApplySpend soma o valor aos acumuladores diário e mensal.
func (c Campaign) ApplySpend(amount decimal.Decimal) Campaign {
	c.DailySpend = c.DailySpend.Add(amount)
	c.MonthlySpend = c.MonthlySpend.Add(amount)
	return c
}

// CheckRecordedSpend aplica a verificação inline do registro de gasto, que
// usa comparação estrita (>): um gasto que cai exatamente no limite não
// pausa por aqui, só na próxima varredura periódica (>=). O diário tem
// prioridade sobre o mensal. COMPLETED é terminal: acumula mas não transiciona.
func (c Campaign) CheckRecordedSpend() (Campaign, bool) {
	if c.Status == CampaignStatusCompleted {
		return c, false
	}

	if c.DailySpend.GreaterThan(c.DailyBudget) {
		return c.pauseForBudget(PauseReasonDailyBudgetExceeded)
	}

	if c.MonthlySpend.GreaterThan(c.MonthlyBudget) {
		return c.pauseForBudget(PauseReasonMonthlyBudgetExceeded)
	}

	return c, false
}

// CheckBudgetLimits é a verificação da varredura periódica, com comparação
// >= e reativação quando a pausa vigente é de orçamento e voltou a haver
// saldo. Uma pausa de dayparting não é desfeita aqui: quem reabre a janela
// é a varredura de dayparting ou a de reativação.
func (c Campaign) CheckBudgetLimits() (Campaign, bool) {
	if c.Status == CampaignStatusCompleted {
		return c, false
	}

	if c.DailySpend.GreaterThanOrEqual(c.DailyBudget) {
		return c.pauseForBudget(PauseReasonDailyBudgetExceeded)
	}

	if c.MonthlySpend.GreaterThanOrEqual(c.MonthlyBudget) {
		return c.pauseForBudget(PauseReasonMonthlyBudgetExceeded)
	}

	if c.IsPausedForBudget() && c.CanResume() {
		return c.Resume(), true
	}

	return c, false
}

// CanResume exige saldo estrito nos dois acumuladores.
func (c Campaign) CanResume() bool {
	return c.DailySpend.LessThan(c.DailyBudget) &&
		c.MonthlySpend.LessThan(c.MonthlyBudget)
}

// Resume reativa a campanha limpando o motivo de pausa.
func (c Campaign) Resume() Campaign {
	c.Status = CampaignStatusActive
	c.PauseReason = nil
	c.IsActive = true
	return c
}

// PauseForDayparting pausa a campanha fora da janela de dayparting. O flag
// is_active permanece, para que a própria varredura de dayparting volte a
// enxergar a campanha e possa reativá-la quando a janela abrir.
func (c Campaign) PauseForDayparting() Campaign {
	reason := PauseReasonOutsideDayparting
	c.Status = CampaignStatusPaused
	c.PauseReason = &reason
	return c
}

// IsPausedFor informa se a campanha está pausada exatamente por esse motivo.
func (c Campaign) IsPausedFor(reason PauseReason) bool {
	return c.Status == CampaignStatusPaused &&
		c.PauseReason != nil && *c.PauseReason == reason
}

// IsPausedForBudget informa se a pausa atual é de orçamento (diário ou mensal).
func (c Campaign) IsPausedForBudget() bool {
	return c.IsPausedFor(PauseReasonDailyBudgetExceeded) ||
		c.IsPausedFor(PauseReasonMonthlyBudgetExceeded)
}

// IsWithinDayparting verifica se o instante atual cai em alguma agenda ativa
// da campanha. Uma campanha sem nenhuma agenda é irrestrita no tempo; cabe ao
// chamador pular a verificação nesse caso.
func (c Campaign) IsWithinDayparting(schedules []*DaypartingSchedule, now time.Time) bool {
	currentDay := utils.DayOfWeek(now)
	currentHour := now.Hour()

	for _, schedule := range schedules {
		if !schedule.IsActive {
			continue
		}
		if schedule.DayOfWeek != currentDay {
			continue
		}
		if utils.IsHourInRange(schedule.StartHour, schedule.EndHour, currentHour) {
			return true
		}
	}

	return false
}

func (c Campaign) pauseForBudget(reason PauseReason) (Campaign, bool) {
	if c.IsPausedFor(reason) && !c.IsActive {
		return c, false
	}
	c.Status = CampaignStatusPaused
	c.PauseReason = &reason
	c.IsActive = false
	return c, true
}
