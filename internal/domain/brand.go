package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Brand agrupa campanhas e carrega seus próprios limites de orçamento,
// independentes dos limites das campanhas.
type Brand struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	DailyBudget   decimal.Decimal `json:"daily_budget"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	DailySpend    decimal.Decimal `json:"daily_spend"`
	MonthlySpend  decimal.Decimal `json:"monthly_spend"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CheckBudgetLimits reavalia o estado da marca contra os limites usando a
// comparação >= da varredura periódica. Retorna o novo snapshot e se houve
// mudança; a persistência é responsabilidade do chamador.
func (b Brand) CheckBudgetLimits() (Brand, bool) {
	if b.DailySpend.GreaterThanOrEqual(b.DailyBudget) {
		if !b.IsActive {
			return b, false
		}
		b.IsActive = false
		return b, true
	}

	if b.MonthlySpend.GreaterThanOrEqual(b.MonthlyBudget) {
		if !b.IsActive {
			return b, false
		}
		b.IsActive = false
		return b, true
	}

	if !b.IsActive {
		b.IsActive = true
		return b, true
	}

	return b, false
}
