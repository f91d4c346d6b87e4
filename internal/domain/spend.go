package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Spend é o registro imutável de um gasto. Funciona como trilha de auditoria:
// nunca é alterado nem removido pelo núcleo, e a soma dos registros desde o
// último reset reconstrói os acumuladores da campanha.
type Spend struct {
	ID         uuid.UUID       `json:"id"`
	CampaignID uuid.UUID       `json:"campaign_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Hour       *int            `json:"hour,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewSpend monta um registro de gasto com a data e a hora do instante recebido.
func NewSpend(campaignID uuid.UUID, amount decimal.Decimal, now time.Time) *Spend {
	hour := now.Hour()

	return &Spend{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Amount:     amount,
		Date:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Hour:       &hour,
		CreatedAt:  now,
	}
}
