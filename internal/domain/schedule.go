package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DaypartingSchedule define uma janela recorrente em que a campanha pode
// veicular. day_of_week segue a convenção 0=segunda ... 6=domingo e a janela
// de horas é meio-aberta (fim exclusivo), com virada de meia-noite permitida
// quando start_hour > end_hour. Ter agendas é opt-in: campanha sem nenhuma
// agenda nunca é pausada por dayparting.
type DaypartingSchedule struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	DayOfWeek  int       `json:"day_of_week"`
	StartHour  int       `json:"start_hour"`
	EndHour    int       `json:"end_hour"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate rejeita agendas malformadas antes de qualquer escrita.
func (s DaypartingSchedule) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week inválido: %d (esperado 0 a 6)", s.DayOfWeek)
	}
	if s.StartHour < 0 || s.StartHour > 23 {
		return fmt.Errorf("start_hour inválida: %d (esperado 0 a 23)", s.StartHour)
	}
	if s.EndHour < 0 || s.EndHour > 23 {
		return fmt.Errorf("end_hour inválida: %d (esperado 0 a 23)", s.EndHour)
	}
	return nil
}
