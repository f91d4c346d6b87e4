package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vfg2006/budget-control-api/infrastructure/database/postgres"
	"github.com/vfg2006/budget-control-api/internal/domain"
)

const schedulesTable = "dayparting_schedules ds"

type ScheduleRepository interface {
	ListSchedulesByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*domain.DaypartingSchedule, error)
}

type scheduleRepository struct {
	conn *postgres.Connection
}

func NewScheduleRepository(conn *postgres.Connection) ScheduleRepository {
	return &scheduleRepository{
		conn: conn,
	}
}

// ListSchedulesByCampaign retorna todas as agendas da campanha, ativas ou
// não. A distinção importa para a varredura de dayparting: ter qualquer
// agenda liga a fiscalização, mas só agendas ativas abrem janela.
func (r *scheduleRepository) ListSchedulesByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*domain.DaypartingSchedule, error) {
	query, args, err := squirrel.
		Select("ds.id, ds.campaign_id, ds.day_of_week, ds.start_hour, ds.end_hour, ds.is_active, ds.created_at, ds.updated_at").
		From(schedulesTable).
		Where(squirrel.Eq{"ds.campaign_id": campaignID}).
		OrderBy("ds.day_of_week ASC", "ds.start_hour ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	schedules := make([]*domain.DaypartingSchedule, 0)

	for rows.Next() {
		schedule := &domain.DaypartingSchedule{}
		if err := rows.Scan(
			&schedule.ID,
			&schedule.CampaignID,
			&schedule.DayOfWeek,
			&schedule.StartHour,
			&schedule.EndHour,
			&schedule.IsActive,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar a agenda: %w", err)
		}

		schedules = append(schedules, schedule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return schedules, nil
}
