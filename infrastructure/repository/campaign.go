package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vfg2006/budget-control-api/infrastructure/database/postgres"
	"github.com/vfg2006/budget-control-api/internal/domain"
)

const (
	campaignsTable   = "campaigns c"
	campaignsColumns = "c.id, c.brand_id, c.name, c.status, c.daily_budget, c.monthly_budget, c.daily_spend, c.monthly_spend, c.start_date, c.end_date, c.is_active, c.pause_reason, c.created_at, c.updated_at"
)

// CampaignFilter restringe a listagem de campanhas para as varreduras.
type CampaignFilter struct {
	Statuses   []domain.CampaignStatus
	ActiveOnly bool
}

type CampaignRepository interface {
	GetCampaignByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	GetCampaignForUpdate(ctx context.Context, q postgres.Queryer, id uuid.UUID) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]*domain.Campaign, error)
	SaveSpendRecording(ctx context.Context, q postgres.Queryer, campaign *domain.Campaign) error
	ApplyStatusChange(ctx context.Context, campaign *domain.Campaign, expected domain.CampaignStatus) (bool, error)
	ResetDailySpend(ctx context.Context) (int64, error)
	ResetMonthlySpend(ctx context.Context) (int64, error)
}

type campaignRepository struct {
	conn *postgres.Connection
}

func NewCampaignRepository(conn *postgres.Connection) CampaignRepository {
	return &campaignRepository{
		conn: conn,
	}
}

func (r *campaignRepository) GetCampaignByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query, args, err := squirrel.
		Select(campaignsColumns).
		From(campaignsTable).
		Where(squirrel.Eq{"c.id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	return r.scanCampaignRow(r.conn.QueryRow(ctx, query, args...))
}

// GetCampaignForUpdate carrega a campanha travando a linha (FOR UPDATE) para
// serializar registros de gasto concorrentes da mesma campanha. Deve ser
// chamado dentro de uma transação.
func (r *campaignRepository) GetCampaignForUpdate(ctx context.Context, q postgres.Queryer, id uuid.UUID) (*domain.Campaign, error) {
	query, args, err := squirrel.
		Select(campaignsColumns).
		From(campaignsTable).
		Where(squirrel.Eq{"c.id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	return r.scanCampaignRow(q.QueryRow(ctx, query, args...))
}

func (r *campaignRepository) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]*domain.Campaign, error) {
	queryBuilder := squirrel.
		Select(campaignsColumns).
		From(campaignsTable).
		OrderBy("c.name ASC").
		PlaceholderFormat(squirrel.Dollar)

	if len(filter.Statuses) > 0 {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"c.status": filter.Statuses})
	}

	if filter.ActiveOnly {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"c.is_active": true})
	}

	query, args, err := queryBuilder.ToSql()
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

	campaigns := make([]*domain.Campaign, 0)

	for rows.Next() {
		campaign, err := r.scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao deserializar a campanha: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return campaigns, nil
}

// SaveSpendRecording grava o resultado do registro de gasto (acumuladores e
// possível pausa inline) dentro da transação que também insere o Spend.
func (r *campaignRepository) SaveSpendRecording(ctx context.Context, q postgres.Queryer, campaign *domain.Campaign) error {
	query, args, err := squirrel.
		Update("campaigns").
		Set("daily_spend", campaign.DailySpend).
		Set("monthly_spend", campaign.MonthlySpend).
		Set("status", campaign.Status).
		Set("pause_reason", pauseReasonValue(campaign.PauseReason)).
		Set("is_active", campaign.IsActive).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": campaign.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("failed to execute query: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("campanha não encontrada: %s", campaign.ID)
	}

	return nil
}

// ApplyStatusChange grava a transição decidida por uma varredura com
// compare-and-set sobre o status anterior; retorna false quando outra
// varredura transicionou a campanha primeiro.
func (r *campaignRepository) ApplyStatusChange(ctx context.Context, campaign *domain.Campaign, expected domain.CampaignStatus) (bool, error) {
	query, args, err := squirrel.
		Update("campaigns").
		Set("status", campaign.Status).
		Set("pause_reason", pauseReasonValue(campaign.PauseReason)).
		Set("is_active", campaign.IsActive).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": campaign.ID, "status": expected}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return false, fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return false, fmt.Errorf("failed to execute query: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *campaignRepository) ResetDailySpend(ctx context.Context) (int64, error) {
	return r.resetSpend(ctx, "daily_spend")
}

func (r *campaignRepository) ResetMonthlySpend(ctx context.Context) (int64, error) {
	return r.resetSpend(ctx, "monthly_spend")
}

func (r *campaignRepository) resetSpend(ctx context.Context, column string) (int64, error) {
	query, args, err := squirrel.
		Update("campaigns").
		Set(column, 0).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return result.RowsAffected()
}

func (r *campaignRepository) scanCampaignRow(row *sql.Row) (*domain.Campaign, error) {
	campaign := &domain.Campaign{}
	var pauseReason sql.NullString

	if err := row.Scan(
		&campaign.ID,
		&campaign.BrandID,
		&campaign.Name,
		&campaign.Status,
		&campaign.DailyBudget,
		&campaign.MonthlyBudget,
		&campaign.DailySpend,
		&campaign.MonthlySpend,
		&campaign.StartDate,
		&campaign.EndDate,
		&campaign.IsActive,
		&pauseReason,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	campaign.PauseReason = pauseReasonFromNull(pauseReason)

	return campaign, nil
}

func (r *campaignRepository) scanCampaign(rows *sql.Rows) (*domain.Campaign, error) {
	campaign := &domain.Campaign{}
	var pauseReason sql.NullString

	if err := rows.Scan(
		&campaign.ID,
		&campaign.BrandID,
		&campaign.Name,
		&campaign.Status,
		&campaign.DailyBudget,
		&campaign.MonthlyBudget,
		&campaign.DailySpend,
		&campaign.MonthlySpend,
		&campaign.StartDate,
		&campaign.EndDate,
		&campaign.IsActive,
		&pauseReason,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	); err != nil {
		return nil, err
	}

	campaign.PauseReason = pauseReasonFromNull(pauseReason)

	return campaign, nil
}

func pauseReasonValue(reason *domain.PauseReason) interface{} {
	if reason == nil {
		return nil
	}
	return string(*reason)
}

func pauseReasonFromNull(value sql.NullString) *domain.PauseReason {
	if !value.Valid {
		return nil
	}
	reason := domain.PauseReason(value.String)
	return &reason
}
