package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/vfg2006/budget-control-api/infrastructure/database/postgres"
	"github.com/vfg2006/budget-control-api/internal/domain"
)

const spendsTable = "spends s"

type SpendRepository interface {
	Create(ctx context.Context, q postgres.Queryer, spend *domain.Spend) error
	ListSpendsByCampaign(ctx context.Context, campaignID uuid.UUID, limit uint64) ([]*domain.Spend, error)
	SumSpendsByCampaign(ctx context.Context, campaignID uuid.UUID) (decimal.Decimal, error)
}

type spendRepository struct {
	conn *postgres.Connection
}

func NewSpendRepository(conn *postgres.Connection) SpendRepository {
	return &spendRepository{
		conn: conn,
	}
}

// Create insere o registro imutável de gasto. Recebe o Queryer da transação
// do registro para que o Spend e os acumuladores sejam gravados juntos.
func (r *spendRepository) Create(ctx context.Context, q postgres.Queryer, spend *domain.Spend) error {
	query, args, err := squirrel.StatementBuilder.
		Insert("spends").
		Columns("id", "campaign_id", "amount", "date", "hour", "created_at").
		Values(
			spend.ID,
			spend.CampaignID,
			spend.Amount,
			spend.Date,
			spend.Hour,
			spend.CreatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	_, err = q.Exec(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("failed to execute query: %w", err)
	}

	return nil
}

func (r *spendRepository) ListSpendsByCampaign(ctx context.Context, campaignID uuid.UUID, limit uint64) ([]*domain.Spend, error) {
	queryBuilder := squirrel.
		Select("s.id, s.campaign_id, s.amount, s.date, s.hour, s.created_at").
		From(spendsTable).
		Where(squirrel.Eq{"s.campaign_id": campaignID}).
		OrderBy("s.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		queryBuilder = queryBuilder.Limit(limit)
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

	spends := make([]*domain.Spend, 0)

	for rows.Next() {
		spend := &domain.Spend{}
		var hour sql.NullInt64

		if err := rows.Scan(
			&spend.ID,
			&spend.CampaignID,
			&spend.Amount,
			&spend.Date,
			&hour,
			&spend.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar o gasto: %w", err)
		}

		if hour.Valid {
			h := int(hour.Int64)
			spend.Hour = &h
		}

		spends = append(spends, spend)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return spends, nil
}

// SumSpendsByCampaign soma a trilha de auditoria da campanha; serve para
// conferir os acumuladores contra os registros imutáveis.
func (r *spendRepository) SumSpendsByCampaign(ctx context.Context, campaignID uuid.UUID) (decimal.Decimal, error) {
	query, args, err := squirrel.
		Select("COALESCE(SUM(s.amount), 0)").
		From(spendsTable).
		Where(squirrel.Eq{"s.campaign_id": campaignID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("erro ao construir a query: %w", err)
	}

	var total decimal.Decimal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("erro ao somar os gastos: %w", err)
	}

	return total, nil
}
