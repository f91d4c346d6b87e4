// Package repository contém as implementações dos repositórios para acesso aos dados
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

const brandsTable = "brands b"

type BrandRepository interface {
	GetBrandByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
	ListBrands(ctx context.Context) ([]*domain.Brand, error)
	ApplyActivationChange(ctx context.Context, brand *domain.Brand, expected bool) (bool, error)
	ResetDailySpend(ctx context.Context) (int64, error)
	ResetMonthlySpend(ctx context.Context) (int64, error)
}

type brandRepository struct {
	conn *postgres.Connection
}

func NewBrandRepository(conn *postgres.Connection) BrandRepository {
	return &brandRepository{
		conn: conn,
	}
}

func (r *brandRepository) GetBrandByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query, args, err := squirrel.
		Select("b.id, b.name, b.daily_budget, b.monthly_budget, b.daily_spend, b.monthly_spend, b.is_active, b.created_at, b.updated_at").
		From(brandsTable).
		Where(squirrel.Eq{"b.id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	row := r.conn.QueryRow(ctx, query, args...)

	brand, err := r.deserializeBrandRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return brand, nil
}

func (r *brandRepository) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	query, args, err := squirrel.
		Select("b.id, b.name, b.daily_budget, b.monthly_budget, b.daily_spend, b.monthly_spend, b.is_active, b.created_at, b.updated_at").
		From(brandsTable).
		OrderBy("b.name ASC").
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

	brands := make([]*domain.Brand, 0)

	for rows.Next() {
		brand := &domain.Brand{}
		if err := rows.Scan(
			&brand.ID,
			&brand.Name,
			&brand.DailyBudget,
			&brand.MonthlyBudget,
			&brand.DailySpend,
			&brand.MonthlySpend,
			&brand.IsActive,
			&brand.CreatedAt,
			&brand.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar a marca: %w", err)
		}

		brands = append(brands, brand)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return brands, nil
}

// ApplyActivationChange grava o novo is_active com compare-and-set sobre o
// valor anterior; retorna false quando outra varredura chegou primeiro.
func (r *brandRepository) ApplyActivationChange(ctx context.Context, brand *domain.Brand, expected bool) (bool, error) {
	query, args, err := squirrel.
		Update("brands").
		Set("is_active", brand.IsActive).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": brand.ID, "is_active": expected}).
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

func (r *brandRepository) ResetDailySpend(ctx context.Context) (int64, error) {
	return r.resetSpend(ctx, "daily_spend")
}

func (r *brandRepository) ResetMonthlySpend(ctx context.Context) (int64, error) {
	return r.resetSpend(ctx, "monthly_spend")
}

func (r *brandRepository) resetSpend(ctx context.Context, column string) (int64, error) {
	query, args, err := squirrel.
		Update("brands").
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

func (r *brandRepository) deserializeBrandRow(row *sql.Row) (*domain.Brand, error) {
	brand := &domain.Brand{}

	if err := row.Scan(
		&brand.ID,
		&brand.Name,
		&brand.DailyBudget,
		&brand.MonthlyBudget,
		&brand.DailySpend,
		&brand.MonthlySpend,
		&brand.IsActive,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return brand, nil
}
