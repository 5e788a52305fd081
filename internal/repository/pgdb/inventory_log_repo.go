package pgdb

import (
	"context"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// InventoryLogRepo: журнал изменений остатков. Записи только добавляются.
type InventoryLogRepo struct {
	pool *pgxpool.Pool
	conv converter.InventoryLogConverter
}

func NewInventoryLogRepo(pool *pgxpool.Pool, conv converter.InventoryLogConverter) *InventoryLogRepo {
	return &InventoryLogRepo{pool: pool, conv: conv}
}

// Append пишет запись в той же транзакции, что и изменение остатка.
func (i *InventoryLogRepo) Append(ctx context.Context, entry *domain.InventoryLog) (*domain.InventoryLog, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := i.conv.ToModel(entry)
	query := `
		INSERT INTO inventory_logs (product_id, type, quantity, previous_stock, new_stock, reason, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	if err := tx.QueryRow(ctx, query,
		model.ProductID,
		model.Type,
		model.Quantity,
		model.PreviousStock,
		model.NewStock,
		model.Reason,
		model.UserID,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return i.conv.ToEntity(model), nil
}

func (i *InventoryLogRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryLog, error) {
	query := `
		SELECT id, product_id, type, quantity, previous_stock, new_stock, reason, user_id, created_at
		FROM inventory_logs
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := tr.Executor(ctx, i.pool).Query(ctx, query, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.InventoryLog, 0)
	for rows.Next() {
		var model converter.InventoryLogModel
		if err := rows.Scan(
			&model.ID,
			&model.ProductID,
			&model.Type,
			&model.Quantity,
			&model.PreviousStock,
			&model.NewStock,
			&model.Reason,
			&model.UserID,
			&model.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *i.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
