package tr

import (
	"context"

	"github.com/DRSN-tech/order-backend/pkg/e"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	trmcontext "github.com/avito-tech/go-transaction-manager/trm/v2/context"
	"github.com/jackc/pgx/v5"
)

// Executor возвращает транзакцию, открытую менеджером транзакций в контексте,
// либо переданный пул, если транзакции нет.
func Executor(ctx context.Context, db trmpgx.Tr) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, db)
}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста.
// Используется запросами, которым нужна блокировка строк (SELECT ... FOR UPDATE).
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	t := trmcontext.DefaultManager.Default(ctx)
	if t == nil || !t.IsActive() {
		return nil, e.ErrTransactionNotFound
	}

	tx, ok := t.Transaction().(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}

	return tx, nil
}
