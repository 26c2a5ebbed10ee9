package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashplay/internal/db"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// hardCondition matches cards the user has missed more often than not. It
// expects card_stats joined as s.
const hardCondition = "COALESCE(s.times_wrong, 0) > COALESCE(s.times_correct, 0)"

func tx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	return db.WithTx(ctx, conn, fn)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
