package settings

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/ignission/soloday-sub001/internal/settings/migrations"
)

// migrate applies pending migrations from the embedded filesystem. goose
// wraps each migration in its own transaction, so a failure leaves the
// previous schema intact.
func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
