package db

import (
	"context"
	_ "embed"

	"kitabu/internal/pkg/errs"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates the tables if they do not exist. Idempotent.
func ApplySchema(ctx context.Context, dbtx DBTX) error {
	if _, err := dbtx.Exec(ctx, schemaSQL); err != nil {
		return errs.Wrap(err, "failed to apply schema")
	}
	return nil
}
