package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// queryLogger logs every statement at debug level and failed ones at warn.
type queryLogger struct{}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	if event.Err != nil && !isNoRows(event.Err) {
		log.Warn().Err(event.Err).Str("operation", event.Operation()).Dur("duration", duration).Str("query", event.Query).Msg("Query failed")
		return
	}
	log.Debug().Str("operation", event.Operation()).Dur("duration", duration).Str("query", event.Query).Msg("Query executed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
