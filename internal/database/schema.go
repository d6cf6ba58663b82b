package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"chikota/internal/models"
)

// Migrate creates the tables that do not exist yet. Rows owned by a user go
// away with the user, and link rows go away with either side.
func Migrate(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		model       interface{}
		foreignKeys []string
	}{
		{model: (*models.User)(nil)},
		{
			model:       (*models.Category)(nil),
			foreignKeys: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`},
		},
		{
			model:       (*models.Tag)(nil),
			foreignKeys: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`},
		},
		{
			model:       (*models.Bookmark)(nil),
			foreignKeys: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`},
		},
		{
			model: (*models.BookmarkTag)(nil),
			foreignKeys: []string{
				`("bookmark_id") REFERENCES "bookmarks" ("id") ON DELETE CASCADE`,
				`("tag_id") REFERENCES "tags" ("id") ON DELETE CASCADE`,
			},
		},
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range tables {
			q := tx.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.foreignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", t.model, err)
			}
		}

		indexes := []struct {
			model   interface{}
			name    string
			columns []string
		}{
			{(*models.Bookmark)(nil), "bookmarks_user_id_created_at_idx", []string{"user_id", "created_at"}},
			{(*models.Category)(nil), "categories_user_id_idx", []string{"user_id"}},
			{(*models.BookmarkTag)(nil), "bookmark_tags_tag_id_idx", []string{"tag_id"}},
		}
		for _, idx := range indexes {
			if _, err := tx.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}
		return nil
	})
}
