package handlers

import (
	"time"

	"chikota/internal/models"
	"chikota/internal/utils"
)

type bookmarkPatchBody struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	ImageURL      *string           `json:"imageUrl"`
	CategoryID    *string           `json:"categoryId"`
	ReminderAt    *time.Time        `json:"reminderAt"`
	ReminderEmail *string           `json:"reminderEmail"`
	Tags          []models.TagInput `json:"tags"`
}

type tagPatchBody struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type categoryPatchBody struct {
	Name  *string               `json:"name"`
	Color *models.CategoryColor `json:"color"`
	Icon  *string               `json:"icon"`
}

// field marks key as present when the client sent it, null included.
func field[T any](raw map[string]interface{}, key string, v *T) models.Field[T] {
	if !utils.Has(raw, key) {
		return models.Field[T]{}
	}
	return models.Field[T]{Set: true, Value: v}
}

func (b bookmarkPatchBody) toPatch(raw map[string]interface{}) models.BookmarkPatch {
	p := models.BookmarkPatch{
		Title:         field(raw, "title", b.Title),
		Description:   field(raw, "description", b.Description),
		ImageURL:      field(raw, "imageUrl", b.ImageURL),
		CategoryID:    field(raw, "categoryId", b.CategoryID),
		ReminderAt:    field(raw, "reminderAt", b.ReminderAt),
		ReminderEmail: field(raw, "reminderEmail", b.ReminderEmail),
	}
	if utils.Has(raw, "tags") {
		tags := b.Tags
		if tags == nil {
			tags = []models.TagInput{}
		}
		p.Tags = &tags
	}
	return p
}

func (b tagPatchBody) toPatch(raw map[string]interface{}) models.TagPatch {
	return models.TagPatch{
		Name:  field(raw, "name", b.Name),
		Color: field(raw, "color", b.Color),
	}
}

func (b categoryPatchBody) toPatch(raw map[string]interface{}) models.CategoryPatch {
	return models.CategoryPatch{
		Name:  field(raw, "name", b.Name),
		Color: field(raw, "color", b.Color),
		Icon:  field(raw, "icon", b.Icon),
	}
}
