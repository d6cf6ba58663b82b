package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks,alias:b"`

	ID            string     `json:"id" bun:"id,pk"`
	UserID        string     `json:"userId" bun:"user_id,notnull"`
	URL           string     `json:"url" bun:"url,notnull"`
	Title         string     `json:"title" bun:"title,notnull"`
	Description   *string    `json:"description,omitempty" bun:"description"`
	ImageURL      *string    `json:"imageUrl,omitempty" bun:"image_url"`
	CategoryID    *string    `json:"categoryId,omitempty" bun:"category_id"`
	ReminderAt    *time.Time `json:"reminderAt,omitempty" bun:"reminder_at"`
	ReminderEmail *string    `json:"reminderEmail,omitempty" bun:"reminder_email"`
	CreatedAt     time.Time  `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt     time.Time  `json:"updatedAt" bun:"updated_at,notnull"`

	Tags []Tag `json:"tags" bun:"m2m:bookmark_tags,join:Bookmark=Tag"`
}

// BookmarkTag links a bookmark to a tag. Rows go away with either side.
type BookmarkTag struct {
	bun.BaseModel `bun:"table:bookmark_tags,alias:bt"`

	BookmarkID string    `bun:"bookmark_id,pk"`
	Bookmark   *Bookmark `bun:"rel:belongs-to,join:bookmark_id=id"`
	TagID      string    `bun:"tag_id,pk"`
	Tag        *Tag      `bun:"rel:belongs-to,join:tag_id=id"`
}

// InCategory reports whether the bookmark belongs to the given category id.
func (b Bookmark) InCategory(categoryID string) bool {
	return b.CategoryID != nil && *b.CategoryID == categoryID
}

type CreateBookmarkRequest struct {
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	ImageURL      *string    `json:"imageUrl,omitempty"`
	CategoryID    *string    `json:"categoryId,omitempty"`
	ReminderAt    *time.Time `json:"reminderAt,omitempty"`
	ReminderEmail *string    `json:"reminderEmail,omitempty"`
	Tags          []TagInput `json:"tags,omitempty"`
}

// BookmarkPatch is the body of PUT /api/bookmarks/{id}. Tags, when present,
// replaces the bookmark's whole tag set.
type BookmarkPatch struct {
	Title         Field[string]
	Description   Field[string]
	ImageURL      Field[string]
	CategoryID    Field[string]
	ReminderAt    Field[time.Time]
	ReminderEmail Field[string]
	Tags          *[]TagInput
}

func (p BookmarkPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.ImageURL.Set && !p.CategoryID.Set &&
		!p.ReminderAt.Set && !p.ReminderEmail.Set && p.Tags == nil
}

func (p BookmarkPatch) MarshalJSON() ([]byte, error) {
	fields := map[string]fieldValue{
		"title":         p.Title,
		"description":   p.Description,
		"imageUrl":      p.ImageURL,
		"categoryId":    p.CategoryID,
		"reminderAt":    p.ReminderAt,
		"reminderEmail": p.ReminderEmail,
	}
	if p.Tags == nil {
		return marshalFields(fields)
	}
	raw, err := marshalFields(fields)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["tags"] = *p.Tags
	return json.Marshal(out)
}

// Apply copies the present fields onto b. Tags are applied by name only since
// ids are assigned by the server.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.Title.Set && p.Title.Value != nil {
		b.Title = *p.Title.Value
	}
	if p.Description.Set {
		b.Description = p.Description.Value
	}
	if p.ImageURL.Set {
		b.ImageURL = p.ImageURL.Value
	}
	if p.CategoryID.Set {
		b.CategoryID = p.CategoryID.Value
	}
	if p.ReminderAt.Set {
		b.ReminderAt = p.ReminderAt.Value
	}
	if p.ReminderEmail.Set {
		b.ReminderEmail = p.ReminderEmail.Value
	}
	if p.Tags != nil {
		tags := make([]Tag, 0, len(*p.Tags))
		for _, in := range *p.Tags {
			color := in.ColorOrDefault()
			tags = append(tags, Tag{Name: in.Name, Color: &color})
		}
		b.Tags = tags
	}
}
