package models

import (
	"time"

	"github.com/uptrace/bun"
)

const DefaultTagColor = "blue"

// Tag names are unique per user and compared case-sensitively.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID        string    `json:"id" bun:"id,pk"`
	UserID    string    `json:"userId" bun:"user_id,notnull,unique:tags_user_id_name_key"`
	Name      string    `json:"name" bun:"name,notnull,unique:tags_user_id_name_key"`
	Color     *string   `json:"color,omitempty" bun:"color"`
	CreatedAt time.Time `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt time.Time `json:"updatedAt" bun:"updated_at,notnull"`
}

// TagInput is a tag reference by name as sent with a bookmark or to POST /api/tags.
type TagInput struct {
	Name  string  `json:"name" mapstructure:"name"`
	Color *string `json:"color,omitempty" mapstructure:"color"`
}

// ColorOrDefault returns the requested color, falling back to DefaultTagColor.
func (in TagInput) ColorOrDefault() string {
	if in.Color == nil || *in.Color == "" {
		return DefaultTagColor
	}
	return *in.Color
}

type TagPatch struct {
	Name  Field[string] `json:"-"`
	Color Field[string] `json:"-"`
}

func (p TagPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Color.Set
}

func (p TagPatch) MarshalJSON() ([]byte, error) {
	return marshalFields(map[string]fieldValue{
		"name":  p.Name,
		"color": p.Color,
	})
}

// Apply copies the present fields onto t. A null name is ignored since names are required.
func (p TagPatch) Apply(t *Tag) {
	if p.Name.Set && p.Name.Value != nil {
		t.Name = *p.Name.Value
	}
	if p.Color.Set {
		t.Color = p.Color.Value
	}
}
