package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CategoryColor string

const (
	ColorEmerald CategoryColor = "emerald"
	ColorViolet  CategoryColor = "violet"
	ColorAmber   CategoryColor = "amber"
	ColorRose    CategoryColor = "rose"
	ColorSky     CategoryColor = "sky"
)

func (c CategoryColor) Valid() bool {
	switch c {
	case ColorEmerald, ColorViolet, ColorAmber, ColorRose, ColorSky:
		return true
	}
	return false
}

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID        string        `json:"id" bun:"id,pk"`
	UserID    string        `json:"userId" bun:"user_id,notnull"`
	Name      string        `json:"name" bun:"name,notnull"`
	Color     CategoryColor `json:"color" bun:"color,notnull"`
	Icon      *string       `json:"icon,omitempty" bun:"icon"`
	CreatedAt time.Time     `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt time.Time     `json:"updatedAt" bun:"updated_at,notnull"`
}

type CreateCategoryRequest struct {
	Name  string        `json:"name"`
	Color CategoryColor `json:"color"`
	Icon  *string       `json:"icon,omitempty"`
}

type CategoryPatch struct {
	Name  Field[string]        `json:"-"`
	Color Field[CategoryColor] `json:"-"`
	Icon  Field[string]        `json:"-"`
}

func (p CategoryPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Color.Set && !p.Icon.Set
}

func (p CategoryPatch) MarshalJSON() ([]byte, error) {
	return marshalFields(map[string]fieldValue{
		"name":  p.Name,
		"color": p.Color,
		"icon":  p.Icon,
	})
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name.Set && p.Name.Value != nil {
		c.Name = *p.Name.Value
	}
	if p.Color.Set && p.Color.Value != nil {
		c.Color = *p.Color.Value
	}
	if p.Icon.Set {
		c.Icon = p.Icon.Value
	}
}
