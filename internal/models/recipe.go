package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is a user-submitted recipe. Ingredients and steps are free text,
// newline-separated by convention. Picture holds the relative path of the
// stored upload ("recipes/<id>.jpg") or is empty when none was uploaded.
type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	CuisineType string    `gorm:"size:255;not null" json:"cuisine_type"`
	Ingredients string    `gorm:"type:text;not null" json:"ingredients"`
	Steps       string    `gorm:"type:text;not null" json:"steps"`
	Picture     *string   `gorm:"size:255" json:"picture"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
