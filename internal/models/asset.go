package models

import (
	"time"

	"gorm.io/gorm"
)

// Asset is a completed video file with its recorded encode parameters.
// The row is inserted in the same transaction that marks the producing job
// completed. Assets are immutable once written, so there is no updated_at.
type Asset struct {
	ID        ULID      `gorm:"primarykey;type:varchar(26)" json:"id"`
	Filename  string    `gorm:"not null;size:255" json:"filename"`
	Duration  float64   `gorm:"not null" json:"duration"`
	FPS       int       `gorm:"not null" json:"fps"`
	Width     int       `gorm:"not null" json:"width"`
	Height    int       `gorm:"not null" json:"height"`
	CreatedAt time.Time `gorm:"index:idx_video_assets_created_at,sort:desc" json:"created_at"`

	// Path is the absolute filesystem path. It is re-verified to lie under
	// the outputs directory on every read, never trusted from the row alone.
	Path string `gorm:"not null" json:"path"`

	// ProfileID is nulled by the schema when the profile is deleted.
	ProfileID *ULID `gorm:"type:varchar(26)" json:"profile_id"`
}

// TableName returns the table name for Asset.
func (Asset) TableName() string {
	return "video_assets"
}

// BeforeCreate generates a ULID if not already set.
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID.IsZero() {
		a.ID = NewULID()
	}
	return nil
}
