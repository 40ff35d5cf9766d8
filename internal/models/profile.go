package models

import (
	"errors"

	"gorm.io/gorm"
)

// ProfileMode declares whether a profile depicts a fictional subject or a
// real, identifiable person.
type ProfileMode string

const (
	// ProfileModeFictional is the default mode for invented subjects.
	ProfileModeFictional ProfileMode = "fictional"
	// ProfileModeRealIdentity marks profiles depicting real people and may
	// require an explicit consent marker depending on configuration.
	ProfileModeRealIdentity ProfileMode = "real_identity"
)

// Valid returns true for a known profile mode.
func (m ProfileMode) Valid() bool {
	return m == ProfileModeFictional || m == ProfileModeRealIdentity
}

// ErrProfileNameRequired is returned when a profile is saved without a name.
var ErrProfileNameRequired = errors.New("profile name is required")

// GenerationLock holds the non-prompt parameters that keep generations
// reproducible and identity-consistent across videos of the same subject.
// It is persisted as a JSON blob in the generation_lock_json column.
type GenerationLock struct {
	BaseModel       *string  `json:"base_model"`
	Loras           []string `json:"loras"`
	VAE             *string  `json:"vae"`
	PromptTemplate  *string  `json:"prompt_template"`
	NegativePrompt  *string  `json:"negative_prompt"`
	CfgScale        *float64 `json:"cfg_scale"`
	Seed            *int64   `json:"seed"`
	SeedStrategy    *string  `json:"seed_strategy"`
	SeedJitter      int      `json:"seed_jitter"`
	ReferenceWeight float64  `json:"reference_weight"`
	StrictLock      bool     `json:"strict_lock"`
}

// DefaultGenerationLock returns the lock defaults: full reference weight and
// strict identity locking enabled.
func DefaultGenerationLock() GenerationLock {
	return GenerationLock{
		Loras:           []string{},
		ReferenceWeight: 1.0,
		StrictLock:      true,
	}
}

// Profile is a named identity bundle: reference images plus generation-lock
// parameters and a consent flag.
type Profile struct {
	BaseModel

	// Name is the human-readable profile name (1-200 chars).
	Name string `gorm:"not null;size:200" json:"name"`

	// Mode is fictional or real_identity.
	Mode ProfileMode `gorm:"not null;size:20" json:"mode"`

	// ConsentChecked records that the operator confirmed consent for a
	// real-identity subject.
	ConsentChecked bool `gorm:"not null;default:false" json:"consent_checked"`

	// GenerationLock is stored as JSON in generation_lock_json.
	GenerationLock GenerationLock `gorm:"column:generation_lock_json;type:text;serializer:json" json:"generation_lock"`

	// References is the ordered reference image list. Loaded explicitly by
	// the repository; not an eager association.
	References []ProfileReference `gorm:"foreignKey:ProfileID;references:ID" json:"-"`
}

// TableName returns the table name for Profile.
func (Profile) TableName() string {
	return "video_profiles"
}

// Validate performs basic validation on the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return ErrProfileNameRequired
	}
	if !p.Mode.Valid() {
		return errors.New("unknown profile mode")
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the profile and generates a ULID.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if err := p.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return p.Validate()
}

// ReferenceImageNames returns the attached image names in sort order.
// References must already be loaded.
func (p *Profile) ReferenceImageNames() []string {
	names := make([]string, 0, len(p.References))
	for _, ref := range p.References {
		names = append(names, ref.ImageName)
	}
	return names
}

// ProfileReference attaches a single reference image to a profile.
// (profile_id, image_name) is unique; SortOrder defines keyframe selection
// order. Rows are removed by schema cascade when the profile is deleted.
type ProfileReference struct {
	ID        ULID   `gorm:"primarykey;type:varchar(26)" json:"id"`
	ProfileID ULID   `gorm:"not null;type:varchar(26);index" json:"profile_id"`
	ImageName string `gorm:"not null;size:255" json:"image_name"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
}

// TableName returns the table name for ProfileReference.
func (ProfileReference) TableName() string {
	return "video_profile_references"
}

// BeforeCreate generates a ULID if not already set.
func (r *ProfileReference) BeforeCreate(tx *gorm.DB) error {
	if r.ID.IsZero() {
		r.ID = NewULID()
	}
	return nil
}
