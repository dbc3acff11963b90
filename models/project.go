package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlaceholderImage is rendered when a project carries no image reference.
const PlaceholderImage = "/placeholder.svg"

// Project represents a showcase entry with its ordering and visibility metadata
type Project struct {
	ID                  uuid.UUID                   `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title               string                      `json:"title" db:"title" gorm:"type:text;not null"`
	Description         string                      `json:"description" db:"description" gorm:"type:text;not null"`
	FullDescription     string                      `json:"full_description,omitempty" db:"full_description" gorm:"type:text"`
	ImageURL            string                      `json:"image_url,omitempty" db:"image_url" gorm:"type:text"`
	CloudinaryPublicID  string                      `json:"cloudinary_public_id,omitempty" db:"cloudinary_public_id" gorm:"type:text"`
	CloudinarySecureURL string                      `json:"cloudinary_secure_url,omitempty" db:"cloudinary_secure_url" gorm:"type:text"`
	Images              datatypes.JSONSlice[string] `json:"images,omitempty" db:"images" gorm:"type:jsonb"`
	LiveURL             string                      `json:"live_url,omitempty" db:"live_url" gorm:"type:text"`
	GithubURL           string                      `json:"github_url,omitempty" db:"github_url" gorm:"type:text"`
	Published           bool                        `json:"published" db:"published" gorm:"not null;index"`
	DisplayOrder        int                         `json:"display_order" db:"display_order" gorm:"not null;index"`
	CreatedAt           time.Time                   `json:"created_at" db:"created_at" gorm:"not null"`
	UpdatedAt           time.Time                   `json:"updated_at" db:"updated_at" gorm:"not null"`
	Tags                []ProjectTag                `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TagValues returns the tag labels in display order.
func (p Project) TagValues() []string {
	values := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		values = append(values, tag.Value)
	}
	return values
}

// HasTag reports whether value is one of the project's tags (exact match).
func (p Project) HasTag(value string) bool {
	for _, tag := range p.Tags {
		if tag.Value == value {
			return true
		}
	}
	return false
}

// DisplayImage prefers the secure upload URL, then the legacy image_url, then the placeholder.
func (p Project) DisplayImage() string {
	switch {
	case p.CloudinarySecureURL != "":
		return p.CloudinarySecureURL
	case p.ImageURL != "":
		return p.ImageURL
	default:
		return PlaceholderImage
	}
}

// Fields returns the editable fields of p.
func (p Project) Fields() ProjectFields {
	return ProjectFields{
		Title:               p.Title,
		Description:         p.Description,
		FullDescription:     p.FullDescription,
		ImageURL:            p.ImageURL,
		CloudinaryPublicID:  p.CloudinaryPublicID,
		CloudinarySecureURL: p.CloudinarySecureURL,
		Images:              append([]string(nil), p.Images...),
		Tags:                p.TagValues(),
		LiveURL:             p.LiveURL,
		GithubURL:           p.GithubURL,
		Published:           p.Published,
		DisplayOrder:        p.DisplayOrder,
	}
}

// MarshalJSON flattens tag rows into a list of labels and adds the resolved display image.
func (p Project) MarshalJSON() ([]byte, error) {
	type project Project
	return json.Marshal(struct {
		project
		Tags            []string `json:"tags"`
		DisplayImageURL string   `json:"display_image_url"`
	}{
		project:         project(p),
		Tags:            p.TagValues(),
		DisplayImageURL: p.DisplayImage(),
	})
}
