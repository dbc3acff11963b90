package models

import (
	"time"

	"gorm.io/datatypes"
)

// Scope selects which projects a listing returns.
type Scope int

const (
	// ScopeAll is the admin listing: every project regardless of visibility.
	ScopeAll Scope = iota
	// ScopePublished is the public listing: published projects only.
	ScopePublished
)

func (s Scope) String() string {
	switch s {
	case ScopePublished:
		return "published"
	default:
		return "all"
	}
}

// ProjectFields is everything a caller may supply when creating a project.
// The id and both timestamps are assigned by the backend.
type ProjectFields struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	FullDescription     string   `json:"full_description"`
	ImageURL            string   `json:"image_url"`
	CloudinaryPublicID  string   `json:"cloudinary_public_id"`
	CloudinarySecureURL string   `json:"cloudinary_secure_url"`
	Images              []string `json:"images"`
	Tags                []string `json:"tags"`
	LiveURL             string   `json:"live_url"`
	GithubURL           string   `json:"github_url"`
	Published           bool     `json:"published"`
	DisplayOrder        int      `json:"display_order"`
}

// NewProject builds an unsaved Project from f. Tag rows are attached after the id is known.
func (f ProjectFields) NewProject() *Project {
	return &Project{
		Title:               f.Title,
		Description:         f.Description,
		FullDescription:     f.FullDescription,
		ImageURL:            f.ImageURL,
		CloudinaryPublicID:  f.CloudinaryPublicID,
		CloudinarySecureURL: f.CloudinarySecureURL,
		Images:              datatypes.NewJSONSlice(append([]string{}, f.Images...)),
		LiveURL:             f.LiveURL,
		GithubURL:           f.GithubURL,
		Published:           f.Published,
		DisplayOrder:        f.DisplayOrder,
	}
}

// ProjectPatch names the fields an update touches; nil means "leave unchanged".
type ProjectPatch struct {
	Title               *string
	Description         *string
	FullDescription     *string
	ImageURL            *string
	CloudinaryPublicID  *string
	CloudinarySecureURL *string
	Images              *[]string
	Tags                *[]string
	LiveURL             *string
	GithubURL           *string
	Published           *bool
	DisplayOrder        *int

	// UpdatedAt is stamped by the repository on every update and never taken from clients.
	UpdatedAt time.Time
}

// PatchFromFields returns a patch that overwrites every form field of a project.
// Display order is left alone; it only changes through reorder.
func PatchFromFields(f ProjectFields) ProjectPatch {
	images := append([]string{}, f.Images...)
	tags := append([]string{}, f.Tags...)
	return ProjectPatch{
		Title:               &f.Title,
		Description:         &f.Description,
		FullDescription:     &f.FullDescription,
		ImageURL:            &f.ImageURL,
		CloudinaryPublicID:  &f.CloudinaryPublicID,
		CloudinarySecureURL: &f.CloudinarySecureURL,
		Images:              &images,
		Tags:                &tags,
		LiveURL:             &f.LiveURL,
		GithubURL:           &f.GithubURL,
		Published:           &f.Published,
	}
}

// Columns maps the set scalar fields to their column names. Tags live in their own table.
func (p ProjectPatch) Columns() map[string]any {
	cols := make(map[string]any)
	setString := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	setString("title", p.Title)
	setString("description", p.Description)
	setString("full_description", p.FullDescription)
	setString("image_url", p.ImageURL)
	setString("cloudinary_public_id", p.CloudinaryPublicID)
	setString("cloudinary_secure_url", p.CloudinarySecureURL)
	setString("live_url", p.LiveURL)
	setString("github_url", p.GithubURL)
	if p.Images != nil {
		cols["images"] = datatypes.NewJSONSlice(append([]string{}, (*p.Images)...))
	}
	if p.Published != nil {
		cols["published"] = *p.Published
	}
	if p.DisplayOrder != nil {
		cols["display_order"] = *p.DisplayOrder
	}
	if !p.UpdatedAt.IsZero() {
		cols["updated_at"] = p.UpdatedAt
	}
	return cols
}
