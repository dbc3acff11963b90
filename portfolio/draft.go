package portfolio

import (
	"strings"

	"github.com/rpupo63/portfolio-backend/models"
)

// Draft is the unsaved form state of a project being created or edited.
type Draft struct {
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
}

// NewDraft returns the empty form used by the create flow.
func NewDraft() Draft {
	return Draft{Images: []string{}, Tags: []string{}}
}

// DraftFrom snapshots p's current values for the edit flow.
func DraftFrom(p models.Project) Draft {
	f := p.Fields()
	d := Draft{
		Title:               f.Title,
		Description:         f.Description,
		FullDescription:     f.FullDescription,
		ImageURL:            f.ImageURL,
		CloudinaryPublicID:  f.CloudinaryPublicID,
		CloudinarySecureURL: f.CloudinarySecureURL,
		Images:              f.Images,
		Tags:                f.Tags,
		LiveURL:             f.LiveURL,
		GithubURL:           f.GithubURL,
		Published:           f.Published,
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

// Clone returns a copy that shares no slices with d.
func (d Draft) Clone() Draft {
	d.Images = append([]string{}, d.Images...)
	d.Tags = append([]string{}, d.Tags...)
	return d
}

// AddTag appends the trimmed tag unless it is blank or already present.
// It reports whether the list changed.
func (d *Draft) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, existing := range d.Tags {
		if existing == tag {
			return false
		}
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// RemoveTag drops tag, keeping the order of the others.
func (d *Draft) RemoveTag(tag string) bool {
	for i, existing := range d.Tags {
		if existing == tag {
			d.Tags = append(d.Tags[:i:i], d.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// SetTags replaces the tag list, applying the same trimming and de-duplication as AddTag.
func (d *Draft) SetTags(tags []string) {
	d.Tags = []string{}
	for _, tag := range tags {
		d.AddTag(tag)
	}
}

// AttachImage records an uploaded image. image_url mirrors the secure URL so
// readers that predate the secure field keep rendering it.
func (d *Draft) AttachImage(secureURL, publicID string) {
	d.CloudinarySecureURL = secureURL
	d.CloudinaryPublicID = publicID
	d.ImageURL = secureURL
}

// ClearImage drops all three image references. The stored asset is not deleted.
func (d *Draft) ClearImage() {
	d.CloudinarySecureURL = ""
	d.CloudinaryPublicID = ""
	d.ImageURL = ""
}

// CurrentImage is the image the form previews, if any.
func (d Draft) CurrentImage() string {
	if d.CloudinarySecureURL != "" {
		return d.CloudinarySecureURL
	}
	return d.ImageURL
}

// DraftPatch carries form edits; nil fields are left as they are.
type DraftPatch struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	FullDescription *string   `json:"full_description"`
	Images          *[]string `json:"images"`
	Tags            *[]string `json:"tags"`
	LiveURL         *string   `json:"live_url"`
	GithubURL       *string   `json:"github_url"`
	Published       *bool     `json:"published"`
}

// Apply writes the set fields of p into d. Image references are only changed
// through AttachImage and ClearImage.
func (p DraftPatch) Apply(d *Draft) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.FullDescription != nil {
		d.FullDescription = *p.FullDescription
	}
	if p.Images != nil {
		d.Images = append([]string{}, (*p.Images)...)
	}
	if p.Tags != nil {
		d.SetTags(*p.Tags)
	}
	if p.LiveURL != nil {
		d.LiveURL = *p.LiveURL
	}
	if p.GithubURL != nil {
		d.GithubURL = *p.GithubURL
	}
	if p.Published != nil {
		d.Published = *p.Published
	}
}
