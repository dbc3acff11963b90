package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectTag is one label on a project; Position keeps the order the labels were added in.
type ProjectTag struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_project_tag_project_id;uniqueIndex:idx_project_tag_unique"`
	Value     string    `json:"value" db:"value" gorm:"type:text;not null;uniqueIndex:idx_project_tag_unique"`
	Position  int       `json:"position" db:"position" gorm:"not null"`
}

func (t *ProjectTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// NewProjectTags builds tag rows for projectID, positioned in slice order.
func NewProjectTags(projectID uuid.UUID, values []string) []ProjectTag {
	tags := make([]ProjectTag, 0, len(values))
	for i, v := range values {
		tags = append(tags, ProjectTag{
			ProjectID: projectID,
			Value:     v,
			Position:  i,
		})
	}
	return tags
}
