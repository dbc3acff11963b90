package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type ProjectTagRepo struct {
	db *gorm.DB
}

func NewProjectTagRepo(db *gorm.DB) *ProjectTagRepo {
	return &ProjectTagRepo{db}
}

// withTx returns a copy bound to tx so tag writes join the caller's transaction.
func (r *ProjectTagRepo) withTx(tx *gorm.DB) *ProjectTagRepo {
	return &ProjectTagRepo{tx}
}

// FindByProject returns a project's tags in display order.
func (r *ProjectTagRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectTag, error) {
	var tags []models.ProjectTag
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&tags).Error
	return tags, err
}

// Replace swaps the full tag list of a project for values, keeping slice order.
func (r *ProjectTagRepo) Replace(ctx context.Context, projectID uuid.UUID, values []string) error {
	if err := r.DeleteForProject(ctx, projectID); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	tags := models.NewProjectTags(projectID, values)
	return r.db.WithContext(ctx).Create(&tags).Error
}

// DeleteForProject removes every tag of a project.
func (r *ProjectTagRepo) DeleteForProject(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectTag{}).Error
}
