package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// ProjectRepo is the persistence backend for the projects collection.
// Errors are returned unwrapped except for missing ids, which come back as errs.NotFound.
type ProjectRepo struct {
	db   *gorm.DB
	tags *ProjectTagRepo
}

func NewProjectRepo(db *gorm.DB, tags *ProjectTagRepo) *ProjectRepo {
	return &ProjectRepo{db: db, tags: tags}
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

// List returns projects sorted ascending by display_order; ties keep creation order.
// The published listing may be served from a read replica, the admin listing never is.
func (r *ProjectRepo) List(ctx context.Context, scope models.Scope) ([]models.Project, error) {
	q := preloadTags(r.db.WithContext(ctx))
	if scope == models.ScopePublished {
		q = q.Where("published = ?", true)
	} else {
		q = q.Clauses(dbresolver.Write)
	}

	var projects []models.Project
	err := q.Order("display_order ASC").Order("created_at ASC").Order("id ASC").Find(&projects).Error
	return projects, err
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := preloadTags(r.db.WithContext(ctx).Clauses(dbresolver.Write)).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Create inserts the project and its tags in one transaction.
func (r *ProjectRepo) Create(ctx context.Context, fields models.ProjectFields) (*models.Project, error) {
	project := fields.NewProject()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		return r.tags.withTx(tx).Replace(ctx, project.ID, fields.Tags)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, project.ID)
}

// Update applies patch to the project with the given id.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := patch.Columns()
		if len(cols) > 0 {
			res := tx.Model(&models.Project{}).Where("id = ?", id).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errs.NewNotFound("project")
			}
		} else if err := tx.Select("id").First(&models.Project{}, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewNotFound("project")
			}
			return err
		}

		if patch.Tags != nil {
			return r.tags.withTx(tx).Replace(ctx, id, *patch.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// SetDisplayOrder rewrites only the display_order column; updated_at is left alone.
func (r *ProjectRepo) SetDisplayOrder(ctx context.Context, id uuid.UUID, order int) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).UpdateColumn("display_order", order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("project")
	}
	return nil
}

// Delete removes a project and its tags. Deleting an unknown id is NotFound.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.tags.withTx(tx).DeleteForProject(ctx, id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("project")
		}
		return nil
	})
}
