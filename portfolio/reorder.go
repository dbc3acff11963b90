package portfolio

import (
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// IDs returns the ids of projects in list order.
func IDs(projects []models.Project) []uuid.UUID {
	ids := make([]uuid.UUID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}

// MoveIndex removes the element at from and reinserts it at to, the way a
// drag-and-drop list reports a drop. It returns a new slice and true, or the
// input unchanged and false when either index is out of range.
func MoveIndex(order []uuid.UUID, from, to int) ([]uuid.UUID, bool) {
	if from < 0 || from >= len(order) || to < 0 || to >= len(order) {
		return order, false
	}
	out := make([]uuid.UUID, 0, len(order))
	out = append(out, order[:from]...)
	out = append(out, order[from+1:]...)

	moved := order[from]
	out = append(out[:to], append([]uuid.UUID{moved}, out[to:]...)...)
	return out, true
}

// ValidatePermutation checks that ids holds exactly the ids of current, each once.
func ValidatePermutation(current, ids []uuid.UUID) error {
	if len(ids) != len(current) {
		return errs.NewValidationError(errs.FieldErrors{
			"ids": "must list every project exactly once",
		})
	}
	want := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !want[id] {
			return errs.NewValidationError(errs.FieldErrors{"ids": "unknown project " + id.String()})
		}
		if seen[id] {
			return errs.NewValidationError(errs.FieldErrors{"ids": "duplicate project " + id.String()})
		}
		seen[id] = true
	}
	return nil
}
