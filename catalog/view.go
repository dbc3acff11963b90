package catalog

import (
	"sync"

	"github.com/rpupo63/portfolio-backend/models"
)

// View holds the public filter state over the last loaded published list.
// The filtered projection is recomputed from the three inputs on every read.
type View struct {
	mu       sync.RWMutex
	projects []models.Project
	search   string
	selected []string
}

func NewView(projects []models.Project) *View {
	v := &View{}
	v.SetProjects(projects)
	return v
}

// SetProjects replaces the underlying list. Tags no longer in the universe stay
// selected; they simply match nothing until the list carries them again.
func (v *View) SetProjects(projects []models.Project) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.projects = append([]models.Project(nil), projects...)
}

func (v *View) SetSearch(search string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = search
}

// ToggleTag selects tag, or deselects it if it was already selected.
func (v *View) ToggleTag(tag string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, t := range v.selected {
		if t == tag {
			v.selected = append(v.selected[:i:i], v.selected[i+1:]...)
			return
		}
	}
	v.selected = append(v.selected, tag)
}

// ClearTags deselects every tag.
func (v *View) ClearTags() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = nil
}

func (v *View) Query() Query {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Query{Search: v.search, Tags: append([]string{}, v.selected...)}
}

func (v *View) Tags() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return TagUniverse(v.projects)
}

func (v *View) Filtered() []models.Project {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Filter(v.projects, Query{Search: v.search, Tags: v.selected})
}
