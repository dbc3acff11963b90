package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/rpupo63/portfolio-backend/models"
)

// Query is the public filter: a free-text search plus tags that must all be present.
type Query struct {
	Search string   `json:"search"`
	Tags   []string `json:"tags"`
}

// A Caser keeps state between calls, so each fold gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Matches reports whether p satisfies q. An empty search matches everything;
// selected tags narrow the result, so p must carry every one of them.
func (q Query) Matches(p models.Project) bool {
	if q.Search != "" {
		needle := fold(q.Search)
		if !strings.Contains(fold(p.Title), needle) && !strings.Contains(fold(p.Description), needle) {
			return false
		}
	}
	for _, tag := range q.Tags {
		if !p.HasTag(tag) {
			return false
		}
	}
	return true
}

// Filter returns the projects matching q, in their original order.
func Filter(projects []models.Project, q Query) []models.Project {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// TagUniverse lists every tag across projects in order of first appearance.
func TagUniverse(projects []models.Project) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, p := range projects {
		for _, tag := range p.TagValues() {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
