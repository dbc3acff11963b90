package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/errs"
)

func TestValidate_RequiresTitleAndDescription(t *testing.T) {
	d := NewDraft()
	d.Title = "   "

	_, err := Validate(d)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	fields := errs.FieldErrorsOf(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
}

func TestValidate_URLs(t *testing.T) {
	d := NewDraft()
	d.Title = "T"
	d.Description = "D"
	d.LiveURL = "not a url"
	d.GithubURL = "https://github.com/me/repo"
	d.Images = []string{"https://example.com/ok.png", "nope"}

	_, err := Validate(d)
	require.Error(t, err)
	fields := errs.FieldErrorsOf(err)
	assert.Contains(t, fields, "live_url")
	assert.NotContains(t, fields, "github_url")
	assert.Contains(t, fields, "images")
}

func TestValidate_TrimsAndAcceptsEmptyOptionalFields(t *testing.T) {
	d := NewDraft()
	d.Title = "  Portfolio  "
	d.Description = " My site\n"
	d.AddTag("go")
	d.AttachImage("https://res.cloudinary.com/demo/image/upload/p.png", "p")

	f, err := Validate(d)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio", f.Title)
	assert.Equal(t, "My site", f.Description)
	assert.Empty(t, f.LiveURL)
	assert.Equal(t, []string{"go"}, f.Tags)
	assert.Equal(t, "p", f.CloudinaryPublicID)
	assert.Equal(t, "  Portfolio  ", d.Title, "the draft itself is not modified")
}
