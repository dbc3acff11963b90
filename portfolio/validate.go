package portfolio

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

var absoluteURL = is.RequestURL.Error("must be a valid absolute URL")

// Validate normalizes d and checks it. On success it returns the fields ready
// for create or update; otherwise an errs validation error with one message per
// failing field. Tags are not checked here; AddTag already de-duplicates them.
func Validate(d Draft) (models.ProjectFields, error) {
	n := normalize(d)

	err := validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required.Error("is required")),
		validation.Field(&n.Description, validation.Required.Error("is required")),
		validation.Field(&n.LiveURL, absoluteURL),
		validation.Field(&n.GithubURL, absoluteURL),
		validation.Field(&n.Images, validation.Each(validation.Required.Error("must not be empty"), absoluteURL)),
	)
	if err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return models.ProjectFields{}, err
		}
		out := make(errs.FieldErrors, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			out[field] = fieldErr.Error()
		}
		return models.ProjectFields{}, errs.NewValidationError(out)
	}

	return models.ProjectFields{
		Title:               n.Title,
		Description:         n.Description,
		FullDescription:     n.FullDescription,
		ImageURL:            n.ImageURL,
		CloudinaryPublicID:  n.CloudinaryPublicID,
		CloudinarySecureURL: n.CloudinarySecureURL,
		Images:              n.Images,
		Tags:                n.Tags,
		LiveURL:             n.LiveURL,
		GithubURL:           n.GithubURL,
		Published:           n.Published,
	}, nil
}

func normalize(d Draft) Draft {
	n := d.Clone()
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.FullDescription = strings.TrimSpace(n.FullDescription)
	n.LiveURL = strings.TrimSpace(n.LiveURL)
	n.GithubURL = strings.TrimSpace(n.GithubURL)
	for i := range n.Images {
		n.Images[i] = strings.TrimSpace(n.Images[i])
	}
	return n
}
