// Package entity defines the core domain entities and validation logic for the application.
// It contains the Article record produced by a generation run, along with
// its validation rules and domain-specific errors.
package entity

import (
	"errors"
	"time"
)

// PlaceholderTitle is the title of the synthetic record emitted when no
// article could be extracted from the listing page.
const PlaceholderTitle = "Oricon Anime News is temporarily unavailable"

const placeholderDescription = "No articles could be retrieved from the source page during this update. " +
	"The feed will be refreshed on the next run."

// Article represents a single news entry scraped from the listing page.
// Records live for one generation run and are never persisted.
type Article struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
	Image       string // empty when the entry has no usable image
}

// HasImage reports whether the article carries a representative image.
func (a *Article) HasImage() bool {
	return a.Image != ""
}

// Validate checks the invariants every emitted record must satisfy:
// a non-empty title and an absolute http(s) link. An image, when present,
// must also be absolute.
func (a *Article) Validate() error {
	var errs []error

	if a.Title == "" {
		errs = append(errs, &ValidationError{Field: "title", Message: "title is required"})
	}

	if err := ValidateAbsoluteURL("link", a.Link); err != nil {
		errs = append(errs, err)
	}

	if a.Image != "" {
		if err := ValidateAbsoluteURL("image", a.Image); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrValidationFailed}, errs...)...)
	}
	return nil
}

// NewPlaceholderArticle builds the record substituted when a run yields no
// articles. It links back to the source page so feed readers still have
// somewhere to go.
func NewPlaceholderArticle(sourceURL string, now time.Time) Article {
	return Article{
		Title:       PlaceholderTitle,
		Link:        sourceURL,
		Description: placeholderDescription,
		PublishedAt: now,
	}
}
