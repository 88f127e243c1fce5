package domain

import (
	goerrors "errors"
	"strings"

	"chat-relay/errors"

	"github.com/go-playground/validator/v10"
)

// DefaultAuthor labels messages whose sender supplied no name.
const DefaultAuthor = "Anonymous"

// MaxAuthorLen is the stored author length in runes; longer names are truncated.
const MaxAuthorLen = 20

var validate = validator.New()

// Candidate carries the raw fields of a submitted message, before
// normalization. IDs and timestamps are never client-supplied; any such
// fields on the wire are ignored upstream.
type Candidate struct {
	Author string
	Body   string `validate:"required,max=500"`
}

// Normalize applies the admission defaults: surrounding whitespace is
// trimmed from the body, an absent author becomes DefaultAuthor, and the
// author is capped at MaxAuthorLen runes.
func (c Candidate) Normalize() Candidate {
	author := c.Author
	if author == "" {
		author = DefaultAuthor
	}
	if runes := []rune(author); len(runes) > MaxAuthorLen {
		author = string(runes[:MaxAuthorLen])
	}
	return Candidate{
		Author: author,
		Body:   strings.TrimSpace(c.Body),
	}
}

// Validate checks a normalized candidate against the admission rules.
// It is pure: no I/O, no side effects, safe to run concurrently.
func (c Candidate) Validate() error {
	if err := validate.Struct(c); err != nil {
		var violations validator.ValidationErrors
		if goerrors.As(err, &violations) && len(violations) > 0 {
			switch violations[0].Tag() {
			case "required":
				return errors.ValidationError{Reason: errors.EmptyBody}
			case "max":
				return errors.ValidationError{Reason: errors.BodyTooLong}
			}
		}
		return err
	}
	return nil
}
