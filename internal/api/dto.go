package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkfinder/internal/linkservice"
	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/phrase"
)

// ResolveRequest is the request body for resolving a span around a cursor.
type ResolveRequest struct {
	Line   string `json:"line" example:"Meet the Project Kickoff team" validate:"required"`
	Cursor int    `json:"cursor" example:"20"`
}

// Validate checks the request.
func (r ResolveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Line, validation.Required),
		validation.Field(&r.Cursor, validation.Min(0)),
	)
}

// ResolveResponse reports the resolved span, if any.
type ResolveResponse struct {
	Found bool         `json:"found"`
	Span  *phrase.Span `json:"span,omitempty"`
}

// QueryResponse wraps ranked matches.
type QueryResponse struct {
	Query   string         `json:"query"`
	Matches []models.Match `json:"matches" validate:"required"`
}

// SuggestResponse reports a resolved span and the matches for its text.
type SuggestResponse struct {
	Found   bool           `json:"found"`
	Span    *phrase.Span   `json:"span,omitempty"`
	Matches []models.Match `json:"matches"`
}

// LinkRequest is the request body for formatting a link.
type LinkRequest struct {
	Entry models.EntryID `json:"entry" validate:"required"`
	Label string         `json:"label" example:"the kickoff"`
}

// Validate checks the request.
func (r LinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Entry, validation.By(validateEntryID)),
	)
}

// LinkResponse carries a formatted link.
type LinkResponse struct {
	Link string `json:"link" example:"[[Roadmap#Project Kickoff|the kickoff]]"`
}

// ApplyLinkRequest is the request body for writing a link into a document.
type ApplyLinkRequest struct {
	Line  int            `json:"line" example:"3" validate:"required"`
	Start int            `json:"start" example:"9"`
	End   int            `json:"end" example:"24" validate:"required"`
	Entry models.EntryID `json:"entry" validate:"required"`
	Label string         `json:"label,omitempty"`
}

// Validate checks the request.
func (r ApplyLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Line, validation.Required, validation.Min(1)),
		validation.Field(&r.Start, validation.Min(0)),
		validation.Field(&r.End, validation.Required, validation.Min(r.Start+1)),
		validation.Field(&r.Entry, validation.By(validateEntryID)),
	)
}

// ApplyLinkResponse is the response for a written link.
type ApplyLinkResponse = linkservice.ApplyResult

// RebuildResponse reports whether a rebuild ran.
type RebuildResponse struct {
	Started bool              `json:"started"`
	Stats   linkservice.Stats `json:"stats"`
}

func validateEntryID(value any) error {
	id, _ := value.(models.EntryID)
	return validation.ValidateStruct(&id,
		validation.Field(&id.Kind, validation.Required, validation.By(func(v any) error {
			if k, _ := v.(models.Kind); !k.Valid() {
				return validation.NewError("validation_kind_invalid", "must be title, heading, block or tag")
			}
			return nil
		})),
		validation.Field(&id.SourcePath, validation.Required),
		validation.Field(&id.Target, validation.Required),
	)
}
