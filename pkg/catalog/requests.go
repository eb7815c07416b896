package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// Page selects a slice of a listing. Zero values mean first page with
// the default size.
type Page struct {
	Number int
	Items  int
}

// Pagination defaults, matching the listing endpoints.
const (
	DefaultPageItems = 20
	MaxPageItems     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Items < 1 {
		p.Items = DefaultPageItems
	}
	if p.Items > MaxPageItems {
		p.Items = MaxPageItems
	}
	return p
}

// Limit returns the page size after normalization.
func (p Page) Limit() int {
	return p.Normalize().Items
}

// Offset returns the row offset after normalization.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Items
}

// SignUpRequest contains parameters for creating a user.
type SignUpRequest struct {
	Email    string
	Password string
}

// CreatePersonRequest contains parameters for creating a person author.
type CreatePersonRequest struct {
	Name        string
	DateOfBirth time.Time
}

// UpdatePersonRequest contains parameters for a partial person update.
// Nil fields are left unchanged.
type UpdatePersonRequest struct {
	ID          uuid.UUID
	Name        *string
	DateOfBirth *time.Time
}

// CreateInstitutionRequest contains parameters for creating an
// institution author.
type CreateInstitutionRequest struct {
	Name string
	City string
}

// UpdateInstitutionRequest contains parameters for a partial
// institution update. Nil fields are left unchanged.
type UpdateInstitutionRequest struct {
	ID   uuid.UUID
	Name *string
	City *string
}

// CreateMaterialRequest contains parameters for creating a material.
// The payload fields are flat; the service selects which ones matter
// from Kind and rejects the rest through validation.
type CreateMaterialRequest struct {
	Kind        MaterialKind
	Title       string
	Description string
	// Status is optional; materials default to draft.
	Status     MaterialStatus
	AuthorID   uuid.UUID
	AuthorKind AuthorKind

	// Book fields
	ISBN      string
	PageCount int
	// Article fields
	DOI string
	// Video fields
	DurationInMinutes int
}

// UpdateMaterialRequest contains parameters for a partial material
// update. Nil fields are left unchanged. Status is deliberately absent:
// the lifecycle transitions are the only way to change it.
type UpdateMaterialRequest struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	AuthorID    *uuid.UUID
	AuthorKind  *AuthorKind

	ISBN              *string
	PageCount         *int
	DOI               *string
	DurationInMinutes *int
}

// SearchRequest carries the search criteria from the HTTP surface.
// Exactly one criterion is used: when several are present the first of
// title, author, description wins; when none is, the search fails with
// ErrMissingSearchParameter.
type SearchRequest struct {
	Title       string
	Author      string
	Description string
	Page        Page
}
