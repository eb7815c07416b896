package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
)

// AuthorHandler handles HTTP requests for one author variant. The same
// handler serves /people and /institutions; the kind is fixed at
// construction. Listing and show are public, writes require a token
// (any authenticated user: authors have no owner).
type AuthorHandler struct {
	service catalog.Service
	tokens  *auth.TokenService
	kind    catalog.AuthorKind
}

// NewPeopleHandler creates the handler for the person variant.
func NewPeopleHandler(service catalog.Service, tokens *auth.TokenService) *AuthorHandler {
	return &AuthorHandler{service: service, tokens: tokens, kind: catalog.AuthorKindPerson}
}

// NewInstitutionsHandler creates the handler for the institution variant.
func NewInstitutionsHandler(service catalog.Service, tokens *auth.TokenService) *AuthorHandler {
	return &AuthorHandler{service: service, tokens: tokens, kind: catalog.AuthorKindInstitution}
}

// Routes returns the routes for the author variant
func (h *AuthorHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(Authenticated(h.tokens, h.service))
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

type authorsEnvelope struct {
	Authors    interface{} `json:"authors"`
	Pagination Pagination  `json:"pagination"`
}

// List returns the authors of this variant, paginated.
func (h *AuthorHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	var authors interface{}
	var total int64
	var err error
	switch h.kind {
	case catalog.AuthorKindPerson:
		var people []*catalog.Person
		people, total, err = h.service.ListPeople(r.Context(), page)
		if people == nil {
			people = []*catalog.Person{}
		}
		authors = people
	case catalog.AuthorKindInstitution:
		var institutions []*catalog.Institution
		institutions, total, err = h.service.ListInstitutions(r.Context(), page)
		if institutions == nil {
			institutions = []*catalog.Institution{}
		}
		authors = institutions
	}
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, authorsEnvelope{
		Authors:    authors,
		Pagination: newPagination(page, total),
	})
}

// Get returns a single author by id.
func (h *AuthorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrAuthorNotFound)
		return
	}

	author, err := h.service.ResolveAuthor(r.Context(), id, h.kind)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, author)
}

type authorRequest struct {
	Name        *string `json:"name"`
	DateOfBirth *string `json:"date_of_birth"`
	City        *string `json:"city"`
}

// Create creates an author of this variant.
func (h *AuthorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch h.kind {
	case catalog.AuthorKindPerson:
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			renderError(w, r, err)
			return
		}
		person, err := h.service.CreatePerson(r.Context(), catalog.CreatePersonRequest{
			Name:        stringValue(req.Name),
			DateOfBirth: dob,
		})
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, person)
	case catalog.AuthorKindInstitution:
		institution, err := h.service.CreateInstitution(r.Context(), catalog.CreateInstitutionRequest{
			Name: stringValue(req.Name),
			City: stringValue(req.City),
		})
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, institution)
	}
}

// Update applies a partial update to an author of this variant.
func (h *AuthorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrAuthorNotFound)
		return
	}

	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch h.kind {
	case catalog.AuthorKindPerson:
		update := catalog.UpdatePersonRequest{ID: id, Name: req.Name}
		if req.DateOfBirth != nil {
			dob, err := parseDate(req.DateOfBirth)
			if err != nil {
				renderError(w, r, err)
				return
			}
			update.DateOfBirth = &dob
		}
		person, err := h.service.UpdatePerson(r.Context(), update)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, person)
	case catalog.AuthorKindInstitution:
		institution, err := h.service.UpdateInstitution(r.Context(), catalog.UpdateInstitutionRequest{
			ID:   id,
			Name: req.Name,
			City: req.City,
		})
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, institution)
	}
}

// Delete removes an author unless materials still reference it.
func (h *AuthorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrAuthorNotFound)
		return
	}

	if err := h.service.DeleteAuthor(r.Context(), id, h.kind); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseDate accepts a date-only or RFC 3339 timestamp string. A nil or
// empty value maps to the zero time, which field validation reports as
// blank.
func parseDate(value *string) (time.Time, error) {
	if value == nil || *value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", *value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, *value); err == nil {
		return t, nil
	}
	ve := &catalog.ValidationError{}
	return time.Time{}, ve.Add("date of birth must be a valid date (got %q)", *value)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
