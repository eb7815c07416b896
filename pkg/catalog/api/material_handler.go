package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
)

// MaterialHandler handles HTTP requests for materials. Reads are
// public (and published-only); writes require the owning user.
type MaterialHandler struct {
	service catalog.Service
	tokens  *auth.TokenService
}

// NewMaterialHandler creates a new material handler
func NewMaterialHandler(service catalog.Service, tokens *auth.TokenService) *MaterialHandler {
	return &MaterialHandler{service: service, tokens: tokens}
}

// Routes returns the routes for materials
func (h *MaterialHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(Authenticated(h.tokens, h.service))
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Patch("/{id}/push_status", h.PushStatus)
		r.Patch("/{id}/pull_status", h.PullStatus)
	})

	return r
}

type materialsEnvelope struct {
	Materials  []*catalog.Material `json:"materials"`
	Pagination Pagination          `json:"pagination"`
}

// List returns the published materials, paginated.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	materials, total, err := h.service.ListPublishedMaterials(r.Context(), page)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if materials == nil {
		materials = []*catalog.Material{}
	}
	render.JSON(w, r, materialsEnvelope{
		Materials:  materials,
		Pagination: newPagination(page, total),
	})
}

// Search matches a single criterion: title, author or description.
func (h *MaterialHandler) Search(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	materials, total, err := h.service.SearchMaterials(r.Context(), catalog.SearchRequest{
		Title:       r.URL.Query().Get("title"),
		Author:      r.URL.Query().Get("author"),
		Description: r.URL.Query().Get("description"),
		Page:        page,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	if materials == nil {
		materials = []*catalog.Material{}
	}
	render.JSON(w, r, materialsEnvelope{
		Materials:  materials,
		Pagination: newPagination(page, total),
	})
}

// Get returns a single material by id.
func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrMaterialNotFound)
		return
	}

	material, err := h.service.GetMaterial(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, material)
}

type createMaterialRequest struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AuthorID    string `json:"author_id"`
	AuthorKind  string `json:"author_kind"`

	ISBN              string `json:"isbn"`
	PageCount         int    `json:"page_count"`
	DOI               string `json:"doi"`
	DurationInMinutes int    `json:"duration_in_minutes"`
}

// Create creates a material owned by the authenticated user.
func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	var req createMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// A malformed author id resolves to no author, which field
	// validation reports as "author must exist".
	authorID, _ := uuid.Parse(req.AuthorID)

	material, err := h.service.CreateMaterial(r.Context(), user.ID, catalog.CreateMaterialRequest{
		Kind:              catalog.MaterialKind(req.Kind),
		Title:             req.Title,
		Description:       req.Description,
		Status:            catalog.MaterialStatus(req.Status),
		AuthorID:          authorID,
		AuthorKind:        catalog.AuthorKind(req.AuthorKind),
		ISBN:              req.ISBN,
		PageCount:         req.PageCount,
		DOI:               req.DOI,
		DurationInMinutes: req.DurationInMinutes,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, material)
}

type updateMaterialRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AuthorID    *string `json:"author_id"`
	AuthorKind  *string `json:"author_kind"`

	ISBN              *string `json:"isbn"`
	PageCount         *int    `json:"page_count"`
	DOI               *string `json:"doi"`
	DurationInMinutes *int    `json:"duration_in_minutes"`
}

// Update applies a partial update to an owned material. Status is not
// updatable here; the lifecycle endpoints are the only way to move it.
func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrMaterialNotFound)
		return
	}

	var req updateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	update := catalog.UpdateMaterialRequest{
		ID:                id,
		Title:             req.Title,
		Description:       req.Description,
		ISBN:              req.ISBN,
		PageCount:         req.PageCount,
		DOI:               req.DOI,
		DurationInMinutes: req.DurationInMinutes,
	}
	if req.AuthorID != nil {
		authorID, _ := uuid.Parse(*req.AuthorID)
		update.AuthorID = &authorID
	}
	if req.AuthorKind != nil {
		kind := catalog.AuthorKind(*req.AuthorKind)
		update.AuthorKind = &kind
	}

	material, err := h.service.UpdateMaterial(r.Context(), user.ID, update)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, material)
}

// Delete destroys an owned material.
func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrMaterialNotFound)
		return
	}

	if err := h.service.DeleteMaterial(r.Context(), user.ID, id); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PushStatus advances the lifecycle: draft to published, published to
// archived.
func (h *MaterialHandler) PushStatus(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.AdvanceMaterialStatus)
}

// PullStatus reverts the lifecycle: archived to published, published to
// draft.
func (h *MaterialHandler) PullStatus(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RevertMaterialStatus)
}

func (h *MaterialHandler) transition(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*catalog.Material, error)) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, catalog.ErrMaterialNotFound)
		return
	}

	material, err := step(r.Context(), user.ID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, material)
}

func parsePage(r *http.Request) catalog.Page {
	page := catalog.Page{}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("items")); err == nil {
		page.Items = v
	}
	return page.Normalize()
}
