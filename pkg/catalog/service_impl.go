package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository       Repository
	hasher           PasswordHasher
	metadataProvider BookMetadataProvider
	enrichTimeout    time.Duration
	searchPublished  bool
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithPasswordHasher sets the password hashing primitive
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *service) {
		s.hasher = hasher
	}
}

// WithBookMetadataProvider sets the enrichment collaborator consulted
// during book creation. Without one, books are created from
// user-supplied fields only.
func WithBookMetadataProvider(provider BookMetadataProvider) Option {
	return func(s *service) {
		s.metadataProvider = provider
	}
}

// WithEnrichmentTimeout bounds the enrichment call during book creation.
func WithEnrichmentTimeout(timeout time.Duration) Option {
	return func(s *service) {
		if timeout > 0 {
			s.enrichTimeout = timeout
		}
	}
}

// WithPublishedOnlySearch toggles the status filter on the search
// component. The default (true) restricts search and listing to
// published materials; false searches across every status.
func WithPublishedOnlySearch(publishedOnly bool) Option {
	return func(s *service) {
		s.searchPublished = publishedOnly
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		enrichTimeout:   3 * time.Second,
		searchPublished: true,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}

	return s, nil
}

// User operations

func (s *service) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	ve := ValidateEmail(req.Email)
	ve.Merge(ValidatePassword(req.Password))
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: email or password is invalid", ErrAuthenticationFailed)
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: email or password is invalid", ErrAuthenticationFailed)
	}
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repository.GetUser(ctx, id)
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repository.DeleteUser(ctx, id)
}

// Author operations

func (s *service) CreatePerson(ctx context.Context, req CreatePersonRequest) (*Person, error) {
	now := time.Now().UTC()
	person := &Person{
		ID:          uuid.New(),
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := person.Validate(); err != nil {
		return nil, err
	}
	if err := s.repository.CreatePerson(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

func (s *service) GetPerson(ctx context.Context, id uuid.UUID) (*Person, error) {
	return s.repository.GetPerson(ctx, id)
}

func (s *service) UpdatePerson(ctx context.Context, req UpdatePersonRequest) (*Person, error) {
	person, err := s.repository.GetPerson(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		person.Name = *req.Name
	}
	if req.DateOfBirth != nil {
		person.DateOfBirth = *req.DateOfBirth
	}
	if err := person.Validate(); err != nil {
		return nil, err
	}
	person.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdatePerson(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

func (s *service) ListPeople(ctx context.Context, page Page) ([]*Person, int64, error) {
	return s.repository.ListPeople(ctx, page.Normalize())
}

func (s *service) CreateInstitution(ctx context.Context, req CreateInstitutionRequest) (*Institution, error) {
	now := time.Now().UTC()
	institution := &Institution{
		ID:        uuid.New(),
		Name:      req.Name,
		City:      req.City,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := institution.Validate(); err != nil {
		return nil, err
	}
	if err := s.repository.CreateInstitution(ctx, institution); err != nil {
		return nil, err
	}
	return institution, nil
}

func (s *service) GetInstitution(ctx context.Context, id uuid.UUID) (*Institution, error) {
	return s.repository.GetInstitution(ctx, id)
}

func (s *service) UpdateInstitution(ctx context.Context, req UpdateInstitutionRequest) (*Institution, error) {
	institution, err := s.repository.GetInstitution(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		institution.Name = *req.Name
	}
	if req.City != nil {
		institution.City = *req.City
	}
	if err := institution.Validate(); err != nil {
		return nil, err
	}
	institution.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateInstitution(ctx, institution); err != nil {
		return nil, err
	}
	return institution, nil
}

func (s *service) ListInstitutions(ctx context.Context, page Page) ([]*Institution, int64, error) {
	return s.repository.ListInstitutions(ctx, page.Normalize())
}

// ResolveAuthor dispatches on the kind discriminant to the matching
// variant. Any kind outside the closed set fails ErrUnknownAuthorKind.
func (s *service) ResolveAuthor(ctx context.Context, id uuid.UUID, kind AuthorKind) (Author, error) {
	switch kind {
	case AuthorKindPerson:
		return s.repository.GetPerson(ctx, id)
	case AuthorKindInstitution:
		return s.repository.GetInstitution(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthorKind, kind)
	}
}

func (s *service) DeleteAuthor(ctx context.Context, id uuid.UUID, kind AuthorKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownAuthorKind, kind)
	}
	if err := s.repository.DeleteAuthor(ctx, id, kind); err != nil {
		return &AuthorError{AuthorID: id, Kind: kind, Op: "delete", Err: err}
	}
	return nil
}

// Material operations

func (s *service) CreateMaterial(ctx context.Context, actorID uuid.UUID, req CreateMaterialRequest) (*Material, error) {
	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	now := time.Now().UTC()
	material := &Material{
		ID:          uuid.New(),
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		UserID:      actorID,
		AuthorID:    req.AuthorID,
		AuthorKind:  req.AuthorKind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch req.Kind {
	case KindBook:
		material.Book = &BookPayload{ISBN: req.ISBN, PageCount: req.PageCount}
	case KindArticle:
		material.Article = &ArticlePayload{DOI: req.DOI}
	case KindVideo:
		material.Video = &VideoPayload{DurationInMinutes: req.DurationInMinutes}
	}

	s.enrichBook(ctx, material)

	ve := &ValidationError{}
	if verr := s.checkAuthorExists(ctx, material); verr != nil {
		ve.Merge(verr)
	}
	if err := material.Validate(); err != nil {
		var mve *ValidationError
		if errors.As(err, &mve) {
			ve.Merge(mve)
		} else {
			return nil, err
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repository.CreateMaterial(ctx, material); err != nil {
		return nil, &MaterialError{MaterialID: material.ID, Op: "create", Err: err}
	}
	return material, nil
}

// enrichBook fills the missing title or page count of a book from the
// metadata provider. Enrichment is best effort: user-supplied values
// are never overridden and every provider failure is reported as no
// data.
func (s *service) enrichBook(ctx context.Context, material *Material) {
	if s.metadataProvider == nil || material.Kind != KindBook || material.Book == nil {
		return
	}
	if material.Book.ISBN == "" {
		return
	}
	if material.Title != "" && material.Book.PageCount > 0 {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()

	metadata, err := s.metadataProvider.FetchBookMetadata(fetchCtx, material.Book.ISBN)
	if err != nil {
		slog.Warn("book metadata lookup failed", "isbn", material.Book.ISBN, "error", err)
		return
	}
	if metadata == nil {
		return
	}

	if material.Title == "" {
		material.Title = metadata.Title
	}
	if material.Book.PageCount <= 0 {
		material.Book.PageCount = metadata.PageCount
	}
}

// checkAuthorExists verifies the (id, kind) reference resolves to a row
// of the stated kind. Failures surface as field validation messages so
// creation and update render them alongside the other field errors.
func (s *service) checkAuthorExists(ctx context.Context, material *Material) *ValidationError {
	if material.AuthorID == uuid.Nil || !material.AuthorKind.IsValid() {
		// Covered by the material's own field validation.
		return nil
	}
	if _, err := s.ResolveAuthor(ctx, material.AuthorID, material.AuthorKind); err != nil {
		if errors.Is(err, ErrAuthorNotFound) {
			ve := &ValidationError{}
			return ve.Add("author must exist")
		}
		ve := &ValidationError{}
		return ve.Add("author could not be resolved")
	}
	return nil
}

func (s *service) GetMaterial(ctx context.Context, id uuid.UUID) (*Material, error) {
	return s.repository.GetMaterial(ctx, id)
}

func (s *service) UpdateMaterial(ctx context.Context, actorID uuid.UUID, req UpdateMaterialRequest) (*Material, error) {
	material, err := s.repository.GetMaterial(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(material, actorID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		material.Title = *req.Title
	}
	if req.Description != nil {
		material.Description = *req.Description
	}
	if req.AuthorID != nil {
		material.AuthorID = *req.AuthorID
	}
	if req.AuthorKind != nil {
		material.AuthorKind = *req.AuthorKind
	}

	switch material.Kind {
	case KindBook:
		if req.ISBN != nil {
			material.Book.ISBN = *req.ISBN
		}
		if req.PageCount != nil {
			material.Book.PageCount = *req.PageCount
		}
	case KindArticle:
		if req.DOI != nil {
			material.Article.DOI = *req.DOI
		}
	case KindVideo:
		if req.DurationInMinutes != nil {
			material.Video.DurationInMinutes = *req.DurationInMinutes
		}
	}

	ve := &ValidationError{}
	if verr := s.checkAuthorExists(ctx, material); verr != nil {
		ve.Merge(verr)
	}
	if err := material.Validate(); err != nil {
		var mve *ValidationError
		if errors.As(err, &mve) {
			ve.Merge(mve)
		} else {
			return nil, err
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	material.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateMaterial(ctx, material); err != nil {
		return nil, &MaterialError{MaterialID: material.ID, Op: "update", Err: err}
	}
	return material, nil
}

func (s *service) DeleteMaterial(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	material, err := s.repository.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(material, actorID); err != nil {
		return err
	}
	if err := s.repository.DeleteMaterial(ctx, id); err != nil {
		return &MaterialError{MaterialID: id, Op: "delete", Err: err}
	}
	return nil
}

func (s *service) ListPublishedMaterials(ctx context.Context, page Page) ([]*Material, int64, error) {
	published := StatusPublished
	return s.repository.ListMaterials(ctx, ListMaterialsParams{
		Status: &published,
		Page:   page.Normalize(),
	})
}

func (s *service) SearchMaterials(ctx context.Context, req SearchRequest) ([]*Material, int64, error) {
	var field SearchField
	var term string
	switch {
	case req.Title != "":
		field, term = SearchByTitle, req.Title
	case req.Author != "":
		field, term = SearchByAuthorName, req.Author
	case req.Description != "":
		field, term = SearchByDescription, req.Description
	default:
		return nil, 0, ErrMissingSearchParameter
	}

	params := SearchMaterialsParams{
		Field: field,
		Term:  term,
		Page:  req.Page.Normalize(),
	}
	if s.searchPublished {
		published := StatusPublished
		params.Status = &published
	}
	return s.repository.SearchMaterials(ctx, params)
}

// Lifecycle transitions

func (s *service) AdvanceMaterialStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Material, error) {
	return s.transition(ctx, actorID, id, "advance", NextStatus)
}

func (s *service) RevertMaterialStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Material, error) {
	return s.transition(ctx, actorID, id, "revert", PrevStatus)
}

// transition loads the material, confirms ownership, computes the new
// status and re-runs the full validation set before committing. Any
// failure leaves the stored status untouched.
func (s *service) transition(ctx context.Context, actorID uuid.UUID, id uuid.UUID, op string, step func(MaterialStatus) (MaterialStatus, error)) (*Material, error) {
	material, err := s.repository.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(material, actorID); err != nil {
		return nil, err
	}

	next, err := step(material.Status)
	if err != nil {
		return nil, err
	}

	material.Status = next
	if err := material.Validate(); err != nil {
		return nil, err
	}

	material.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateMaterial(ctx, material); err != nil {
		return nil, &MaterialError{MaterialID: id, Op: op, Err: err}
	}
	return material, nil
}

// authorizeOwner is the write-side authorization gate: the acting user
// must own the material. There is no role tier above ownership.
func authorizeOwner(material *Material, actorID uuid.UUID) error {
	if material.UserID != actorID {
		return fmt.Errorf("%w: user %s does not own material %s", ErrAuthorizationFailed, actorID, material.ID)
	}
	return nil
}
