package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the catalog's application interface. Write operations
// on materials take the acting user's id and enforce ownership; read
// operations are public and take none.
type Service interface {
	// User operations
	SignUp(ctx context.Context, req SignUpRequest) (*User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Author operations
	CreatePerson(ctx context.Context, req CreatePersonRequest) (*Person, error)
	GetPerson(ctx context.Context, id uuid.UUID) (*Person, error)
	UpdatePerson(ctx context.Context, req UpdatePersonRequest) (*Person, error)
	ListPeople(ctx context.Context, page Page) ([]*Person, int64, error)
	CreateInstitution(ctx context.Context, req CreateInstitutionRequest) (*Institution, error)
	GetInstitution(ctx context.Context, id uuid.UUID) (*Institution, error)
	UpdateInstitution(ctx context.Context, req UpdateInstitutionRequest) (*Institution, error)
	ListInstitutions(ctx context.Context, page Page) ([]*Institution, int64, error)
	ResolveAuthor(ctx context.Context, id uuid.UUID, kind AuthorKind) (Author, error)
	DeleteAuthor(ctx context.Context, id uuid.UUID, kind AuthorKind) error

	// Material operations
	CreateMaterial(ctx context.Context, actorID uuid.UUID, req CreateMaterialRequest) (*Material, error)
	GetMaterial(ctx context.Context, id uuid.UUID) (*Material, error)
	UpdateMaterial(ctx context.Context, actorID uuid.UUID, req UpdateMaterialRequest) (*Material, error)
	DeleteMaterial(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
	ListPublishedMaterials(ctx context.Context, page Page) ([]*Material, int64, error)
	SearchMaterials(ctx context.Context, req SearchRequest) ([]*Material, int64, error)

	// Lifecycle transitions (owner-only)
	AdvanceMaterialStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Material, error)
	RevertMaterialStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Material, error)
}
