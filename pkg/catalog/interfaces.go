package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for the catalog. The
// uniqueness constraints (email, isbn, doi) and the author-deletion
// guard are enforced here, atomically with respect to concurrent
// writers, never by a check-then-write in the service.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// DeleteUser removes the user and cascades deletion of every
	// material it owns.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Person operations
	CreatePerson(ctx context.Context, person *Person) error
	GetPerson(ctx context.Context, id uuid.UUID) (*Person, error)
	UpdatePerson(ctx context.Context, person *Person) error
	ListPeople(ctx context.Context, page Page) ([]*Person, int64, error)

	// Institution operations
	CreateInstitution(ctx context.Context, institution *Institution) error
	GetInstitution(ctx context.Context, id uuid.UUID) (*Institution, error)
	UpdateInstitution(ctx context.Context, institution *Institution) error
	ListInstitutions(ctx context.Context, page Page) ([]*Institution, int64, error)

	// DeleteAuthor deletes the author row of the stated kind unless any
	// material still references it. The reference check and the delete
	// are evaluated as one atomic step.
	DeleteAuthor(ctx context.Context, id uuid.UUID, kind AuthorKind) error

	// Material operations
	CreateMaterial(ctx context.Context, material *Material) error
	GetMaterial(ctx context.Context, id uuid.UUID) (*Material, error)
	UpdateMaterial(ctx context.Context, material *Material) error
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
	ListMaterials(ctx context.Context, params ListMaterialsParams) ([]*Material, int64, error)
	// SearchMaterials returns deduplicated matches ordered by primary
	// key ascending.
	SearchMaterials(ctx context.Context, params SearchMaterialsParams) ([]*Material, int64, error)
}

// BookMetadataProvider is the enrichment collaborator consulted during
// book creation. Implementations swallow upstream failures and report
// them as (nil, nil); a non-nil error is treated the same way by the
// service, so enrichment can never fail a request.
type BookMetadataProvider interface {
	FetchBookMetadata(ctx context.Context, isbn string) (*BookMetadata, error)
}

// PasswordHasher abstracts the password hashing primitive used at
// signup and login.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// SearchField names the single criterion a search request matches on.
type SearchField string

// Search field constants (typed).
const (
	SearchByTitle       SearchField = "title"
	SearchByAuthorName  SearchField = "author"
	SearchByDescription SearchField = "description"
)

// ListMaterialsParams filters and paginates a material listing.
type ListMaterialsParams struct {
	Status *MaterialStatus
	Page   Page
}

// SearchMaterialsParams drives a repository search. Status is nil when
// the search component is configured without a status filter.
type SearchMaterialsParams struct {
	Field  SearchField
	Term   string
	Status *MaterialStatus
	Page   Page
}
