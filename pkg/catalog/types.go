package catalog

import (
	"time"

	"github.com/google/uuid"
)

// MaterialStatus is the domain type for material lifecycle states.
type MaterialStatus string

// Material status constants (typed).
const (
	StatusDraft     MaterialStatus = "draft"
	StatusPublished MaterialStatus = "published"
	StatusArchived  MaterialStatus = "archived"
)

// IsValid reports whether the status is one of the three known states.
func (s MaterialStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// MaterialKind selects which payload a material carries.
type MaterialKind string

// Material kind constants (typed).
const (
	KindBook    MaterialKind = "book"
	KindArticle MaterialKind = "article"
	KindVideo   MaterialKind = "video"
)

// IsValid reports whether the kind is one of the three known kinds.
func (k MaterialKind) IsValid() bool {
	switch k {
	case KindBook, KindArticle, KindVideo:
		return true
	}
	return false
}

// AuthorKind discriminates the two author variants.
type AuthorKind string

// Author kind constants (typed).
const (
	AuthorKindPerson      AuthorKind = "person"
	AuthorKindInstitution AuthorKind = "institution"
)

// IsValid reports whether the kind names a known author variant.
func (k AuthorKind) IsValid() bool {
	switch k {
	case AuthorKindPerson, AuthorKindInstitution:
		return true
	}
	return false
}

// User is a registered account that owns materials.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Person is the human author variant.
type Person struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Institution is the organizational author variant.
type Institution struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the capability shared by the two author variants. Resolution
// always goes through the (id, kind) pair; there is no open-ended lookup.
type Author interface {
	AuthorID() uuid.UUID
	AuthorKind() AuthorKind
	DisplayName() string
	Validate() error
}

func (p *Person) AuthorID() uuid.UUID    { return p.ID }
func (p *Person) AuthorKind() AuthorKind { return AuthorKindPerson }
func (p *Person) DisplayName() string    { return p.Name }

func (i *Institution) AuthorID() uuid.UUID    { return i.ID }
func (i *Institution) AuthorKind() AuthorKind { return AuthorKindInstitution }
func (i *Institution) DisplayName() string    { return i.Name }

// BookPayload holds the fields required when Kind is book.
type BookPayload struct {
	ISBN      string `json:"isbn"`
	PageCount int    `json:"page_count"`
}

// ArticlePayload holds the fields required when Kind is article.
type ArticlePayload struct {
	DOI string `json:"doi"`
}

// VideoPayload holds the fields required when Kind is video.
type VideoPayload struct {
	DurationInMinutes int `json:"duration_in_minutes"`
}

// Material is the catalogued work. Exactly one payload pointer is
// populated, matching Kind; the rest stay nil.
type Material struct {
	ID          uuid.UUID      `json:"id"`
	Kind        MaterialKind   `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      MaterialStatus `json:"status"`
	UserID      uuid.UUID      `json:"user_id"`
	AuthorID    uuid.UUID      `json:"author_id"`
	AuthorKind  AuthorKind     `json:"author_kind"`

	Book    *BookPayload    `json:"book,omitempty"`
	Article *ArticlePayload `json:"article,omitempty"`
	Video   *VideoPayload   `json:"video,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookMetadata is what the enrichment collaborator returns for an ISBN.
// Either field may be empty when the upstream record lacks it.
type BookMetadata struct {
	Title     string `json:"title,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
}
