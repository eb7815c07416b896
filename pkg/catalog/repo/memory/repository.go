package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
)

// Repository implements catalog.Repository using in-memory storage.
// Uniqueness constraints and the author-deletion guard are enforced
// under the repository mutex, so concurrent writers cannot race a
// check-then-write.
type Repository struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*catalog.User
	usersByEmail map[string]uuid.UUID
	people       map[uuid.UUID]*catalog.Person
	institutions map[uuid.UUID]*catalog.Institution
	materials    map[uuid.UUID]*catalog.Material
	isbnIndex    map[string]uuid.UUID
	doiIndex     map[string]uuid.UUID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:        make(map[uuid.UUID]*catalog.User),
		usersByEmail: make(map[string]uuid.UUID),
		people:       make(map[uuid.UUID]*catalog.Person),
		institutions: make(map[uuid.UUID]*catalog.Institution),
		materials:    make(map[uuid.UUID]*catalog.Material),
		isbnIndex:    make(map[string]uuid.UUID),
		doiIndex:     make(map[string]uuid.UUID),
	}
}

var _ catalog.Repository = (*Repository)(nil)

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *catalog.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := r.usersByEmail[email]; taken {
		ve := &catalog.ValidationError{}
		return ve.Add("email has already been taken")
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByEmail[email] = user.ID
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*catalog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, catalog.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*catalog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, catalog.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return catalog.ErrUserNotFound
	}

	// Cascade: every material owned by the user goes with it.
	for materialID, material := range r.materials {
		if material.UserID == id {
			r.dropMaterialLocked(materialID)
		}
	}

	delete(r.usersByEmail, strings.ToLower(user.Email))
	delete(r.users, id)
	return nil
}

// Person operations

func (r *Repository) CreatePerson(ctx context.Context, person *catalog.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	personCopy := *person
	r.people[person.ID] = &personCopy
	return nil
}

func (r *Repository) GetPerson(ctx context.Context, id uuid.UUID) (*catalog.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	person, exists := r.people[id]
	if !exists {
		return nil, catalog.ErrAuthorNotFound
	}
	personCopy := *person
	return &personCopy, nil
}

func (r *Repository) UpdatePerson(ctx context.Context, person *catalog.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.people[person.ID]; !exists {
		return catalog.ErrAuthorNotFound
	}
	personCopy := *person
	r.people[person.ID] = &personCopy
	return nil
}

func (r *Repository) ListPeople(ctx context.Context, page catalog.Page) ([]*catalog.Person, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*catalog.Person, 0, len(r.people))
	for _, person := range r.people {
		personCopy := *person
		all = append(all, &personCopy)
	}
	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })

	total := int64(len(all))
	return pageSlice(all, page), total, nil
}

// Institution operations

func (r *Repository) CreateInstitution(ctx context.Context, institution *catalog.Institution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	institutionCopy := *institution
	r.institutions[institution.ID] = &institutionCopy
	return nil
}

func (r *Repository) GetInstitution(ctx context.Context, id uuid.UUID) (*catalog.Institution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	institution, exists := r.institutions[id]
	if !exists {
		return nil, catalog.ErrAuthorNotFound
	}
	institutionCopy := *institution
	return &institutionCopy, nil
}

func (r *Repository) UpdateInstitution(ctx context.Context, institution *catalog.Institution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.institutions[institution.ID]; !exists {
		return catalog.ErrAuthorNotFound
	}
	institutionCopy := *institution
	r.institutions[institution.ID] = &institutionCopy
	return nil
}

func (r *Repository) ListInstitutions(ctx context.Context, page catalog.Page) ([]*catalog.Institution, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*catalog.Institution, 0, len(r.institutions))
	for _, institution := range r.institutions {
		institutionCopy := *institution
		all = append(all, &institutionCopy)
	}
	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })

	total := int64(len(all))
	return pageSlice(all, page), total, nil
}

// DeleteAuthor deletes the author of the stated kind. The reference
// check and the delete happen under the same lock, so a concurrent
// material creation cannot slip between them.
func (r *Repository) DeleteAuthor(ctx context.Context, id uuid.UUID, kind catalog.AuthorKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case catalog.AuthorKindPerson:
		if _, exists := r.people[id]; !exists {
			return catalog.ErrAuthorNotFound
		}
	case catalog.AuthorKindInstitution:
		if _, exists := r.institutions[id]; !exists {
			return catalog.ErrAuthorNotFound
		}
	default:
		return catalog.ErrUnknownAuthorKind
	}

	for _, material := range r.materials {
		if material.AuthorID == id && material.AuthorKind == kind {
			return catalog.ErrHasDependentMaterials
		}
	}

	switch kind {
	case catalog.AuthorKindPerson:
		delete(r.people, id)
	case catalog.AuthorKindInstitution:
		delete(r.institutions, id)
	}
	return nil
}

// Material operations

func (r *Repository) CreateMaterial(ctx context.Context, material *catalog.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniquePayloadLocked(material); err != nil {
		return err
	}

	materialCopy := copyMaterial(material)
	r.materials[material.ID] = materialCopy
	r.indexMaterialLocked(materialCopy)
	return nil
}

func (r *Repository) GetMaterial(ctx context.Context, id uuid.UUID) (*catalog.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	material, exists := r.materials[id]
	if !exists {
		return nil, catalog.ErrMaterialNotFound
	}
	return copyMaterial(material), nil
}

func (r *Repository) UpdateMaterial(ctx context.Context, material *catalog.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, exists := r.materials[material.ID]
	if !exists {
		return catalog.ErrMaterialNotFound
	}

	r.unindexMaterialLocked(previous)
	if err := r.checkUniquePayloadLocked(material); err != nil {
		r.indexMaterialLocked(previous)
		return err
	}

	materialCopy := copyMaterial(material)
	r.materials[material.ID] = materialCopy
	r.indexMaterialLocked(materialCopy)
	return nil
}

func (r *Repository) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.materials[id]; !exists {
		return catalog.ErrMaterialNotFound
	}
	r.dropMaterialLocked(id)
	return nil
}

func (r *Repository) ListMaterials(ctx context.Context, params catalog.ListMaterialsParams) ([]*catalog.Material, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*catalog.Material
	for _, material := range r.materials {
		if params.Status != nil && material.Status != *params.Status {
			continue
		}
		all = append(all, copyMaterial(material))
	}
	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })

	total := int64(len(all))
	return pageSlice(all, params.Page), total, nil
}

func (r *Repository) SearchMaterials(ctx context.Context, params catalog.SearchMaterialsParams) ([]*catalog.Material, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(params.Term)

	var all []*catalog.Material
	for _, material := range r.materials {
		if params.Status != nil && material.Status != *params.Status {
			continue
		}
		if r.matchesLocked(material, params.Field, term) {
			all = append(all, copyMaterial(material))
		}
	}
	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })

	total := int64(len(all))
	return pageSlice(all, params.Page), total, nil
}

// matchesLocked evaluates the single search criterion. The author
// criterion matches the linked person's or institution's name; a
// material appears once regardless of how the author match fans out.
func (r *Repository) matchesLocked(material *catalog.Material, field catalog.SearchField, term string) bool {
	switch field {
	case catalog.SearchByTitle:
		return strings.Contains(strings.ToLower(material.Title), term)
	case catalog.SearchByDescription:
		return strings.Contains(strings.ToLower(material.Description), term)
	case catalog.SearchByAuthorName:
		switch material.AuthorKind {
		case catalog.AuthorKindPerson:
			if person, ok := r.people[material.AuthorID]; ok {
				return strings.Contains(strings.ToLower(person.Name), term)
			}
		case catalog.AuthorKindInstitution:
			if institution, ok := r.institutions[material.AuthorID]; ok {
				return strings.Contains(strings.ToLower(institution.Name), term)
			}
		}
		return false
	}
	return false
}

// checkUniquePayloadLocked enforces the isbn and doi uniqueness
// constraints the way a storage layer would, inside the write lock.
func (r *Repository) checkUniquePayloadLocked(material *catalog.Material) error {
	if material.Book != nil && material.Book.ISBN != "" {
		if ownerID, taken := r.isbnIndex[material.Book.ISBN]; taken && ownerID != material.ID {
			ve := &catalog.ValidationError{}
			return ve.Add("isbn has already been taken")
		}
	}
	if material.Article != nil && material.Article.DOI != "" {
		key := strings.ToLower(material.Article.DOI)
		if ownerID, taken := r.doiIndex[key]; taken && ownerID != material.ID {
			ve := &catalog.ValidationError{}
			return ve.Add("doi has already been taken")
		}
	}
	return nil
}

func (r *Repository) indexMaterialLocked(material *catalog.Material) {
	if material.Book != nil && material.Book.ISBN != "" {
		r.isbnIndex[material.Book.ISBN] = material.ID
	}
	if material.Article != nil && material.Article.DOI != "" {
		r.doiIndex[strings.ToLower(material.Article.DOI)] = material.ID
	}
}

func (r *Repository) unindexMaterialLocked(material *catalog.Material) {
	if material.Book != nil && material.Book.ISBN != "" {
		delete(r.isbnIndex, material.Book.ISBN)
	}
	if material.Article != nil && material.Article.DOI != "" {
		delete(r.doiIndex, strings.ToLower(material.Article.DOI))
	}
}

func (r *Repository) dropMaterialLocked(id uuid.UUID) {
	if material, exists := r.materials[id]; exists {
		r.unindexMaterialLocked(material)
		delete(r.materials, id)
	}
}

// copyMaterial deep-copies a material including its payload so callers
// cannot mutate stored state.
func copyMaterial(material *catalog.Material) *catalog.Material {
	materialCopy := *material
	if material.Book != nil {
		book := *material.Book
		materialCopy.Book = &book
	}
	if material.Article != nil {
		article := *material.Article
		materialCopy.Article = &article
	}
	if material.Video != nil {
		video := *material.Video
		materialCopy.Video = &video
	}
	return &materialCopy
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func pageSlice[T any](all []T, page catalog.Page) []T {
	offset := page.Offset()
	if offset >= len(all) {
		return nil
	}
	end := offset + page.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
