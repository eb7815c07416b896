package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements catalog.Repository using PostgreSQL. The
// uniqueness constraints on email, isbn and doi live in the schema
// (migrations/0001_schema.sql); violations are translated back into
// validation errors here. Materials use a single table with nullable
// payload columns selected by the kind column.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var _ catalog.Repository = (*Repository)(nil)

// uniqueViolation maps a 23505 to the field-level message the request
// boundary renders as a 422.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	ve := &catalog.ValidationError{}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ve.Add("email has already been taken")
	case strings.Contains(pgErr.ConstraintName, "isbn"):
		return ve.Add("isbn has already been taken")
	case strings.Contains(pgErr.ConstraintName, "doi"):
		return ve.Add("doi has already been taken")
	}
	return ve.Add("record is not unique")
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *catalog.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		user.ID, strings.ToLower(user.Email), user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if verr := uniqueViolation(err); verr != nil {
			return verr
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*catalog.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE id = $1`

	var user catalog.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*catalog.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1`

	var user catalog.User
	err := r.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user row. The materials foreign key declares
// ON DELETE CASCADE, so the owned materials disappear in the same
// statement.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrUserNotFound
	}
	return nil
}

// Person operations

func (r *Repository) CreatePerson(ctx context.Context, person *catalog.Person) error {
	query := `
		INSERT INTO people (id, name, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		person.ID, person.Name, person.DateOfBirth, person.CreatedAt, person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (r *Repository) GetPerson(ctx context.Context, id uuid.UUID) (*catalog.Person, error) {
	query := `
		SELECT id, name, date_of_birth, created_at, updated_at
		FROM people WHERE id = $1`

	var person catalog.Person
	err := r.db.QueryRow(ctx, query, id).Scan(
		&person.ID, &person.Name, &person.DateOfBirth, &person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrAuthorNotFound
		}
		return nil, err
	}
	return &person, nil
}

func (r *Repository) UpdatePerson(ctx context.Context, person *catalog.Person) error {
	query := `
		UPDATE people SET name = $2, date_of_birth = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		person.ID, person.Name, person.DateOfBirth, person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrAuthorNotFound
	}
	return nil
}

func (r *Repository) ListPeople(ctx context.Context, page catalog.Page) ([]*catalog.Person, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM people`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, date_of_birth, created_at, updated_at
		FROM people ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var people []*catalog.Person
	for rows.Next() {
		var person catalog.Person
		if err := rows.Scan(&person.ID, &person.Name, &person.DateOfBirth, &person.CreatedAt, &person.UpdatedAt); err != nil {
			return nil, 0, err
		}
		people = append(people, &person)
	}
	return people, total, rows.Err()
}

// Institution operations

func (r *Repository) CreateInstitution(ctx context.Context, institution *catalog.Institution) error {
	query := `
		INSERT INTO institutions (id, name, city, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		institution.ID, institution.Name, institution.City, institution.CreatedAt, institution.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

func (r *Repository) GetInstitution(ctx context.Context, id uuid.UUID) (*catalog.Institution, error) {
	query := `
		SELECT id, name, city, created_at, updated_at
		FROM institutions WHERE id = $1`

	var institution catalog.Institution
	err := r.db.QueryRow(ctx, query, id).Scan(
		&institution.ID, &institution.Name, &institution.City, &institution.CreatedAt, &institution.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrAuthorNotFound
		}
		return nil, err
	}
	return &institution, nil
}

func (r *Repository) UpdateInstitution(ctx context.Context, institution *catalog.Institution) error {
	query := `
		UPDATE institutions SET name = $2, city = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		institution.ID, institution.Name, institution.City, institution.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrAuthorNotFound
	}
	return nil
}

func (r *Repository) ListInstitutions(ctx context.Context, page catalog.Page) ([]*catalog.Institution, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM institutions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, city, created_at, updated_at
		FROM institutions ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var institutions []*catalog.Institution
	for rows.Next() {
		var institution catalog.Institution
		if err := rows.Scan(&institution.ID, &institution.Name, &institution.City, &institution.CreatedAt, &institution.UpdatedAt); err != nil {
			return nil, 0, err
		}
		institutions = append(institutions, &institution)
	}
	return institutions, total, rows.Err()
}

// DeleteAuthor performs the delete and the dependent-material guard in
// one conditional statement, so a material created concurrently cannot
// slip between a check and the delete. The follow-up existence query
// only picks which error to report.
func (r *Repository) DeleteAuthor(ctx context.Context, id uuid.UUID, kind catalog.AuthorKind) error {
	var table string
	switch kind {
	case catalog.AuthorKindPerson:
		table = "people"
	case catalog.AuthorKindInstitution:
		table = "institutions"
	default:
		return catalog.ErrUnknownAuthorKind
	}

	query := fmt.Sprintf(`
		DELETE FROM %s a WHERE a.id = $1 AND NOT EXISTS (
			SELECT 1 FROM materials m WHERE m.author_id = $1 AND m.author_kind = $2
		)`, table)

	tag, err := r.db.Exec(ctx, query, id, string(kind))
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := r.db.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return catalog.ErrHasDependentMaterials
	}
	return catalog.ErrAuthorNotFound
}

// Material operations

const materialColumns = `
	m.id, m.kind, m.title, m.description, m.status,
	m.user_id, m.author_id, m.author_kind,
	m.isbn, m.page_count, m.doi, m.duration_in_minutes,
	m.created_at, m.updated_at`

func (r *Repository) CreateMaterial(ctx context.Context, material *catalog.Material) error {
	query := `
		INSERT INTO materials (
			id, kind, title, description, status,
			user_id, author_id, author_kind,
			isbn, page_count, doi, duration_in_minutes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	isbn, pageCount, doi, duration := payloadColumns(material)
	_, err := r.db.Exec(ctx, query,
		material.ID, string(material.Kind), material.Title, material.Description, string(material.Status),
		material.UserID, material.AuthorID, string(material.AuthorKind),
		isbn, pageCount, doi, duration,
		material.CreatedAt, material.UpdatedAt)
	if err != nil {
		if verr := uniqueViolation(err); verr != nil {
			return verr
		}
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

func (r *Repository) GetMaterial(ctx context.Context, id uuid.UUID) (*catalog.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials m WHERE m.id = $1`

	material, err := scanMaterial(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrMaterialNotFound
		}
		return nil, err
	}
	return material, nil
}

func (r *Repository) UpdateMaterial(ctx context.Context, material *catalog.Material) error {
	query := `
		UPDATE materials SET
			title = $2, description = $3, status = $4,
			author_id = $5, author_kind = $6,
			isbn = $7, page_count = $8, doi = $9, duration_in_minutes = $10,
			updated_at = $11
		WHERE id = $1`

	isbn, pageCount, doi, duration := payloadColumns(material)
	tag, err := r.db.Exec(ctx, query,
		material.ID, material.Title, material.Description, string(material.Status),
		material.AuthorID, string(material.AuthorKind),
		isbn, pageCount, doi, duration,
		material.UpdatedAt)
	if err != nil {
		if verr := uniqueViolation(err); verr != nil {
			return verr
		}
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrMaterialNotFound
	}
	return nil
}

func (r *Repository) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrMaterialNotFound
	}
	return nil
}

func (r *Repository) ListMaterials(ctx context.Context, params catalog.ListMaterialsParams) ([]*catalog.Material, int64, error) {
	where := ""
	var args []interface{}
	if params.Status != nil {
		where = ` WHERE m.status = $1`
		args = append(args, string(*params.Status))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM materials m`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM materials m%s ORDER BY m.id ASC LIMIT $%d OFFSET $%d`,
		materialColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Page.Limit(), params.Page.Offset())

	return r.queryMaterials(ctx, query, args, total)
}

// SearchMaterials composes the single-criterion predicate. The author
// criterion uses two optional joins plus an OR across the disjoint
// author tables, with DISTINCT keeping each material to one row.
func (r *Repository) SearchMaterials(ctx context.Context, params catalog.SearchMaterialsParams) ([]*catalog.Material, int64, error) {
	join := ""
	var predicate string
	switch params.Field {
	case catalog.SearchByTitle:
		predicate = `m.title ILIKE '%' || $1 || '%'`
	case catalog.SearchByDescription:
		predicate = `m.description ILIKE '%' || $1 || '%'`
	case catalog.SearchByAuthorName:
		join = `
			LEFT JOIN people p ON m.author_id = p.id AND m.author_kind = 'person'
			LEFT JOIN institutions i ON m.author_id = i.id AND m.author_kind = 'institution'`
		predicate = `(p.name ILIKE '%' || $1 || '%' OR i.name ILIKE '%' || $1 || '%')`
	default:
		return nil, 0, catalog.ErrMissingSearchParameter
	}

	args := []interface{}{params.Term}
	if params.Status != nil {
		predicate += fmt.Sprintf(` AND m.status = $%d`, len(args)+1)
		args = append(args, string(*params.Status))
	}

	countQuery := fmt.Sprintf(`SELECT count(DISTINCT m.id) FROM materials m%s WHERE %s`, join, predicate)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT DISTINCT %s FROM materials m%s WHERE %s ORDER BY m.id ASC LIMIT $%d OFFSET $%d`,
		materialColumns, join, predicate, len(args)+1, len(args)+2)
	args = append(args, params.Page.Limit(), params.Page.Offset())

	return r.queryMaterials(ctx, query, args, total)
}

func (r *Repository) queryMaterials(ctx context.Context, query string, args []interface{}, total int64) ([]*catalog.Material, int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var materials []*catalog.Material
	for rows.Next() {
		material, err := scanMaterial(rows)
		if err != nil {
			return nil, 0, err
		}
		materials = append(materials, material)
	}
	return materials, total, rows.Err()
}

// payloadColumns flattens the tagged payload into the nullable columns
// of the single materials table.
func payloadColumns(material *catalog.Material) (isbn *string, pageCount *int, doi *string, duration *int) {
	if material.Book != nil {
		isbn = &material.Book.ISBN
		pageCount = &material.Book.PageCount
	}
	if material.Article != nil {
		doi = &material.Article.DOI
	}
	if material.Video != nil {
		duration = &material.Video.DurationInMinutes
	}
	return
}

func scanMaterial(row pgx.Row) (*catalog.Material, error) {
	var material catalog.Material
	var isbn, doi *string
	var pageCount, duration *int

	err := row.Scan(
		&material.ID, &material.Kind, &material.Title, &material.Description, &material.Status,
		&material.UserID, &material.AuthorID, &material.AuthorKind,
		&isbn, &pageCount, &doi, &duration,
		&material.CreatedAt, &material.UpdatedAt)
	if err != nil {
		return nil, err
	}

	switch material.Kind {
	case catalog.KindBook:
		book := catalog.BookPayload{}
		if isbn != nil {
			book.ISBN = *isbn
		}
		if pageCount != nil {
			book.PageCount = *pageCount
		}
		material.Book = &book
	case catalog.KindArticle:
		article := catalog.ArticlePayload{}
		if doi != nil {
			article.DOI = *doi
		}
		material.Article = &article
	case catalog.KindVideo:
		video := catalog.VideoPayload{}
		if duration != nil {
			video.DurationInMinutes = *duration
		}
		material.Video = &video
	}
	return &material, nil
}
