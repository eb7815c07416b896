package catalog

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation rules for every entity. All validators aggregate messages
// into a single ValidationError so the request boundary can render the
// full list at once.

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	isbnPattern  = regexp.MustCompile(`^[0-9]{13}$`)
	doiPattern   = regexp.MustCompile(`(?i)^10\.[0-9]{4,9}/[-._;()/:A-Z0-9]+$`)
)

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 6

// ValidateEmail checks the signup email format.
func ValidateEmail(email string) *ValidationError {
	ve := &ValidationError{}
	if email == "" {
		ve.Add("email can't be blank")
	} else if !emailPattern.MatchString(email) {
		ve.Add("email format is invalid")
	}
	return ve
}

// ValidatePassword checks the plaintext password before hashing.
func ValidatePassword(password string) *ValidationError {
	ve := &ValidationError{}
	if password == "" {
		ve.Add("password can't be blank")
	} else if utf8.RuneCountInString(password) < MinPasswordLength {
		ve.Add("password is too short (minimum is %d characters)", MinPasswordLength)
	}
	return ve
}

func validateLength(ve *ValidationError, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		ve.Add("%s can't be blank", field)
	case n < min:
		ve.Add("%s is too short (minimum is %d characters)", field, min)
	case n > max:
		ve.Add("%s is too long (maximum is %d characters)", field, max)
	}
}

// Validate checks the person variant's field rules.
func (p *Person) Validate() error {
	ve := &ValidationError{}
	validateLength(ve, "name", p.Name, 3, 80)
	if p.DateOfBirth.IsZero() {
		ve.Add("date of birth can't be blank")
	} else if p.DateOfBirth.After(time.Now()) {
		ve.Add("date of birth can not be in the future")
	}
	return ve.OrNil()
}

// Validate checks the institution variant's field rules.
func (i *Institution) Validate() error {
	ve := &ValidationError{}
	validateLength(ve, "name", i.Name, 3, 120)
	validateLength(ve, "city", i.City, 2, 80)
	return ve.OrNil()
}

// Validate runs the material's full validation set: common fields plus
// the payload selected by Kind. Exactly one payload must be populated
// and it must match Kind.
func (m *Material) Validate() error {
	ve := &ValidationError{}

	if !m.Kind.IsValid() {
		ve.Add("kind must be one of: book, article, video")
	}
	validateLength(ve, "title", m.Title, 3, 100)
	if utf8.RuneCountInString(m.Description) > 1000 {
		ve.Add("description is too long (maximum is 1000 characters)")
	}
	if !m.Status.IsValid() {
		ve.Add("status must be one of: draft, published, archived")
	}
	if m.UserID == uuid.Nil {
		ve.Add("user must exist")
	}
	if m.AuthorID == uuid.Nil {
		ve.Add("author must exist")
	}
	if !m.AuthorKind.IsValid() {
		ve.Add("author kind must be one of: person, institution")
	}

	ve.Merge(m.validatePayload())
	return ve.OrNil()
}

func (m *Material) validatePayload() *ValidationError {
	ve := &ValidationError{}

	populated := 0
	if m.Book != nil {
		populated++
	}
	if m.Article != nil {
		populated++
	}
	if m.Video != nil {
		populated++
	}
	if populated > 1 {
		return ve.Add("material must carry exactly one payload")
	}

	switch m.Kind {
	case KindBook:
		if m.Book == nil {
			return ve.Add("book payload is required")
		}
		if m.Book.ISBN == "" {
			ve.Add("isbn can't be blank")
		} else if !isbnPattern.MatchString(m.Book.ISBN) {
			ve.Add("isbn must be a numeric string of exactly 13 digits")
		}
		if m.Book.PageCount <= 0 {
			ve.Add("page count must be greater than 0")
		}
	case KindArticle:
		if m.Article == nil {
			return ve.Add("article payload is required")
		}
		if m.Article.DOI == "" {
			ve.Add("doi can't be blank")
		} else if !doiPattern.MatchString(m.Article.DOI) {
			ve.Add("doi must follow the standard DOI format (e.g. 10.1000/xyz123)")
		}
	case KindVideo:
		if m.Video == nil {
			return ve.Add("video payload is required")
		}
		if m.Video.DurationInMinutes <= 0 {
			ve.Add("duration in minutes must be greater than 0")
		}
	}

	return ve
}
