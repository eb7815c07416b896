package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
	"github.com/henriquecmelo1/library-app/pkg/catalog/repo/memory"
)

// plainHasher keeps the request tests fast; bcrypt is covered in the
// auth package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type testServer struct {
	*httptest.Server
	service catalog.Service
	tokens  *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	service, err := catalog.New(
		catalog.WithRepository(memory.New()),
		catalog.WithPasswordHasher(plainHasher{}),
	)
	require.NoError(t, err)

	tokens := auth.NewTokenService([]byte("test-secret"), auth.DefaultTokenTTL)

	r := chi.NewRouter()
	r.Mount("/", NewAuthHandler(service, tokens).Routes())
	r.Mount("/materials", NewMaterialHandler(service, tokens).Routes())
	r.Mount("/people", NewPeopleHandler(service, tokens).Routes())
	r.Mount("/institutions", NewInstitutionsHandler(service, tokens).Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testServer{Server: server, service: service, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (ts *testServer) signUpAndLogin(t *testing.T, email string) string {
	t.Helper()

	resp, _ := ts.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := ts.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (ts *testServer) createPerson(t *testing.T, token, name string) string {
	t.Helper()

	resp, raw := ts.do(t, http.MethodPost, "/people", token, map[string]string{
		"name":          name,
		"date_of_birth": "1948-09-20",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var person struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &person))
	return person.ID
}

func (ts *testServer) createBook(t *testing.T, token, authorID, title, isbn string) string {
	t.Helper()

	resp, raw := ts.do(t, http.MethodPost, "/materials", token, map[string]interface{}{
		"kind":        "book",
		"title":       title,
		"author_id":   authorID,
		"author_kind": "person",
		"isbn":        isbn,
		"page_count":  387,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var material struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &material))
	return material.ID
}

func TestSignUpEndpoint(t *testing.T) {
	ts := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/signup", "", map[string]string{
			"email":    "reader@example.com",
			"password": "password",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, string(raw), "User created successfully!")
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/signup", "", map[string]string{
			"email":    "reader@example.com",
			"password": "password",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			Errors []string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Contains(t, body.Errors, "email has already been taken")
	})

	t.Run("invalid fields", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/signup", "", map[string]string{
			"email":    "bogus",
			"password": "abc",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			Errors []string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Len(t, body.Errors, 2)
	})
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndLogin(t, "reader@example.com")

	resp, raw := ts.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "reader@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Email or password is invalid", body.Error)
}

func TestTestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")

	t.Run("with token", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/test_login", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "Authenticated user")
		assert.Contains(t, string(raw), "reader@example.com")
	})

	t.Run("without token", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/test_login", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(raw), "Unauthorized")
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/test_login", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestTokenForDeletedUserIsRejected(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")

	user, err := ts.service.VerifyCredentials(context.Background(), "reader@example.com", "password")
	require.NoError(t, err)
	require.NoError(t, ts.service.DeleteUser(context.Background(), user.ID))

	resp, _ := ts.do(t, http.MethodGet, "/test_login", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateMaterialEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")

	t.Run("requires a token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/materials", "", map[string]interface{}{
			"kind":  "book",
			"title": "The Dispossessed",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("creates a draft book", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/materials", token, map[string]interface{}{
			"kind":        "book",
			"title":       "The Dispossessed",
			"author_id":   authorID,
			"author_kind": "person",
			"isbn":        "9780061054884",
			"page_count":  387,
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var material struct {
			Status string `json:"status"`
			Book   struct {
				ISBN string `json:"isbn"`
			} `json:"book"`
		}
		require.NoError(t, json.Unmarshal(raw, &material))
		assert.Equal(t, "draft", material.Status)
		assert.Equal(t, "9780061054884", material.Book.ISBN)
	})

	t.Run("invalid fields render 422", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/materials", token, map[string]interface{}{
			"kind":        "book",
			"title":       "ab",
			"author_id":   "not-a-uuid",
			"author_kind": "person",
			"isbn":        "123",
			"page_count":  0,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			Errors []string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Contains(t, body.Errors, "author must exist")
		assert.Contains(t, body.Errors, "title is too short (minimum is 3 characters)")
	})
}

func TestMaterialListingIsPublishedOnly(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")

	draftID := ts.createBook(t, token, authorID, "Still a draft", "9780061054884")
	publishedID := ts.createBook(t, token, authorID, "Published book", "9780061054885")

	resp, _ := ts.do(t, http.MethodPatch, "/materials/"+publishedID+"/push_status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := ts.do(t, http.MethodGet, "/materials", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Materials []struct {
			ID string `json:"id"`
		} `json:"materials"`
		Pagination struct {
			Page  int   `json:"page"`
			Items int   `json:"items"`
			Count int64 `json:"count"`
			Pages int   `json:"pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Materials, 1)
	assert.Equal(t, publishedID, body.Materials[0].ID)
	assert.NotEqual(t, draftID, body.Materials[0].ID)
	assert.Equal(t, 1, body.Pagination.Page)
	assert.Equal(t, 20, body.Pagination.Items)
	assert.EqualValues(t, 1, body.Pagination.Count)
	assert.Equal(t, 1, body.Pagination.Pages)
}

func TestGetMaterialEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")
	materialID := ts.createBook(t, token, authorID, "The Dispossessed", "9780061054884")

	t.Run("found", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/materials/"+materialID, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "The Dispossessed")
	})

	t.Run("unknown id", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/materials/1f2e3d4c-0000-0000-0000-000000000000", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(raw), "Material not found")
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/materials/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUpdateMaterialEndpoint(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.signUpAndLogin(t, "owner@example.com")
	stranger := ts.signUpAndLogin(t, "stranger@example.com")
	authorID := ts.createPerson(t, owner, "Ursula K. Le Guin")
	materialID := ts.createBook(t, owner, authorID, "The Dispossessed", "9780061054884")

	t.Run("owner updates", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPatch, "/materials/"+materialID, owner, map[string]interface{}{
			"title": "The Dispossessed: An Ambiguous Utopia",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "Ambiguous Utopia")
	})

	t.Run("stranger gets 401", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPatch, "/materials/"+materialID, stranger, map[string]interface{}{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(raw), "Unauthorized")
	})
}

func TestLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")
	materialID := ts.createBook(t, token, authorID, "The Dispossessed", "9780061054884")

	t.Run("pull from draft is a 400", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPatch, "/materials/"+materialID+"/pull_status", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(raw), "cannot revert from draft")
	})

	t.Run("push walks the chain", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPatch, "/materials/"+materialID+"/push_status", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), `"status":"published"`)

		resp, raw = ts.do(t, http.MethodPatch, "/materials/"+materialID+"/push_status", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), `"status":"archived"`)

		resp, raw = ts.do(t, http.MethodPatch, "/materials/"+materialID+"/push_status", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(raw), "cannot advance from archived")
	})

	t.Run("requires a token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPatch, "/materials/"+materialID+"/push_status", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestDeleteMaterialEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")
	materialID := ts.createBook(t, token, authorID, "The Dispossessed", "9780061054884")

	resp, _ := ts.do(t, http.MethodDelete, "/materials/"+materialID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/materials/"+materialID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")
	materialID := ts.createBook(t, token, authorID, "The Dispossessed", "9780061054884")

	resp, _ := ts.do(t, http.MethodPatch, "/materials/"+materialID+"/push_status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("no criterion", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/materials/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(raw), "search parameter must be one of these: title, author, description")
	})

	t.Run("by title", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/materials/search?title=dispossessed", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), materialID)
	})

	t.Run("by author", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/materials/search?author=le+guin", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), materialID)
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodGet, "/materials/search?title=nothing-here", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), `"materials":[]`)
	})
}

func TestPeopleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")

	t.Run("create requires a token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/people", "", map[string]string{"name": "Ursula K. Le Guin"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create validates", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/people", token, map[string]string{
			"name":          "Al",
			"date_of_birth": "1948-09-20",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, string(raw), "name is too short")
	})

	t.Run("bad date renders 422", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodPost, "/people", token, map[string]string{
			"name":          "Ursula K. Le Guin",
			"date_of_birth": "20/09/1948",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, string(raw), "date of birth must be a valid date")
	})

	t.Run("create list get update", func(t *testing.T) {
		personID := ts.createPerson(t, token, "Ursula K. Le Guin")

		resp, raw := ts.do(t, http.MethodGet, "/people", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), personID)
		assert.Contains(t, string(raw), `"authors":`)

		resp, raw = ts.do(t, http.MethodGet, "/people/"+personID, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "Ursula K. Le Guin")

		resp, raw = ts.do(t, http.MethodPatch, "/people/"+personID, token, map[string]string{
			"name": "U. K. Le Guin",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "U. K. Le Guin")
	})
}

func TestInstitutionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")

	resp, raw := ts.do(t, http.MethodPost, "/institutions", token, map[string]string{
		"name": "MIT Press",
		"city": "Cambridge",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var institution struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &institution))

	resp, raw = ts.do(t, http.MethodGet, "/institutions/"+institution.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "Cambridge")

	resp, raw = ts.do(t, http.MethodPost, "/institutions", token, map[string]string{
		"name": "X",
		"city": "",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(raw), "city can't be blank")
}

func TestDeleteAuthorEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")
	materialID := ts.createBook(t, token, authorID, "The Dispossessed", "9780061054884")

	t.Run("blocked while referenced", func(t *testing.T) {
		resp, raw := ts.do(t, http.MethodDelete, "/people/"+authorID, token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, string(raw), "cannot delete record because dependent materials exist")
	})

	t.Run("allowed once unreferenced", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodDelete, "/materials/"+materialID, token, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodDelete, "/people/"+authorID, token, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodGet, "/people/"+authorID, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPaginationParams(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndLogin(t, "reader@example.com")
	authorID := ts.createPerson(t, token, "Ursula K. Le Guin")

	for i := 0; i < 3; i++ {
		materialID := ts.createBook(t, token, authorID, fmt.Sprintf("Book number %d", i), fmt.Sprintf("978006105488%d", i))
		resp, _ := ts.do(t, http.MethodPatch, "/materials/"+materialID+"/push_status", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, raw := ts.do(t, http.MethodGet, "/materials?page=2&items=2", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Materials  []json.RawMessage `json:"materials"`
		Pagination struct {
			Page  int   `json:"page"`
			Items int   `json:"items"`
			Count int64 `json:"count"`
			Pages int   `json:"pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body.Materials, 1)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 2, body.Pagination.Items)
	assert.EqualValues(t, 3, body.Pagination.Count)
	assert.Equal(t, 2, body.Pagination.Pages)
}
