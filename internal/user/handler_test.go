package user_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/telmaril/userapi/internal/user"
	"github.com/telmaril/userapi/internal/user/entity"
	"github.com/telmaril/userapi/internal/user/usertest"
)

func newCRUDServer(repo *usertest.Repo) *mux.Router {
	svc := user.NewService(repo, user.BcryptHasher{Cost: 4})
	h := user.NewHandler(svc, zap.NewNop().Sugar())

	r := mux.NewRouter()
	r.HandleFunc("/users", h.List).Methods(http.MethodGet)
	r.HandleFunc("/users", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.Replace).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", h.Patch).Methods(http.MethodPatch)
	r.HandleFunc("/users/{id}", h.Delete).Methods(http.MethodDelete)
	return r
}

func do(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo := usertest.NewRepo()
	router := newCRUDServer(repo)

	rec := do(router, http.MethodPost, "/users",
		`{"name":"John Smith","email":"john@example.com","age":30,"password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Message string      `json:"message"`
		Data    entity.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "saved successfully", created.Message)
	assert.NotContains(t, rec.Body.String(), "password", "password must never appear in responses")

	rec = do(router, http.MethodGet, "/users/"+created.Data.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got entity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "John Smith", got.Name)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, "john@example.com", got.Email)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "tokenVersion")
}

func TestCreateValidation(t *testing.T) {
	router := newCRUDServer(usertest.NewRepo())

	for name, body := range map[string]string{
		"missing name":  `{"email":"a@b.c","age":30}`,
		"empty name":    `{"name":"","email":"a@b.c","age":30}`,
		"missing email": `{"name":"John","age":30}`,
		"missing age":   `{"name":"John","email":"a@b.c"}`,
		"age as string": `{"name":"John","email":"a@b.c","age":"30"}`,
		"not json":      `nope`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/users", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "name, email, and age are required")
		})
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	router := newCRUDServer(usertest.NewRepo())
	body := `{"name":"John","email":"john@example.com","age":30}`

	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/users", body).Code)

	rec := do(router, http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestGetInvalidIDFormat(t *testing.T) {
	router := newCRUDServer(usertest.NewRepo())

	for _, id := range []string{"nope", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		rec := do(router, http.MethodGet, "/users/"+id, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
		assert.Contains(t, rec.Body.String(), "Invalid ID format")
	}
}

func TestGetNotFound(t *testing.T) {
	router := newCRUDServer(usertest.NewRepo())

	rec := do(router, http.MethodGet, "/users/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestList(t *testing.T) {
	repo := usertest.NewRepo()
	repo.Seed(entity.User{Name: "A", Age: 20, Email: "a@example.com", PasswordHash: "hash-a"})
	repo.Seed(entity.User{Name: "B", Age: 40, Email: "b@example.com", PasswordHash: "hash-b"})
	router := newCRUDServer(repo)

	rec := do(router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []entity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "hash-")
}

func TestReplaceOverwritesAllFields(t *testing.T) {
	repo := usertest.NewRepo()
	id := repo.Seed(entity.User{
		Name:         "Old Name",
		Age:          30,
		Email:        "old@example.com",
		PasswordHash: "old-hash",
		TokenVersion: 5,
	})
	router := newCRUDServer(repo)

	rec := do(router, http.MethodPut, "/users/"+id.Hex(),
		`{"name":"New Name","email":"new@example.com","age":31}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, ok := repo.Get(id)
	require.True(t, ok)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, 31, stored.Age)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Empty(t, stored.PasswordHash, "omitted password is cleared by a full replace")
	assert.Equal(t, int64(5), stored.TokenVersion, "replace must not reset the revocation counter")
}

func TestReplaceValidation(t *testing.T) {
	repo := usertest.NewRepo()
	id := repo.Seed(entity.User{Name: "John", Age: 30, Email: "john@example.com"})
	router := newCRUDServer(repo)

	rec := do(router, http.MethodPut, "/users/"+id.Hex(), `{"name":"Only Name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name, email, and age are required")
}

func TestReplaceNotFound(t *testing.T) {
	router := newCRUDServer(usertest.NewRepo())

	rec := do(router, http.MethodPut, "/users/"+primitive.NewObjectID().Hex(),
		`{"name":"John","email":"john@example.com","age":30}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchMergesOnlySuppliedFields(t *testing.T) {
	repo := usertest.NewRepo()
	id := repo.Seed(entity.User{Name: "John", Age: 30, Email: "john@example.com", PasswordHash: "hash"})
	router := newCRUDServer(repo)

	rec := do(router, http.MethodPatch, "/users/"+id.Hex(), `{"age":31}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, ok := repo.Get(id)
	require.True(t, ok)
	assert.Equal(t, 31, stored.Age)
	assert.Equal(t, "John", stored.Name)
	assert.Equal(t, "john@example.com", stored.Email)
	assert.Equal(t, "hash", stored.PasswordHash)
}

func TestPatchNotFound(t *testing.T) {
	router := newCRUDServer(usertest.NewRepo())

	rec := do(router, http.MethodPatch, "/users/"+primitive.NewObjectID().Hex(), `{"age":31}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestDeleteThenGet(t *testing.T) {
	repo := usertest.NewRepo()
	id := repo.Seed(entity.User{Name: "John", Age: 30, Email: "john@example.com"})
	router := newCRUDServer(repo)

	rec := do(router, http.MethodDelete, "/users/"+id.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User deleted successfully")

	rec = do(router, http.MethodGet, "/users/"+id.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodDelete, "/users/"+id.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
