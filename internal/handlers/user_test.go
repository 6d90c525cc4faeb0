package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	dom "github.com/jaburtog/CRUD-20251202/internal/domain"
	"github.com/jaburtog/CRUD-20251202/internal/dto"
	"github.com/jaburtog/CRUD-20251202/internal/repo"
	"github.com/jaburtog/CRUD-20251202/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]dom.User
}

func (r *memUserRepo) InTx(ctx context.Context, fn func(repo.UserRepo) error) error {
	return fn(r)
}

func (r *memUserRepo) Create(ctx context.Context, name, email string, phone *string, active *bool) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := true
	if active != nil {
		a = *active
	}
	r.nextID++
	u := dom.User{ID: r.nextID, Name: name, Email: email, Phone: phone, Active: a}
	r.users[u.ID] = u
	return u, nil
}

func (r *memUserRepo) Update(ctx context.Context, u dom.User) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) List(ctx context.Context) ([]dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []dom.User
	for _, u := range r.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *memUserRepo) ListActive(ctx context.Context) ([]dom.User, error) {
	list, _ := r.List(ctx)
	var out []dom.User
	for _, u := range list {
		if u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewUserHandler(service.NewUserService(&memUserRepo{users: map[int64]dom.User{}}))
	api := r.Group("/api")
	api.POST("/users", h.Create)
	api.GET("/users", h.List)
	api.GET("/users/email/:email", h.GetByEmail)
	api.GET("/users/:id", h.GetByID)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeUser(t *testing.T, w *httptest.ResponseRecorder) dto.UserResponse {
	t.Helper()
	var u dto.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode user: %v (%s)", err, w.Body.String())
	}
	return u
}

func TestUserLifecycle(t *testing.T) {
	r := newTestRouter(t)

	// Create.
	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"name": "Ana", "email": "ana@x.com", "phone": "555", "active": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: code = %d, body = %s", w.Code, w.Body.String())
	}
	created := decodeUser(t, w)
	if created.ID == 0 {
		t.Fatal("expected generated id")
	}

	// Fetch it back.
	w = doJSON(t, r, http.MethodGet, "/api/users/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: code = %d", w.Code)
	}
	got := decodeUser(t, w)
	if got.Name != "Ana" || got.Email != "ana@x.com" || !got.Active {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.Phone == nil || *got.Phone != "555" {
		t.Fatalf("unexpected phone: %v", got.Phone)
	}

	// Duplicate email is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"name": "Bob", "email": "ana@x.com",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate create: code = %d", w.Code)
	}
	var e dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Message == "" {
		t.Fatalf("expected error message, got %s", w.Body.String())
	}

	// Change the email.
	w = doJSON(t, r, http.MethodPut, "/api/users/1", gin.H{
		"name": "Ana", "email": "ana2@x.com", "phone": "555", "active": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: code = %d, body = %s", w.Code, w.Body.String())
	}
	if u := decodeUser(t, w); u.Email != "ana2@x.com" {
		t.Fatalf("email = %q, want ana2@x.com", u.Email)
	}

	// Delete, then the id is gone.
	w = doJSON(t, r, http.MethodDelete, "/api/users/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("delete body = %q, want empty", w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/users/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: code = %d", w.Code)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Ana"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}

func TestList_ActiveFlag(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "A", "email": "a@x.com", "active": true})
	doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "B", "email": "b@x.com", "active": false})

	w := doJSON(t, r, http.MethodGet, "/api/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: code = %d", w.Code)
	}
	var all []dto.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	w = doJSON(t, r, http.MethodGet, "/api/users?active=true", nil)
	var active []dto.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode active list: %v", err)
	}
	if len(active) != 1 || active[0].Email != "a@x.com" {
		t.Fatalf("unexpected active list: %+v", active)
	}

	// Unparseable flag falls back to all users.
	w = doJSON(t, r, http.MethodGet, "/api/users?active=maybe", nil)
	var fallback []dto.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &fallback); err != nil {
		t.Fatalf("decode fallback list: %v", err)
	}
	if len(fallback) != 2 {
		t.Fatalf("len(fallback) = %d, want 2", len(fallback))
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestGetByEmail(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Ana", "email": "ana@x.com"})

	w := doJSON(t, r, http.MethodGet, "/api/users/email/ana@x.com", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if u := decodeUser(t, w); u.Email != "ana@x.com" {
		t.Fatalf("email = %q", u.Email)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/email/nobody@x.com", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("absent email: code = %d, want 404", w.Code)
	}
}

func TestUpdate_Missing(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/users/42", gin.H{
		"name": "Ana", "email": "ana@x.com", "active": true,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", w.Code)
	}
}

func TestUpdate_EmailConflict(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Ana", "email": "ana@x.com"})
	doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Bob", "email": "bob@x.com"})

	w := doJSON(t, r, http.MethodPut, "/api/users/1", gin.H{
		"name": "Ana", "email": "bob@x.com", "active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}

func TestDelete_Missing(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/users/42", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", w.Code)
	}
}

func TestInvalidID(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/users/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}
