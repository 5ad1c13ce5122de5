package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/authgate/internal/model"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	findFn   func(ctx context.Context, email string) (*model.User, error)
	existsFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockUserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findFn(ctx, email)
}

func (m *mockUserService) EmailExists(ctx context.Context, email string) (bool, error) {
	return m.existsFn(ctx, email)
}

// newUserRouter はURLパラメータを解決するためにchiルーターへマウントする。
func newUserRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/users/exists/{email}", h.ExistsByEmail)
	r.Get("/api/users/{email}", h.GetUserByEmail)
	return r
}

func TestGetUserByEmail_Found(t *testing.T) {
	service := &mockUserService{
		findFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: "alice@example.com", PasswordHash: "$2a$10$hash"}, nil
		},
	}
	router := newUserRouter(NewUserHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/api/users/alice@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["email"] != "alice@example.com" {
		t.Errorf("email = %v, want %q", resp["email"], "alice@example.com")
	}
	if _, ok := resp["password_hash"]; ok {
		t.Error("response must not contain the password hash")
	}
}

func TestGetUserByEmail_NotFound_Returns404(t *testing.T) {
	service := &mockUserService{
		findFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}
	router := newUserRouter(NewUserHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/api/users/nobody@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetUserByEmail_StoreFailure_Returns500(t *testing.T) {
	service := &mockUserService{
		findFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := newUserRouter(NewUserHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/api/users/alice@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestExistsByEmail(t *testing.T) {
	service := &mockUserService{
		existsFn: func(ctx context.Context, email string) (bool, error) {
			return email == "alice@example.com", nil
		},
	}
	router := newUserRouter(NewUserHandler(service))

	cases := []struct {
		path string
		want string
	}{
		{"/api/users/exists/alice@example.com", "true"},
		{"/api/users/exists/bob@example.com", "false"},
	}

	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", c.path, w.Code, http.StatusOK)
		}

		var exists bool
		if err := json.Unmarshal(w.Body.Bytes(), &exists); err != nil {
			t.Fatalf("%s: failed to parse response: %v", c.path, err)
		}
		if want := c.want == "true"; exists != want {
			t.Errorf("%s: exists = %t, want %t", c.path, exists, want)
		}
	}
}
