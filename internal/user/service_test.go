package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/authgate/internal/model"
)

// mockUserRepo はUserRepositoryのモック実装。
type mockUserRepo struct {
	findFn   func(ctx context.Context, email string) (*model.User, error)
	existsFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findFn(ctx, email)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.existsFn(ctx, email)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}

func TestFindByEmail_NormalizesBeforeLookup(t *testing.T) {
	var queried string
	repo := &mockUserRepo{
		findFn: func(ctx context.Context, email string) (*model.User, error) {
			queried = email
			return &model.User{ID: "user-1", Email: email}, nil
		},
	}

	svc := NewService(repo)

	user, err := svc.FindByEmail(context.Background(), " Alice@Example.COM ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if queried != "alice@example.com" {
		t.Errorf("queried email = %q, want %q", queried, "alice@example.com")
	}
	if user == nil || user.ID != "user-1" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestFindByEmail_NotFound_ReturnsNil(t *testing.T) {
	repo := &mockUserRepo{
		findFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(repo)

	user, err := svc.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user != nil {
		t.Error("expected nil user")
	}
}

func TestEmailExists(t *testing.T) {
	repo := &mockUserRepo{
		existsFn: func(ctx context.Context, email string) (bool, error) {
			return email == "alice@example.com", nil
		},
	}

	svc := NewService(repo)

	exists, err := svc.EmailExists(context.Background(), "ALICE@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !exists {
		t.Error("expected normalized email to be found")
	}

	exists, err = svc.EmailExists(context.Background(), "bob@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if exists {
		t.Error("expected unknown email to not exist")
	}
}

func TestEmailExists_StoreFailure_Propagates(t *testing.T) {
	repo := &mockUserRepo{
		existsFn: func(ctx context.Context, email string) (bool, error) {
			return false, errors.New("connection refused")
		},
	}

	svc := NewService(repo)

	if _, err := svc.EmailExists(context.Background(), "alice@example.com"); err == nil {
		t.Fatal("expected store failure to propagate")
	}
}
