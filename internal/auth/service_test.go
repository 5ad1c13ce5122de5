package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/password"
)

// --- モック定義 ---

// memoryUserRepo はUserRepositoryのインメモリ実装。
// UNIQUE制約の振る舞いをエミュレートする。
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	findErr   error
	existsErr error
	createErr error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*model.User)}
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *model.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		// UNIQUE制約違反相当
		return model.NewEmailAlreadyExistsError()
	}
	copied := *user
	r.users[user.Email] = &copied
	return nil
}

// stubTokenIssuer はTokenIssuerのスタブ。
type stubTokenIssuer struct {
	issued string
}

func (s *stubTokenIssuer) Issue(subjectEmail string) (string, error) {
	s.issued = subjectEmail
	return "token-for-" + subjectEmail, nil
}

func newTestService(repo *memoryUserRepo) *Service {
	return NewService(repo, password.NewHasher(bcrypt.MinCost), &stubTokenIssuer{})
}

// --- Register ---

func TestRegister_ThenAuthenticate_Succeeds(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	registered, err := svc.Register(context.Background(), "alice@example.com", "pw123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if registered.ID == "" {
		t.Error("expected generated user ID")
	}
	if registered.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", registered.Email, "alice@example.com")
	}
	if registered.PasswordHash == "pw123" || registered.PasswordHash == "" {
		t.Error("expected password to be stored as a hash")
	}

	authenticated, err := svc.Authenticate(context.Background(), "alice@example.com", "pw123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if authenticated == nil {
		t.Fatal("expected authentication to succeed")
	}
	if authenticated.Email != registered.Email {
		t.Errorf("email = %q, want %q", authenticated.Email, registered.Email)
	}
}

func TestRegister_DuplicateEmail_Fails(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "alice@example.com", "pw123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err := svc.Register(context.Background(), "alice@example.com", "other-pw")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailAlreadyExists {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS, got %v", err)
	}

	// ストアにはそのメールアドレスのレコードが1件だけ残る
	if len(repo.users) != 1 {
		t.Errorf("user count = %d, want 1", len(repo.users))
	}
}

// 大文字小文字や前後空白の違いは正規化され、重複アカウントにならない
func TestRegister_NormalizesEmail(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	registered, err := svc.Register(context.Background(), "  Alice@Example.COM ", "pw123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if registered.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", registered.Email, "alice@example.com")
	}

	_, err = svc.Register(context.Background(), "ALICE@example.com", "pw123")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailAlreadyExists {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS for case variant, got %v", err)
	}
}

// 存在チェックを通過しても挿入がUNIQUE制約で拒否される競合ケース。
// 並行登録に敗れた側はEMAIL_ALREADY_EXISTSを観測する。
func TestRegister_ConcurrentDuplicate_LoserSeesConflict(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)
	repo.createErr = model.NewEmailAlreadyExistsError()

	_, err := svc.Register(context.Background(), "alice@example.com", "pw123")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailAlreadyExists {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS from constraint backstop, got %v", err)
	}
}

func TestRegister_StoreFailure_Propagates(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)
	repo.existsErr = errors.New("connection refused")

	_, err := svc.Register(context.Background(), "alice@example.com", "pw123")
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store failure must not be masked as an auth error, got %v", apiErr)
	}
}

// --- Authenticate ---

func TestAuthenticate_UnknownEmail_ReturnsNil(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	user, err := svc.Authenticate(context.Background(), "nobody@example.com", "pw123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user != nil {
		t.Error("expected nil user for unknown email")
	}
}

func TestAuthenticate_WrongPassword_ReturnsNil(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "alice@example.com", "pw123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "alice@example.com", "wrong-password")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user != nil {
		t.Error("expected nil user for wrong password")
	}
}

// メールアドレス不明とパスワード誤りは呼び出し元から区別できない
func TestAuthenticate_UniformFailure(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "alice@example.com", "pw123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	unknownUser, unknownErr := svc.Authenticate(context.Background(), "nobody@example.com", "pw123")
	wrongUser, wrongErr := svc.Authenticate(context.Background(), "alice@example.com", "wrong")

	if unknownUser != nil || wrongUser != nil {
		t.Error("expected nil user in both failure cases")
	}
	if unknownErr != nil || wrongErr != nil {
		t.Errorf("expected no error in both failure cases, got %v / %v", unknownErr, wrongErr)
	}
}

func TestAuthenticate_StoreFailure_Propagates(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)
	repo.findErr = errors.New("connection refused")

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "pw123")
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
}

// ハッシュ破損はストレージ整合性の問題としてエラーになり、401に畳まれない
func TestAuthenticate_MalformedStoredHash_ReturnsError(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestService(repo)

	repo.users["alice@example.com"] = &model.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "corrupted",
	}

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "pw123")
	if err == nil {
		t.Fatal("expected error for malformed stored hash")
	}
}

// --- IssueToken ---

func TestIssueToken_UsesEmailAsSubject(t *testing.T) {
	repo := newMemoryUserRepo()
	issuer := &stubTokenIssuer{}
	svc := NewService(repo, password.NewHasher(bcrypt.MinCost), issuer)

	tok, err := svc.IssueToken(&model.User{ID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok != "token-for-alice@example.com" {
		t.Errorf("token = %q, want %q", tok, "token-for-alice@example.com")
	}
	if issuer.issued != "alice@example.com" {
		t.Errorf("subject = %q, want %q", issuer.issued, "alice@example.com")
	}
}
