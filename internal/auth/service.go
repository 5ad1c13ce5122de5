// Package auth は登録・ログイン認証・トークン発行のビジネスロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
// internal/password.Hasherの部分集合として定義する。
type PasswordHasher interface {
	Hash(rawPassword string) (string, error)
	VerifyStored(rawPassword, hash string) (bool, error)
}

// TokenIssuer はトークン発行のインターフェース。
// internal/token.Serviceの部分集合として定義する。
type TokenIssuer interface {
	Issue(subjectEmail string) (string, error)
}

// Service は認証に関するビジネスロジックを提供する。
// リクエストを跨ぐ可変状態を持たないため、並行リクエストから安全に使用できる。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスを正規化し、存在チェック後にパスワードをハッシュ化して保存する。
// 存在チェックと挿入はアトミックではないため、並行登録との競合は
// ストレージ層のUNIQUE制約が防ぎ、その場合もEMAIL_ALREADY_EXISTSとして返す。
func (s *Service) Register(ctx context.Context, email, rawPassword string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, model.NewEmailAlreadyExistsError()
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 並行登録に敗れた場合はUNIQUE制約違反がここに現れる
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Authenticate はメールアドレスとパスワードでユーザーを認証する。
// ユーザー不在とパスワード不一致はどちらも(nil, nil)を返し、
// 呼び出し元からは区別できない。どちらの失敗かを漏らさないための
// 意図的な統一失敗ポリシーである。
// ストア障害のみエラーとして返す。認証失敗にマスクしてはならない。
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	ok, err := s.hasher.VerifyStored(rawPassword, user.PasswordHash)
	if err != nil {
		// ハッシュ形式の破損はストレージ整合性の問題であり、認証失敗ではない
		return nil, fmt.Errorf("stored hash verification failed for user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, nil
	}

	return user, nil
}

// IssueToken は認証済みユーザーのトークンを発行する。
// サブジェクトにはユーザーのメールアドレスを使用する。
func (s *Service) IssueToken(user *model.User) (string, error) {
	return s.tokens.Issue(user.Email)
}
