// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/hitoshi/authgate/internal/metrics"
	"github.com/hitoshi/authgate/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, rawPassword string) (*model.User, error)
	Authenticate(ctx context.Context, email, rawPassword string) (*model.User, error)
	IssueToken(user *model.User) (string, error)
}

// credentialRequest は登録・ログインのリクエストボディ。
// 生パスワードは1リクエストの処理中のみ存在し、永続化されない。
type credentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse は外部に公開するユーザー表現。
// パスワードハッシュはシリアライズ対象に含めない。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics metrics.AuthMetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
// metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, m metrics.AuthMetricsCollector) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: m,
	}
}

// Register は新規ユーザーを登録する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// リクエスト形式の検証はAuthCoreに到達する前に行う
	if err := validateCredentials(req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeEmailAlreadyExists {
			if h.metrics != nil {
				h.metrics.RecordRegisterConflict()
			}
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegisterSuccess()
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}

// Login はユーザーを認証し、Bearerトークンを発行する。
// POST /api/auth/login
// 失敗時はメールアドレス不明とパスワード誤りを区別せず、
// 一律に401と統一メッセージを返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// ストア障害やハッシュ破損は認証失敗にマスクしない
		handleServiceError(w, err)
		return
	}
	if user == nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, model.NewInvalidCredentialsError())
		return
	}

	token, err := h.service.IssueToken(user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
	})
}

// validateCredentials は登録リクエストの形式を検証する。
// メールアドレスの形式不正、パスワードの空白はここで拒否する。
func validateCredentials(req credentialRequest) error {
	email := model.NormalizeEmail(req.Email)
	if email == "" {
		return model.NewValidationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("invalid email address")
	}
	if strings.TrimSpace(req.Password) == "" {
		return model.NewValidationError("password must not be blank")
	}
	return nil
}
