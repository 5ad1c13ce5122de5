package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/token"
)

// bearerPrefix はAuthorizationヘッダーのBearerスキームプレフィックス。
const bearerPrefix = "Bearer "

// TokenVerifier はトークン検証のインターフェース。
// internal/token.Serviceの部分集合として定義する。
// ExtractSubjectは署名と有効期限の検証を兼ねるため、検証は1回で完結する。
type TokenVerifier interface {
	ExtractSubject(tokenString string) (string, error)
}

// IdentityResolver はトークンのサブジェクトから完全なユーザー情報を
// 解決するインターフェース。repository.UserRepositoryの部分集合。
type IdentityResolver interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TokenMetrics はトークン検証失敗の記録インターフェース。
type TokenMetrics interface {
	RecordTokenRejected(reason string)
}

// NewBearerAuthMiddleware はBearerトークンによるリクエスト認証ミドルウェアを返す。
//
// 動作はステートマシンとして定義される:
//   - Authorizationヘッダーなし → 未認証のまま通過
//   - ヘッダーはあるがBearer形式でない → 未認証のまま通過
//   - Bearer形式 → トークンを検証し、成功時のみアイデンティティを確立
//
// 検証に成功した場合はサブジェクトのユーザーをストアから再解決し、
// リクエストコンテキストにアイデンティティを付与する。
// ただし上流で既にアイデンティティが確立されている場合は上書きしない
// （他の認証機構との合成を可能にするため冪等）。
//
// このミドルウェア自身はエラーレスポンスを一切返さない。
// 保護ルートへの未認証アクセスの拒否は後段のRequireIdentityが担う。
func NewBearerAuthMiddleware(tokens TokenVerifier, users IdentityResolver, metrics TokenMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーなし、またはBearer形式でない場合はそのまま通過
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			// 2. 既にアイデンティティが確立済みなら上書きしない
			if _, ok := IdentityFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

			// 3. サブジェクトの抽出と署名・有効期限の検証（1回の解析で完結）。
			// 失敗はここで吸収し、未認証のままリクエストを継続させる。
			subject, err := tokens.ExtractSubject(tokenString)
			if err != nil {
				if metrics != nil {
					metrics.RecordTokenRejected(rejectionReason(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			// 4. サブジェクトの完全なアイデンティティをストアから再解決
			user, err := users.FindByEmail(r.Context(), model.NormalizeEmail(subject))
			if err != nil {
				// ストア障害。エラーレスポンスはこの層では返さず、
				// 未認証として後段のゲートに委ねる。
				slog.Error("failed to resolve token subject",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// トークンは有効だがユーザーが既に存在しない
				next.ServeHTTP(w, r)
				return
			}

			// 5. 認証済みアイデンティティをコンテキストに注入
			identity := &model.Identity{
				UserID:       user.ID,
				Email:        user.Email,
				Capabilities: []model.Capability{model.CapabilityUser},
			}
			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rejectionReason はトークン拒否理由をメトリクスラベルに変換する。
// 期限切れと形式不正を診断のために区別する。
func rejectionReason(err error) string {
	if errors.Is(err, token.ErrTokenExpired) {
		return "expired"
	}
	return "malformed"
}
