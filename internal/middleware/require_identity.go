package middleware

import "net/http"

// NewRequireIdentityMiddleware は認可ゲートミドルウェアを返す。
// リクエストコンテキストにアイデンティティが確立されていない場合、
// ハンドラーを呼び出す前に401 Unauthorizedで拒否する。
// 登録・ログインなどの公開ルートにはこのゲートを適用しないこと。
func NewRequireIdentityMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
