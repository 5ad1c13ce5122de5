package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/authgate/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層のエラーをHTTPステータスに変換する。
// *model.APIErrorはコードに応じたステータスとメッセージで返し、
// それ以外（ストア障害等）は詳細をログのみに記録して500を返す。
// 認証系の5xxを401や400にマスクしてはならない。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeEmailAlreadyExists:
			http.Error(w, apiErr.Message, http.StatusBadRequest)
			return
		case model.ErrCodeValidationFailed:
			http.Error(w, apiErr.Message, http.StatusBadRequest)
			return
		case model.ErrCodeInvalidCredentials:
			http.Error(w, apiErr.Message, http.StatusUnauthorized)
			return
		case model.ErrCodeUserNotFound:
			http.Error(w, "user not found", http.StatusNotFound)
			return
		case model.ErrCodeStoreUnavailable:
			// ストア障害の詳細はログのみに記録し、レスポンスには漏らさない
			slog.Error("credential store failure", slog.String("error", apiErr.Error()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	slog.Error("internal error", slog.String("error", err.Error()))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
