// Package token は署名付きステートレス認証トークンの発行と検証を提供する。
// トークンはHMAC-SHA256で署名されたJWTであり、サーバー側には保存しない。
// 有効性は署名と有効期限のみで判定されるため、同じ秘密鍵を持つ
// 任意のバックエンドインスタンスが検証できる。
// その代わり有効期限前の失効はできない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed はトークンの構造または署名が不正な場合のエラー。
	// 改ざん、異なる秘密鍵での署名、エンコーディング破損が該当する。
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")

	// ErrTokenExpired は署名は正しいが有効期限が切れている場合のエラー。
	// 診断のためにErrTokenMalformedと区別する。
	ErrTokenExpired = errors.New("token is expired")
)

// Service はトークンの発行と検証を行う。
// 秘密鍵と有効期間は起動時に設定され、以後イミュータブルとして扱う。
// 共有可変状態を持たないため、複数リクエストから同時に使用できる。
type Service struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(secret []byte, expiry time.Duration) *Service {
	return &Service{
		secret: secret,
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock は時刻取得関数を差し替えたServiceを返す。
// 有効期限のテストで使用する。
func (s *Service) WithClock(now func() time.Time) *Service {
	return &Service{
		secret: s.secret,
		expiry: s.expiry,
		now:    now,
	}
}

// Issue は指定されたサブジェクト（ユーザーのメールアドレス）に対する
// 署名付きトークンを発行する。
// sub、iat、exp（iat + 有効期間）をクレームとして含める。
func (s *Service) Issue(subjectEmail string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectEmail,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ExtractSubject はトークンを解析・署名検証し、サブジェクトを返す。
// 有効期限切れのみが問題の場合はErrTokenExpired、
// 構造や署名の不正はErrTokenMalformedを返す。
func (s *Service) ExtractSubject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	return claims.Subject, nil
}

// IsValid はトークンのサブジェクトが期待値と一致し、かつ
// 有効期限内である場合にtrueを返す。
// 解析失敗は呼び出し元に伝播せず、すべてfalseに畳み込まれる。
func (s *Service) IsValid(tokenString, expectedSubject string) bool {
	subject, err := s.ExtractSubject(tokenString)
	if err != nil {
		return false
	}
	return subject == expectedSubject
}
