// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
// PasswordHashは生パスワードのbcryptダイジェストであり、生パスワードは保持しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Capability は認証済みユーザーに付与される権限を表す。
// 文字列のロールリストではなく列挙型として定義し、将来のロール追加に備える。
type Capability string

const (
	// CapabilityUser は通常ユーザーの基本権限。
	CapabilityUser Capability = "user"
)

// Identity はリクエスト単位で確立される認証済みアイデンティティを表す。
// 認証ミドルウェアが生成し、リクエストコンテキストに不変値として保持される。
// リクエストを跨いで共有されることはない。
type Identity struct {
	UserID       string
	Email        string
	Capabilities []Capability
}

// HasCapability は指定された権限を保持しているかを返す。
func (i *Identity) HasCapability(c Capability) bool {
	for _, have := range i.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// NormalizeEmail はメールアドレスを正規化する。
// 前後の空白を除去し小文字に統一する。
// 登録・ログイン・検索のすべてで同一の正規化を適用することで、
// 大文字小文字違いの重複アカウントを防ぐ。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
