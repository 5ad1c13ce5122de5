// Package password はパスワードの一方向ハッシュ化と照合を提供する。
// 意図的に低速な適応型アルゴリズム（bcrypt）を使用し、
// 総当たり攻撃のコストを高くする。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はbcryptによるパスワードハッシュ化を提供する。
// コストファクタは設定で調整可能。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。
// costがbcryptの有効範囲外の場合はデフォルトコストを使用する。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は生パスワードのソルト付きダイジェストを生成する。
// ソルトは呼び出しごとにランダムなため、同一入力でも毎回異なる出力になる。
// ハッシュ同士を等値比較してはならない。照合にはVerifyを使用すること。
func (h *Hasher) Hash(rawPassword string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(rawPassword), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は生パスワードが格納済みハッシュと一致するかを返す。
// 不一致は単にfalseを返し、エラーにはならない。
func (h *Hasher) Verify(rawPassword, hash string) bool {
	ok, err := h.VerifyStored(rawPassword, hash)
	return err == nil && ok
}

// VerifyStored は照合結果と、格納済みハッシュ自体の異常を区別して返す。
// 不一致は(false, nil)。ハッシュ形式が壊れている場合はエラーを返す。
// これはパスワード誤りではなくストレージ整合性の問題として扱う。
func (h *Hasher) VerifyStored(rawPassword, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("malformed stored password hash: %w", err)
}
