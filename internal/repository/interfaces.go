// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/authgate/internal/model"
)

// UserRepository はユーザーレコードの永続化インターフェース。
// メールアドレスは正規化済みの値を渡すこと（model.NormalizeEmail参照）。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ExistsByEmail は指定メールアドレスのユーザーが存在するかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create はユーザーを作成する。
	// メールアドレスの一意性はストレージ層のUNIQUE制約が最終的に保証する。
	// 重複挿入が拒否された場合は*model.APIError（EMAIL_ALREADY_EXISTS）、
	// それ以外のストア障害はSTORE_UNAVAILABLEを返す。
	Create(ctx context.Context, user *model.User) error
}
