// Package repository はデータ保持のインターフェースと実装を定義する。
package repository

import (
	"context"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// VideoRepository は動画エンティティの保持インターフェース。
// 返却する値は内部状態のコピーであり、呼び出し元が変更しても保持内容には影響しない。
type VideoRepository interface {
	// FindByID は指定IDの動画を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Video, error)

	// List は条件に一致する動画を登録順で返す。
	List(ctx context.Context, filter model.VideoFilter) ([]*model.Video, error)

	// Update は最新の状態に対してパッチを1回の不可分なマージとして適用し、適用後の動画を返す。
	// 見つからない場合はnilを返す。
	Update(ctx context.Context, id string, patch model.VideoPatch) (*model.Video, error)

	// MarkActionSent はアクション状態を送信済みにし、適用後の動画を返す。
	// 状態を読んで書き換えるまでを不可分に行い、この呼び出しで状態が変わった場合のみchangedがtrueになる。
	// 見つからない場合はnilを返す。
	MarkActionSent(ctx context.Context, id string) (v *model.Video, changed bool, err error)

	// Delete は動画を削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
