package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// MemoryVideoRepo はプロセス内メモリに動画を保持するリポジトリ。
// プロセス再起動をまたいだ永続化は行わない。
type MemoryVideoRepo struct {
	mu     sync.RWMutex
	order  []string
	videos map[string]model.Video
	now    func() time.Time
}

// NewMemoryVideoRepo は初期データを登録したMemoryVideoRepoを生成する。
// IDが空または重複している場合はエラーを返す。
func NewMemoryVideoRepo(videos []model.Video) (*MemoryVideoRepo, error) {
	r := &MemoryVideoRepo{
		videos: make(map[string]model.Video, len(videos)),
		now:    time.Now,
	}
	for _, v := range videos {
		if v.ID == "" {
			return nil, fmt.Errorf("動画IDが空です")
		}
		if _, exists := r.videos[v.ID]; exists {
			return nil, fmt.Errorf("動画IDが重複しています: %s", v.ID)
		}
		if v.ActionStatus == "" {
			v.ActionStatus = model.ActionStatusPending
		}
		r.order = append(r.order, v.ID)
		r.videos[v.ID] = v.Clone()
	}
	return r, nil
}

// FindByID は指定IDの動画を取得する。見つからない場合はnilを返す。
func (r *MemoryVideoRepo) FindByID(_ context.Context, id string) (*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

// List は条件に一致する動画を登録順で返す。
// Query は実効文字起こしに対する大文字小文字を区別しない部分一致で判定する。
func (r *MemoryVideoRepo) List(_ context.Context, filter model.VideoFilter) ([]*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]*model.Video, 0, len(r.order))
	for _, id := range r.order {
		v := r.videos[id]
		if filter.Source != "" && v.Source != filter.Source {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(v.EffectiveTranscript()), query) {
			continue
		}
		out := v.Clone()
		result = append(result, &out)
	}
	return result, nil
}

// Update は最新の状態に対してパッチを適用する。見つからない場合はnilを返す。
func (r *MemoryVideoRepo) Update(_ context.Context, id string, patch model.VideoPatch) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, nil
	}
	updated := v.Apply(patch, r.now())
	r.videos[id] = updated

	out := updated.Clone()
	return &out, nil
}

// MarkActionSent はアクション状態を送信済みにする。既に送信済みの場合はchangedがfalseになる。
func (r *MemoryVideoRepo) MarkActionSent(_ context.Context, id string) (*model.Video, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, false, nil
	}
	if v.ActionStatus == model.ActionStatusSent {
		out := v.Clone()
		return &out, false, nil
	}

	sent := model.ActionStatusSent
	updated := v.Apply(model.VideoPatch{ActionStatus: &sent}, r.now())
	r.videos[id] = updated

	out := updated.Clone()
	return &out, true, nil
}

// Delete は動画を削除する。
func (r *MemoryVideoRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.videos[id]; !ok {
		return false, nil
	}
	delete(r.videos, id)
	r.order = slices.DeleteFunc(r.order, func(other string) bool { return other == id })
	return true, nil
}
