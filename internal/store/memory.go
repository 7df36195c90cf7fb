package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clipforge/api/internal/model"
)

// MemoryStore is the fallback used when Redis is not configured, and
// the store handed to tests. Same semantics as RedisStore, guarded by
// one mutex.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[string]*model.ContentAsset
	clips  map[string]*model.Clip
	posts  map[string]*model.Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets: make(map[string]*model.ContentAsset),
		clips:  make(map[string]*model.Clip),
		posts:  make(map[string]*model.Post),
	}
}

func (s *MemoryStore) CreateAsset(ctx context.Context, asset *model.ContentAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *asset
	s.assets[asset.ID] = &copied
	return nil
}

func (s *MemoryStore) GetAsset(ctx context.Context, id string) (*model.ContentAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *asset
	return &copied, nil
}

// SaveAsset persists the asset as given. Callers own UpdatedAt: the
// controller keys staleness off it, so the store must not touch it.
func (s *MemoryStore) SaveAsset(ctx context.Context, asset *model.ContentAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[asset.ID]; !ok {
		return ErrNotFound
	}
	copied := *asset
	s.assets[asset.ID] = &copied
	return nil
}

func (s *MemoryStore) ListAssets(ctx context.Context) ([]*model.ContentAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make([]*model.ContentAsset, 0, len(s.assets))
	for _, asset := range s.assets {
		copied := *asset
		assets = append(assets, &copied)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].CreatedAt.After(assets[j].CreatedAt)
	})
	return assets, nil
}

func (s *MemoryStore) ClaimStage(ctx context.Context, id string, fromStage int, fromStatus model.StageStatus, toStage int) (*model.ContentAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if asset.Stage != fromStage || asset.StageStatus != fromStatus {
		return nil, ErrBusy
	}

	asset.Stage = toStage
	asset.StageStatus = model.StageStatusRunning
	asset.Status = model.ContentStatusProcessing
	asset.UpdatedAt = time.Now().UTC()

	copied := *asset
	return &copied, nil
}

func (s *MemoryStore) SaveClip(ctx context.Context, clip *model.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clip.UpdatedAt = time.Now().UTC()
	copied := *clip
	s.clips[clip.ID] = &copied
	return nil
}

func (s *MemoryStore) ListClips(ctx context.Context, assetID string) ([]*model.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var clips []*model.Clip
	for _, clip := range s.clips {
		if clip.AssetID == assetID {
			copied := *clip
			clips = append(clips, &copied)
		}
	}
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].CreatedAt.Before(clips[j].CreatedAt)
	})
	return clips, nil
}

func (s *MemoryStore) SavePost(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *post
	s.posts[post.ID] = &copied
	return nil
}

func (s *MemoryStore) ListPosts(ctx context.Context, clipID string) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var posts []*model.Post
	for _, post := range s.posts {
		if post.ClipID == clipID {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}
