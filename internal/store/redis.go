package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/model"
)

const (
	assetKeyPrefix = "asset:"
	assetIndexKey  = "assets"
	clipKeyPrefix  = "clip:"
	postKeyPrefix  = "post:"
)

// RedisStore persists records as JSON values with index sets per owner.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func assetKey(id string) string      { return assetKeyPrefix + id }
func clipKey(id string) string       { return clipKeyPrefix + id }
func postKey(id string) string       { return postKeyPrefix + id }
func assetClipsKey(id string) string { return fmt.Sprintf("asset:%s:clips", id) }
func clipPostsKey(id string) string  { return fmt.Sprintf("clip:%s:posts", id) }

func (s *RedisStore) CreateAsset(ctx context.Context, asset *model.ContentAsset) error {
	if err := s.writeAsset(ctx, asset); err != nil {
		return err
	}
	return s.redis.ZAdd(ctx, assetIndexKey, redis.Z{
		Score:  float64(asset.CreatedAt.UnixNano()),
		Member: asset.ID,
	}).Err()
}

func (s *RedisStore) GetAsset(ctx context.Context, id string) (*model.ContentAsset, error) {
	data, err := s.redis.Get(ctx, assetKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var asset model.ContentAsset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset: %w", err)
	}
	return &asset, nil
}

// SaveAsset persists the asset as given. Callers own UpdatedAt: the
// controller keys staleness off it, so the store must not touch it.
func (s *RedisStore) SaveAsset(ctx context.Context, asset *model.ContentAsset) error {
	return s.writeAsset(ctx, asset)
}

func (s *RedisStore) writeAsset(ctx context.Context, asset *model.ContentAsset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}
	return s.redis.Set(ctx, assetKey(asset.ID), data, 0).Err()
}

// ListAssets returns assets newest first.
func (s *RedisStore) ListAssets(ctx context.Context) ([]*model.ContentAsset, error) {
	ids, err := s.redis.ZRevRange(ctx, assetIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	assets := make([]*model.ContentAsset, 0, len(ids))
	for _, id := range ids {
		asset, err := s.GetAsset(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// ClaimStage runs a WATCH transaction on the asset key so that of two
// overlapping advances exactly one wins; the loser sees ErrBusy.
func (s *RedisStore) ClaimStage(ctx context.Context, id string, fromStage int, fromStatus model.StageStatus, toStage int) (*model.ContentAsset, error) {
	var claimed *model.ContentAsset

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, assetKey(id)).Bytes()
		if err != nil {
			if err == redis.Nil {
				return ErrNotFound
			}
			return err
		}

		var asset model.ContentAsset
		if err := json.Unmarshal(data, &asset); err != nil {
			return fmt.Errorf("failed to unmarshal asset: %w", err)
		}

		if asset.Stage != fromStage || asset.StageStatus != fromStatus {
			return ErrBusy
		}

		asset.Stage = toStage
		asset.StageStatus = model.StageStatusRunning
		asset.Status = model.ContentStatusProcessing
		asset.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(&asset)
		if err != nil {
			return fmt.Errorf("failed to marshal asset: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, assetKey(id), updated, 0)
			return nil
		})
		if err != nil {
			return err
		}

		claimed = &asset
		return nil
	}, assetKey(id))

	if err == redis.TxFailedErr {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *RedisStore) SaveClip(ctx context.Context, clip *model.Clip) error {
	clip.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(clip)
	if err != nil {
		return fmt.Errorf("failed to marshal clip: %w", err)
	}
	if err := s.redis.Set(ctx, clipKey(clip.ID), data, 0).Err(); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, assetClipsKey(clip.AssetID), clip.ID).Err()
}

func (s *RedisStore) ListClips(ctx context.Context, assetID string) ([]*model.Clip, error) {
	ids, err := s.redis.SMembers(ctx, assetClipsKey(assetID)).Result()
	if err != nil {
		return nil, err
	}

	clips := make([]*model.Clip, 0, len(ids))
	for _, id := range ids {
		data, err := s.redis.Get(ctx, clipKey(id)).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var clip model.Clip
		if err := json.Unmarshal(data, &clip); err != nil {
			return nil, fmt.Errorf("failed to unmarshal clip: %w", err)
		}
		clips = append(clips, &clip)
	}
	return clips, nil
}

func (s *RedisStore) SavePost(ctx context.Context, post *model.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}
	if err := s.redis.Set(ctx, postKey(post.ID), data, 0).Err(); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, clipPostsKey(post.ClipID), post.ID).Err()
}

func (s *RedisStore) ListPosts(ctx context.Context, clipID string) ([]*model.Post, error) {
	ids, err := s.redis.SMembers(ctx, clipPostsKey(clipID)).Result()
	if err != nil {
		return nil, err
	}

	posts := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		data, err := s.redis.Get(ctx, postKey(id)).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var post model.Post
		if err := json.Unmarshal(data, &post); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post: %w", err)
		}
		posts = append(posts, &post)
	}
	return posts, nil
}
