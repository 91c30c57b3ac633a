package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lunagic/agora/agoraservices/cache"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/models"
)

const likeStatusTTL = 10 * time.Minute

// LikeStatus answers whether a user liked a post. Answers are cached per
// (post, user) pair and must be refreshed by whoever adds or removes a like.
type LikeStatus struct {
	likes database.Repository[models.PostLike]
	cache *cache.Repository[string, bool]
}

func NewLikeStatus(db *database.Service, cacheDriver cache.Driver) *LikeStatus {
	return &LikeStatus{
		likes: database.NewRepository[models.PostLike](db),
		cache: cache.NewRepository[string, bool](cacheDriver, "agora-post-liked"),
	}
}

func likeStatusKey(postID string, userID string) string {
	return postID + ":" + userID
}

func (status *LikeStatus) IsLiked(ctx context.Context, postID string, userID string) (bool, error) {
	liked, err := status.LikedAmong(ctx, userID, []string{postID})
	if err != nil {
		return false, err
	}

	return liked[postID], nil
}

// LikedAmong reports which of postIDs userID liked, reading whatever the
// cache misses in a single query.
func (status *LikeStatus) LikedAmong(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := map[string]bool{}
	missingIDs := []string{}
	missing := []database.OperatorOfEvaluation{}

	for _, postID := range postIDs {
		cached, err := status.cache.Get(ctx, likeStatusKey(postID, userID))
		if err == nil {
			liked[postID] = cached
			continue
		}

		if !errors.Is(err, cache.ErrNotFound) {
			return nil, err
		}

		liked[postID] = false
		missingIDs = append(missingIDs, postID)
		missing = append(missing, database.Equal("post_id", postID).On(status.likes.Alias()).Named(fmt.Sprintf("post_id_%d", len(missing))))
	}

	if len(missing) == 0 {
		return liked, nil
	}

	found, err := status.likes.SelectMultiple(
		ctx,
		database.WithAdditionalWhere(database.And(
			database.Equal("user_id", userID).On(status.likes.Alias()),
			database.Or(missing...),
		)),
	)
	if err != nil {
		return nil, err
	}

	for _, like := range found {
		liked[like.PostID] = true
	}

	for _, postID := range missingIDs {
		if err := status.Set(ctx, postID, userID, liked[postID]); err != nil {
			return nil, err
		}
	}

	return liked, nil
}

func (status *LikeStatus) Set(ctx context.Context, postID string, userID string, liked bool) error {
	return status.cache.Set(ctx, likeStatusKey(postID, userID), liked, likeStatusTTL)
}

func (status *LikeStatus) Forget(ctx context.Context, postID string, userID string) error {
	return status.cache.Delete(ctx, likeStatusKey(postID, userID))
}
