package services

import (
	"context"

	"movierama/internal/cache"
	"movierama/internal/models"
	"movierama/internal/store"
)

// ProfileService serves per-user summaries from the long-lived Profile region.
type ProfileService struct {
	store store.Gateway
	cache cache.Cache[models.Profile]
}

func NewProfileService(gw store.Gateway, profiles cache.Cache[models.Profile]) *ProfileService {
	return &ProfileService{store: gw, cache: profiles}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	key := cache.ProfileKey(userID)
	if p, ok := s.cache.Get(ctx, key); ok {
		return &p, nil
	}

	gen := s.cache.Generation(ctx, key.Region)
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.ProfileStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := models.Profile{
		ID:            user.ID,
		Username:      user.Username,
		FullName:      user.FullName(),
		ItemCount:     stats.ItemCount,
		LikesReceived: stats.LikesReceived,
		HatesReceived: stats.HatesReceived,
	}
	s.cache.Put(ctx, key, p, gen)
	return &p, nil
}
