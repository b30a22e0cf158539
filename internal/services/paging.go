package services

import (
	"context"
	"fmt"
	"strconv"

	"movierama/internal/cache"
	"movierama/internal/models"
	"movierama/internal/store"
	"movierama/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PageRequest is a listing request as received from the outside. Sort and
// Direction are raw strings; ViewerID 0 is an anonymous viewer.
type PageRequest struct {
	Scope     models.Scope
	Sort      string
	Direction string
	Page      int
	Size      int
	ViewerID  uint
}

// Pager serves listing pages cache-aside.
type Pager struct {
	engine *RankingEngine
	store  store.Gateway
	cache  cache.Cache[models.RankedPage]
	group  singleflight.Group
	log    *zap.Logger
}

func NewPager(engine *RankingEngine, gw store.Gateway, pages cache.Cache[models.RankedPage], log *zap.Logger) *Pager {
	return &Pager{engine: engine, store: gw, cache: pages, log: log}
}

func (p *Pager) GetPage(ctx context.Context, req PageRequest) (*models.RankedPage, error) {
	q, err := p.engine.Normalize(RankQuery{
		Scope:     req.Scope,
		Sort:      models.SortKey(req.Sort),
		Direction: models.Direction(req.Direction),
		Page:      req.Page,
		Size:      req.Size,
	})
	if err != nil {
		return nil, err
	}

	region := cache.RegionFor(q.Scope)
	key := cache.PageKey(region, q.Page, q.Size, q.Sort, q.Direction, req.ViewerID)
	if page, ok := p.cache.Get(ctx, key); ok {
		return &page, nil
	}

	// 同一 key、同一代的并发未命中只查询一次数据库。
	// 失效之后到达的请求不会加入失效之前开始的查询。
	gen := p.cache.Generation(ctx, region)
	flight := key.String() + "#" + strconv.FormatUint(uint64(gen), 10)
	v, err, _ := p.group.Do(flight, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		page, err := p.load(loadCtx, q, req.ViewerID)
		if err != nil {
			return nil, err
		}
		p.cache.Put(loadCtx, key, *page, gen)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	page := *v.(*models.RankedPage)
	return &page, nil
}

func (p *Pager) load(ctx context.Context, q RankQuery, viewerID uint) (*models.RankedPage, error) {
	res, err := p.engine.Rank(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(res.Rows))
	ownerSet := make(map[uint]struct{}, len(res.Rows))
	owners := make([]uint, 0, len(res.Rows))
	for _, r := range res.Rows {
		ids = append(ids, r.Item.ID)
		if _, seen := ownerSet[r.Item.UserID]; !seen {
			ownerSet[r.Item.UserID] = struct{}{}
			owners = append(owners, r.Item.UserID)
		}
	}

	users, err := p.store.FindUsers(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	mine, err := p.store.FindViewerVotes(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("load viewer votes: %w", err)
	}

	content := make([]models.ItemSummary, 0, len(res.Rows))
	for _, r := range res.Rows {
		owner, ok := users[r.Item.UserID]
		var ownerPtr *models.User
		if ok {
			ownerPtr = &owner
		}
		s := summarize(r.Item, ownerPtr)
		s.LikeCount = r.LikeCount
		s.HateCount = r.HateCount
		s.UserLiked = mine[r.Item.ID] == models.ReactionLike
		s.UserHated = mine[r.Item.ID] == models.ReactionHate
		content = append(content, s)
	}

	return newRankedPage(content, q.Page, q.Size, res.Total), nil
}

func newRankedPage(content []models.ItemSummary, page, size int, total int64) *models.RankedPage {
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &models.RankedPage{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          page >= totalPages-1,
	}
}

// summarize builds the viewer-independent part of an item summary.
func summarize(item models.Item, owner *models.User) models.ItemSummary {
	return models.ItemSummary{
		ID:              item.ID,
		Title:           item.Title,
		Description:     item.Description,
		DescriptionHTML: utils.RenderMarkdown(item.Description),
		UserID:          item.UserID,
		UserName:        owner.FullName(),
		CreatedAt:       item.CreatedAt,
	}
}
