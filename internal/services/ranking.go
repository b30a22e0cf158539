package services

import (
	"context"

	"movierama/internal/apperr"
	"movierama/internal/config"
	"movierama/internal/models"
	"movierama/internal/store"
)

type RankQuery struct {
	Scope     models.Scope
	Sort      models.SortKey
	Direction models.Direction
	Page      int
	Size      int
}

type RankResult struct {
	Rows  []store.RankedRow
	Total int64
}

// RankingEngine orders items either by a stored field or by live reaction
// counts. Aggregate orderings always break ties on id ascending.
type RankingEngine struct {
	store   store.Gateway
	maxSize int
}

func NewRankingEngine(gw store.Gateway, cfg config.PagingConfig) *RankingEngine {
	return &RankingEngine{store: gw, maxSize: cfg.MaxSize}
}

// Normalize validates q and rewrites it to canonical form: sort key resolved
// case-insensitively (empty means createdAt), direction ASC or DESC, size
// clamped to the configured maximum.
func (e *RankingEngine) Normalize(q RankQuery) (RankQuery, error) {
	key, ok := models.ParseSortKey(string(q.Sort))
	if !ok {
		return q, apperr.Wrapf(apperr.ErrInvalidSortKey, "unknown sort key %q", q.Sort)
	}
	if q.Size <= 0 {
		return q, apperr.ErrInvalidPageSize
	}
	if q.Page < 0 {
		return q, apperr.ErrInvalidPage
	}

	q.Sort = key
	q.Direction = models.ParseDirection(string(q.Direction))
	if e.maxSize > 0 && q.Size > e.maxSize {
		q.Size = e.maxSize
	}
	return q, nil
}

func (e *RankingEngine) Rank(ctx context.Context, q RankQuery) (RankResult, error) {
	q, err := e.Normalize(q)
	if err != nil {
		return RankResult{}, err
	}

	total, err := e.store.CountItems(ctx, q.Scope)
	if err != nil {
		return RankResult{}, err
	}
	result := RankResult{Rows: []store.RankedRow{}, Total: total}

	// 超出最后一页时不查询
	lastPage := (total + int64(q.Size) - 1) / int64(q.Size)
	if int64(q.Page) >= lastPage {
		return result, nil
	}
	offset := q.Page * q.Size

	if q.Sort.Aggregate() {
		rows, err := e.store.PageItemsByAggregate(ctx, q.Sort.Reaction(), q.Direction, offset, q.Size, q.Scope)
		if err != nil {
			return RankResult{}, err
		}
		result.Rows = rows
		return result, nil
	}

	items, err := e.store.PageItemsByField(ctx, q.Sort, q.Direction, offset, q.Size, q.Scope)
	if err != nil {
		return RankResult{}, err
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	counts, err := e.store.CountReactions(ctx, ids)
	if err != nil {
		return RankResult{}, err
	}
	for _, it := range items {
		c := counts[it.ID]
		result.Rows = append(result.Rows, store.RankedRow{Item: it, LikeCount: c.Likes, HateCount: c.Hates})
	}
	return result, nil
}
