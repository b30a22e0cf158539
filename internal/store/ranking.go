package store

import (
	"context"
	"fmt"
	"time"

	"movierama/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var fieldColumns = map[models.SortKey]string{
	models.SortID:        "id",
	models.SortCreatedAt: "created_at",
	models.SortTitle:     "title",
}

// aggregateRecord is the flat scan target of the grouped ranking query.
type aggregateRecord struct {
	ID          uint
	Title       string
	Description string
	UserID      uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LikeCount   int64
	HateCount   int64
}

func scoped(db *gorm.DB, scope models.Scope) *gorm.DB {
	if scope.ByOwner() {
		return db.Where("items.user_id = ?", scope.OwnerID)
	}
	return db
}

func (g *GormGateway) CountItems(ctx context.Context, scope models.Scope) (int64, error) {
	var total int64
	err := scoped(g.db.WithContext(ctx).Model(&models.Item{}), scope).Count(&total).Error
	if err != nil {
		return 0, classify("store.CountItems", err)
	}
	return total, nil
}

// PageItemsByField orders by a stored column. Non-unique columns get id ASC
// as a secondary key so page boundaries are stable.
func (g *GormGateway) PageItemsByField(ctx context.Context, key models.SortKey, dir models.Direction, offset, limit int, scope models.Scope) ([]models.Item, error) {
	col, ok := fieldColumns[key]
	if !ok {
		return nil, fmt.Errorf("store.PageItemsByField: %q is not a stored column", key)
	}

	q := scoped(g.db.WithContext(ctx).Model(&models.Item{}), scope).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "items", Name: col}, Desc: dir == models.Desc})
	if col != "id" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Table: "items", Name: "id"}})
	}

	var items []models.Item
	if err := q.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, classify("store.PageItemsByField", err)
	}
	return items, nil
}

// PageItemsByAggregate counts LIKE and HATE votes per item in one grouped
// query and orders by the requested count. Ties always break on id ASC,
// whatever the direction.
func (g *GormGateway) PageItemsByAggregate(ctx context.Context, kind models.ReactionKind, dir models.Direction, offset, limit int, scope models.Scope) ([]RankedRow, error) {
	alias := "like_count"
	if kind == models.ReactionHate {
		alias = "hate_count"
	}

	q := g.db.WithContext(ctx).
		Table("items").
		Select("items.id, items.title, items.description, items.user_id, items.created_at, items.updated_at, "+
			"COUNT(CASE WHEN votes.kind = ? THEN 1 END) AS like_count, "+
			"COUNT(CASE WHEN votes.kind = ? THEN 1 END) AS hate_count",
			models.ReactionLike, models.ReactionHate).
		Joins("LEFT JOIN votes ON votes.item_id = items.id")
	q = scoped(q, scope).
		Group("items.id").
		Order(fmt.Sprintf("%s %s", alias, dir)).
		Order("items.id ASC")

	var records []aggregateRecord
	if err := q.Offset(offset).Limit(limit).Scan(&records).Error; err != nil {
		return nil, classify("store.PageItemsByAggregate", err)
	}

	rows := make([]RankedRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, RankedRow{
			Item: models.Item{
				ID:          r.ID,
				Title:       r.Title,
				Description: r.Description,
				UserID:      r.UserID,
				CreatedAt:   r.CreatedAt,
				UpdatedAt:   r.UpdatedAt,
			},
			LikeCount: r.LikeCount,
			HateCount: r.HateCount,
		})
	}
	return rows, nil
}

// CountReactions returns like/hate counts for the given items. Items without
// votes are absent from the map.
func (g *GormGateway) CountReactions(ctx context.Context, itemIDs []uint) (map[uint]Counts, error) {
	result := make(map[uint]Counts, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	type countRow struct {
		ItemID    uint
		LikeCount int64
		HateCount int64
	}
	var rows []countRow
	err := g.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("item_id, "+
			"COUNT(CASE WHEN kind = ? THEN 1 END) AS like_count, "+
			"COUNT(CASE WHEN kind = ? THEN 1 END) AS hate_count",
			models.ReactionLike, models.ReactionHate).
		Where("item_id IN ?", itemIDs).
		Group("item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, classify("store.CountReactions", err)
	}

	for _, r := range rows {
		result[r.ItemID] = Counts{Likes: r.LikeCount, Hates: r.HateCount}
	}
	return result, nil
}

func (g *GormGateway) FindViewerVotes(ctx context.Context, viewerID uint, itemIDs []uint) (map[uint]models.ReactionKind, error) {
	result := make(map[uint]models.ReactionKind, len(itemIDs))
	if viewerID == 0 || len(itemIDs) == 0 {
		return result, nil
	}

	var votes []models.Vote
	err := g.db.WithContext(ctx).
		Select("item_id", "kind").
		Where("user_id = ? AND item_id IN ?", viewerID, itemIDs).
		Find(&votes).Error
	if err != nil {
		return nil, classify("store.FindViewerVotes", err)
	}
	for _, v := range votes {
		result[v.ItemID] = v.Kind
	}
	return result, nil
}

func (g *GormGateway) ProfileStats(ctx context.Context, userID uint) (ProfileStats, error) {
	var stats ProfileStats
	db := g.db.WithContext(ctx)

	if err := db.Model(&models.Item{}).Where("user_id = ?", userID).Count(&stats.ItemCount).Error; err != nil {
		return stats, classify("store.ProfileStats", err)
	}

	var counts struct {
		LikeCount int64
		HateCount int64
	}
	err := db.Model(&models.Vote{}).
		Select("COUNT(CASE WHEN votes.kind = ? THEN 1 END) AS like_count, "+
			"COUNT(CASE WHEN votes.kind = ? THEN 1 END) AS hate_count",
			models.ReactionLike, models.ReactionHate).
		Joins("JOIN items ON items.id = votes.item_id").
		Where("items.user_id = ?", userID).
		Scan(&counts).Error
	if err != nil {
		return stats, classify("store.ProfileStats", err)
	}
	stats.LikesReceived = counts.LikeCount
	stats.HatesReceived = counts.HateCount
	return stats, nil
}
