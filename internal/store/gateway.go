// Package store is the gateway between the core services and the relational
// database. Every method translates driver errors into apperr sentinels so
// callers never inspect gorm or pgx errors directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movierama/internal/apperr"
	"movierama/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RankedRow is one item together with its live reaction counts.
type RankedRow struct {
	Item      models.Item
	LikeCount int64
	HateCount int64
}

type Counts struct {
	Likes int64
	Hates int64
}

type ProfileStats struct {
	ItemCount     int64
	LikesReceived int64
	HatesReceived int64
}

// Gateway is the query/command surface the services depend on.
type Gateway interface {
	// Transaction runs fn against a transaction-bound Gateway. fn's error
	// rolls the transaction back and is returned unchanged.
	Transaction(ctx context.Context, fn func(tx Gateway) error) error

	FindItem(ctx context.Context, id uint) (*models.Item, error)
	FindItemByTitle(ctx context.Context, title string) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	FindUser(ctx context.Context, id uint) (*models.User, error)
	FindUsers(ctx context.Context, ids []uint) (map[uint]models.User, error)

	FindVote(ctx context.Context, voterID, itemID uint) (*models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	UpdateVoteKind(ctx context.Context, voteID uint, kind models.ReactionKind) error
	DeleteVote(ctx context.Context, voteID uint) error

	CountItems(ctx context.Context, scope models.Scope) (int64, error)
	PageItemsByField(ctx context.Context, key models.SortKey, dir models.Direction, offset, limit int, scope models.Scope) ([]models.Item, error)
	PageItemsByAggregate(ctx context.Context, kind models.ReactionKind, dir models.Direction, offset, limit int, scope models.Scope) ([]RankedRow, error)
	CountReactions(ctx context.Context, itemIDs []uint) (map[uint]Counts, error)
	FindViewerVotes(ctx context.Context, viewerID uint, itemIDs []uint) (map[uint]models.ReactionKind, error)
	ProfileStats(ctx context.Context, userID uint) (ProfileStats, error)
}

type GormGateway struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

var _ Gateway = (*GormGateway)(nil)

func (g *GormGateway) Transaction(ctx context.Context, fn func(tx Gateway) error) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormGateway{db: tx})
	})
	return classify("store.Transaction", err)
}

func (g *GormGateway) FindItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := g.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&item).Error; err != nil {
		return nil, classify("store.FindItem", err)
	}
	if item.ID == 0 {
		return nil, apperr.Wrapf(apperr.ErrItemNotFound, "item %d not found", id)
	}
	return &item, nil
}

// FindItemByTitle matches case-insensitively and returns nil when absent.
func (g *GormGateway) FindItemByTitle(ctx context.Context, title string) (*models.Item, error) {
	var item models.Item
	err := g.db.WithContext(ctx).
		Where("LOWER(title) = LOWER(?)", title).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, classify("store.FindItemByTitle", err)
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (g *GormGateway) CreateItem(ctx context.Context, item *models.Item) error {
	err := g.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
	return classify("store.CreateItem", err)
}

func (g *GormGateway) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := g.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&user).Error; err != nil {
		return nil, classify("store.FindUser", err)
	}
	if user.ID == 0 {
		return nil, apperr.Wrapf(apperr.ErrUserNotFound, "user %d not found", id)
	}
	return &user, nil
}

func (g *GormGateway) FindUsers(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	result := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := g.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, classify("store.FindUsers", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// FindVote returns nil, nil when the voter has no vote on the item.
func (g *GormGateway) FindVote(ctx context.Context, voterID, itemID uint) (*models.Vote, error) {
	var vote models.Vote
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", voterID, itemID).
		Limit(1).
		Find(&vote).Error
	if err != nil {
		return nil, classify("store.FindVote", err)
	}
	if vote.ID == 0 {
		return nil, nil
	}
	return &vote, nil
}

// CreateVote reports ErrConcurrencyConflict when the (user, item) row
// already exists, i.e. another request inserted it first.
func (g *GormGateway) CreateVote(ctx context.Context, vote *models.Vote) error {
	err := g.db.WithContext(ctx).Omit(clause.Associations).Create(vote).Error
	return classify("store.CreateVote", err)
}

// UpdateVoteKind and DeleteVote report ErrConcurrencyConflict when the row
// disappeared between lookup and write.
func (g *GormGateway) UpdateVoteKind(ctx context.Context, voteID uint, kind models.ReactionKind) error {
	res := g.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", voteID).
		Updates(map[string]any{"kind": kind, "updated_at": time.Now()})
	if res.Error != nil {
		return classify("store.UpdateVoteKind", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Wrapf(apperr.ErrConcurrencyConflict, "vote %d changed concurrently", voteID)
	}
	return nil
}

func (g *GormGateway) DeleteVote(ctx context.Context, voteID uint) error {
	res := g.db.WithContext(ctx).Delete(&models.Vote{}, voteID)
	if res.Error != nil {
		return classify("store.DeleteVote", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Wrapf(apperr.ErrConcurrencyConflict, "vote %d changed concurrently", voteID)
	}
	return nil
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, apperr.Wrap(apperr.ErrConcurrencyConflict, err))
	}
	return fmt.Errorf("%s: %w", op, apperr.Wrap(apperr.ErrStoreUnavailable, err))
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
