package services

import (
	"context"
	"errors"

	"movierama/internal/apperr"
	"movierama/internal/models"
	"movierama/internal/store"
	"movierama/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

type NewItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (n NewItem) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&n.Description, validation.Required, validation.RuneLength(1, 5000)),
	)
}

type ItemService struct {
	store store.Gateway
	inv   *Invalidator
	log   *zap.Logger
}

func NewItemService(gw store.Gateway, inv *Invalidator, log *zap.Logger) *ItemService {
	return &ItemService{store: gw, inv: inv, log: log}
}

// CreateItem stores a new item owned by ownerID. Titles are unique
// regardless of case. The returned item has its User populated.
func (s *ItemService) CreateItem(ctx context.Context, ownerID uint, in NewItem) (*models.Item, error) {
	in.Title = utils.SanitizeTitle(in.Title)
	in.Description = utils.SanitizeDescription(in.Description)
	if err := in.Validate(); err != nil {
		return nil, invalidItem(err)
	}

	var item *models.Item
	err := s.store.Transaction(ctx, func(tx store.Gateway) error {
		owner, err := tx.FindUser(ctx, ownerID)
		if err != nil {
			return err
		}
		dup, err := tx.FindItemByTitle(ctx, in.Title)
		if err != nil {
			return err
		}
		if dup != nil {
			return apperr.Wrapf(apperr.ErrDuplicateTitle, "an item titled %q already exists", dup.Title)
		}

		item = &models.Item{Title: in.Title, Description: in.Description, UserID: owner.ID}
		if err := tx.CreateItem(ctx, item); err != nil {
			return err
		}
		item.User = *owner
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.inv.NotifyItemCreated(context.WithoutCancel(ctx), item.ID, item.UserID)
	s.log.Info("item created", zap.Uint("item_id", item.ID), zap.Uint("owner_id", item.UserID))
	return item, nil
}

// Summary is the response body of a freshly created item.
func Summary(item *models.Item) models.ItemSummary {
	return summarize(*item, &item.User)
}

func invalidItem(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, fe := range verrs {
			return apperr.Wrapf(apperr.ErrInvalidItem, "%s: %v", field, fe)
		}
	}
	return apperr.Wrap(apperr.ErrInvalidItem, err)
}
