package services

import (
	"context"
	"time"

	"movierama/internal/apperr"
	"movierama/internal/config"
	"movierama/internal/metrics"
	"movierama/internal/models"
	"movierama/internal/retry"
	"movierama/internal/store"

	"go.uber.org/zap"
)

type VoteOutcome string

const (
	OutcomeCreated VoteOutcome = "created"
	OutcomeUpdated VoteOutcome = "updated"
	OutcomeRemoved VoteOutcome = "removed"
)

// Ledger records at most one reaction per (voter, item).
type Ledger struct {
	store   store.Gateway
	inv     *Invalidator
	policy  retry.Policy
	log     *zap.Logger
	metrics *metrics.VoteMetrics
}

func NewLedger(gw store.Gateway, inv *Invalidator, cfg config.VoteConfig, log *zap.Logger, m *metrics.VoteMetrics) *Ledger {
	l := &Ledger{store: gw, inv: inv, log: log, metrics: m}
	l.policy = retry.Policy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.Backoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			m.Conflict()
			log.Debug("vote conflict, retrying",
				zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		},
	}
	return l
}

// CastVote toggles the voter's reaction on an item:
//
//	no vote      -> create  (OutcomeCreated)
//	same kind    -> delete  (OutcomeRemoved)
//	other kind   -> update  (OutcomeUpdated)
//
// The toggle runs in one transaction. Concurrent first votes by the same
// voter collide on the unique index and are retried from the lookup.
func (l *Ledger) CastVote(ctx context.Context, itemID, voterID uint, kind models.ReactionKind) (VoteOutcome, error) {
	if !kind.Valid() {
		return "", apperr.ErrInvalidReactionKind
	}

	start := time.Now()
	var ownerID uint
	outcome, err := retry.Do(ctx, l.policy, retry.OnConflict, func(int) (VoteOutcome, error) {
		return l.toggle(ctx, itemID, voterID, kind, &ownerID)
	})
	if err != nil {
		code, ok := apperr.CodeOf(err)
		if !ok {
			code = "error"
		}
		l.metrics.Observe(string(code), time.Since(start))
		return "", err
	}
	l.metrics.Observe(string(outcome), time.Since(start))

	// 事务提交后再失效缓存，请求取消也必须执行
	l.inv.NotifyVoteCast(context.WithoutCancel(ctx), itemID, ownerID)

	l.log.Debug("vote cast",
		zap.Uint("item_id", itemID), zap.Uint("voter_id", voterID),
		zap.String("kind", string(kind)), zap.String("outcome", string(outcome)))
	return outcome, nil
}

func (l *Ledger) toggle(ctx context.Context, itemID, voterID uint, kind models.ReactionKind, ownerID *uint) (VoteOutcome, error) {
	var outcome VoteOutcome
	err := l.store.Transaction(ctx, func(tx store.Gateway) error {
		item, err := tx.FindItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.UserID == voterID {
			return apperr.ErrSelfVoteForbidden
		}
		*ownerID = item.UserID

		existing, err := tx.FindVote(ctx, voterID, itemID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			outcome = OutcomeCreated
			return tx.CreateVote(ctx, &models.Vote{UserID: voterID, ItemID: itemID, Kind: kind})
		case existing.Kind == kind:
			outcome = OutcomeRemoved
			return tx.DeleteVote(ctx, existing.ID)
		default:
			outcome = OutcomeUpdated
			return tx.UpdateVoteKind(ctx, existing.ID, kind)
		}
	})
	return outcome, err
}
