package services_test

import (
	"context"
	"testing"

	"movierama/internal/apperr"
	"movierama/internal/models"
	"movierama/internal/services"
	"movierama/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	f := newFixture(t)

	q, err := f.engine.Normalize(services.RankQuery{Size: 5})
	require.NoError(t, err)
	assert.Equal(t, models.SortCreatedAt, q.Sort)
	assert.Equal(t, models.Desc, q.Direction)

	q, err = f.engine.Normalize(services.RankQuery{Sort: "hate_count", Direction: "asc", Size: 500, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, models.SortHateCount, q.Sort)
	assert.Equal(t, models.Asc, q.Direction)
	assert.Equal(t, 100, q.Size)
	assert.Equal(t, 2, q.Page)

	_, err = f.engine.Normalize(services.RankQuery{Sort: "views", Size: 5})
	assert.ErrorIs(t, err, apperr.ErrInvalidSortKey)
}

func TestRank_SkipsPageQueryBeyondLastPage(t *testing.T) {
	ctx := context.Background()
	wrap, counter := newCountingGateway()
	f := newFixtureWith(t, wrap)
	owner := testutil.SeedUser(t, f.db, "owner")
	testutil.SeedItem(t, f.db, owner, "Heat")
	testutil.SeedItem(t, f.db, owner, "Ronin")

	res, err := f.engine.Rank(ctx, services.RankQuery{Sort: models.SortLikeCount, Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.EqualValues(t, 2, res.Total)
	assert.Zero(t, counter.pages.Load())

	res, err = f.engine.Rank(ctx, services.RankQuery{Sort: models.SortTitle, Direction: models.Asc, Page: 0, Size: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Heat", res.Rows[0].Item.Title)
	assert.EqualValues(t, 1, counter.pages.Load())
}

func TestRank_FieldSortCarriesCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, f.db, "owner")
	voters := testutil.SeedVoters(t, f.db, "v", 3)
	item := testutil.SeedItem(t, f.db, owner, "Heat")
	testutil.SeedVote(t, f.db, voters[0], item, models.ReactionLike)
	testutil.SeedVote(t, f.db, voters[1], item, models.ReactionLike)
	testutil.SeedVote(t, f.db, voters[2], item, models.ReactionHate)

	res, err := f.engine.Rank(ctx, services.RankQuery{Sort: models.SortID, Size: 10})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 2, res.Rows[0].LikeCount)
	assert.EqualValues(t, 1, res.Rows[0].HateCount)
}
