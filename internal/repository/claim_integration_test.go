//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/textclaim/internal/config"
	"github.com/kkkkikiki/textclaim/internal/database"
	"github.com/kkkkikiki/textclaim/internal/model"
)

// These tests run against the PostgreSQL described by the DB_* variables:
//
//	go test -tags integration ./internal/repository/...

func newPostgresStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	require.NoError(t, err)

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.GetDatabaseURL())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(32)

	require.NoError(t, database.Migrate(ctx, db))
	return NewStore(db), db
}

// seedProduct creates a paused campaign holding one product with the given
// texts. The campaign and everything under it is removed after the test.
func seedProduct(t *testing.T, store *Store, db *sqlx.DB, texts int) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	campaign := &model.Campaign{Name: "claim " + t.Name(), Status: model.CampaignPaused}
	require.NoError(t, store.CreateCampaign(ctx, campaign))
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM campaigns WHERE id = $1`, campaign.ID)
	})

	contents := make([]string, texts)
	for i := range contents {
		contents[i] = fmt.Sprintf("option %d", i+1)
	}
	product := &model.Product{CampaignID: campaign.ID, Name: "Serum"}
	_, err := store.CreateProduct(ctx, product, contents)
	require.NoError(t, err)
	return product.ID
}

func TestClaimTextLastTextGoesToExactlyOneCaller(t *testing.T) {
	store, db := newPostgresStore(t)
	productID := seedProduct(t, store, db, 1)

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		claimed   []*model.Text
		exhausted int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			text, err := store.ClaimText(context.Background(), uuid.New(), productID)

			mu.Lock()
			defer mu.Unlock()
			var outOfTexts *model.OutOfTextsError
			switch {
			case err == nil:
				claimed = append(claimed, text)
			case errors.As(err, &outOfTexts):
				assert.Equal(t, productID, outOfTexts.ProductID)
				exhausted++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	require.Len(t, claimed, 1)
	assert.Equal(t, callers-1, exhausted)
	assert.Equal(t, 1, claimed[0].OptionNumber)
	assert.True(t, claimed[0].IsAssigned)
	assert.NotNil(t, claimed[0].ClaimedAt)
}

func TestClaimTextConcurrentClaimsAreDisjoint(t *testing.T) {
	store, db := newPostgresStore(t)
	const texts = 25
	productID := seedProduct(t, store, db, texts)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		options = map[int]uuid.UUID{}
		errs    []error
	)
	for i := 0; i < texts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := store.ClaimText(context.Background(), uuid.New(), productID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			_, dup := options[text.OptionNumber]
			assert.False(t, dup, "option %d handed out twice", text.OptionNumber)
			options[text.OptionNumber] = text.ID
		}()
	}
	wg.Wait()

	// SKIP LOCKED may report exhaustion while another claim holds the last
	// free rows, but never hands a text out twice
	for _, err := range errs {
		require.ErrorIs(t, err, model.ErrOutOfTexts)
	}
	assert.Len(t, options, texts-len(errs))

	for len(options) < texts {
		text, err := store.ClaimText(context.Background(), uuid.New(), productID)
		require.NoError(t, err)
		options[text.OptionNumber] = text.ID
	}

	_, err := store.ClaimText(context.Background(), uuid.New(), productID)
	require.ErrorIs(t, err, model.ErrOutOfTexts)

	var assigned int
	require.NoError(t, db.GetContext(context.Background(), &assigned,
		`SELECT count(*) FROM texts WHERE product_id = $1 AND is_assigned`, productID))
	assert.Equal(t, texts, assigned)
}

func TestClaimTextTakesLowestOptionFirst(t *testing.T) {
	store, db := newPostgresStore(t)
	productID := seedProduct(t, store, db, 3)
	ctx := context.Background()

	first, err := store.ClaimText(ctx, uuid.New(), productID)
	require.NoError(t, err)
	second, err := store.ClaimText(ctx, uuid.New(), productID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.OptionNumber)
	assert.Equal(t, 2, second.OptionNumber)

	released, err := store.ReleaseTexts(ctx, []uuid.UUID{first.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	again, err := store.ClaimText(ctx, uuid.New(), productID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestCreateAssignmentConcurrentSameEmailInsertsOnce(t *testing.T) {
	store, db := newPostgresStore(t)
	productID := seedProduct(t, store, db, 1)
	ctx := context.Background()

	var campaignID uuid.UUID
	require.NoError(t, db.GetContext(ctx, &campaignID, `SELECT campaign_id FROM products WHERE id = $1`, productID))

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.CreateAssignment(ctx, &model.Assignment{
				ID:         uuid.New(),
				CampaignID: campaignID,
				Email:      "race@example.com",
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	_, err := store.FindAssignment(ctx, campaignID, "race@example.com")
	require.NoError(t, err)
}
