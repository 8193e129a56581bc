package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/app/models"
	"github.com/kleptokart/kleptokart/app/repositories"
	_ "github.com/kleptokart/kleptokart/database/migrations"
	"github.com/kleptokart/kleptokart/pkg/database"
	"github.com/kleptokart/kleptokart/pkg/migration"
)

func newRepo(t *testing.T) (*repositories.ListingRepository, *gorm.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db).Run(ctx)
	require.NoError(t, err)

	return repositories.NewListingRepository(db), db
}

func listing(title string) *models.Listing {
	return &models.Listing{
		Title:       title,
		Price:       150,
		SellerName:  "Alice",
		SellerEmail: "a@x.com",
	}
}

func TestCreate_AssignsIDAndActive(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := listing("Bike")
	l.Status = models.StatusSold // ignored
	require.NoError(t, repo.Create(ctx, l))

	assert.Equal(t, uint64(1), l.ID)
	assert.Equal(t, models.StatusActive, l.Status)
	assert.False(t, l.CreatedAt.IsZero())

	got, err := repo.Find(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bike", got.Title)
	assert.Nil(t, got.Description)
	assert.Equal(t, models.Price(150), got.Price)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestListActive_NewestFirstAndNeverNil(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	empty, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, title := range []string{"Bike", "Lamp", "Desk"} {
		require.NoError(t, repo.Create(ctx, listing(title)))
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, repo.Purchase(ctx, 2))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Desk", active[0].Title)
	assert.Equal(t, "Bike", active[1].Title)
	for _, l := range active {
		assert.True(t, l.IsActive())
	}
}

func TestListActive_TiesBreakOnID(t *testing.T) {
	repo, db := newRepo(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B"} {
		require.NoError(t, repo.Create(ctx, listing(title)))
	}
	require.NoError(t, db.Model(&models.Listing{}).Where("1 = 1").Update("created_at", time.Unix(1_700_000_000, 0)).Error)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "B", active[0].Title)
}

func TestDelete(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, listing("Bike")))
	require.NoError(t, repo.Create(ctx, listing("Lamp")))
	require.NoError(t, repo.Purchase(ctx, 2))

	require.NoError(t, repo.Delete(ctx, 1))
	require.NoError(t, repo.Delete(ctx, 2), "sold listings can be deleted")

	assert.ErrorIs(t, repo.Delete(ctx, 1), repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Purchase(ctx, 1), repositories.ErrNotFound)
	_, err := repo.Find(ctx, 1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDelete_IDsNotReused(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Create(ctx, listing(title)))
	}
	require.NoError(t, repo.Delete(ctx, 2))

	l := listing("D")
	require.NoError(t, repo.Create(ctx, l))
	assert.Equal(t, uint64(4), l.ID)
}

func TestPurchase_OnlyOnce(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, listing("Bike")))

	require.NoError(t, repo.Purchase(ctx, 1))
	assert.ErrorIs(t, repo.Purchase(ctx, 1), repositories.ErrAlreadySold)

	got, err := repo.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, got.Status)

	assert.ErrorIs(t, repo.Purchase(ctx, 999), repositories.ErrNotFound)
}

func TestPurchase_ConcurrentBuyersExactlyOneWins(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, listing("Bike")))

	const buyers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		sold     int
		failures []error
	)
	start := make(chan struct{})

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Purchase(ctx, 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case err == repositories.ErrAlreadySold:
				sold++
			default:
				failures = append(failures, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, 1, wins)
	assert.Equal(t, buyers-1, sold)

	got, err := repo.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, got.Status)
}

func TestPing(t *testing.T) {
	repo, _ := newRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
