package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memListings struct {
	mu   sync.Mutex
	seq  int
	data map[string]domain.Listing
}

func (m *memListings) Create(_ context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	l.ID = fmt.Sprintf("%024x", m.seq)
	l.CreatedAt = time.Now()
	m.data[l.ID] = cloneListing(l)
	return nil
}

func (m *memListings) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.data[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	c := cloneListing(&l)
	return &c, nil
}

func (m *memListings) FindByOwner(_ context.Context, ownerID string) ([]*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Listing
	for _, l := range m.data {
		if l.OwnerID == ownerID {
			c := cloneListing(&l)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memListings) Update(_ context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[l.ID]; !ok {
		return domain.ErrListingNotFound
	}
	m.data[l.ID] = cloneListing(l)
	return nil
}

func (m *memListings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func cloneListing(l *domain.Listing) domain.Listing {
	c := *l
	c.Media = append([]string(nil), l.Media...)
	return c
}

type memUsers struct {
	mu       sync.Mutex
	listings map[string][]string
}

func (m *memUsers) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.listings[id]
	return ok, nil
}

func (m *memUsers) AppendListing(_ context.Context, userID, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.listings[userID]
	if !ok {
		return domain.ErrOwnerNotFound
	}
	m.listings[userID] = append(ids, listingID)
	return nil
}

func (m *memUsers) RemoveListing(_ context.Context, userID, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[userID] = withoutLocators(m.listings[userID], []string{listingID})
	return nil
}

func (m *memUsers) GetEmailByID(context.Context, string) (string, error) { return "", nil }

type memStorage struct {
	mu      sync.Mutex
	seq     int
	objects map[string]bool
}

func (m *memStorage) Put(_ context.Context, _ []byte, _ string, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	loc := fmt.Sprintf("https://pub.example.com/%04d-%s", m.seq, name)
	m.objects[loc] = true
	return loc, nil
}

func (m *memStorage) Delete(_ context.Context, locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, locator)
	return nil
}

func TestListingLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	listings := &memListings{data: map[string]domain.Listing{}}
	users := &memUsers{listings: map[string][]string{ownerID: nil}}
	store := &memStorage{objects: map[string]bool{}}

	uc, err := NewListingUsecase(Config{
		Listings: listings,
		Users:    users,
		Cleanup:  new(MockCleanupRepository),
		Storage:  store,
		Logger:   logger.NewNop(),
	})
	require.NoError(t, err)
	defer uc.Close()

	created, err := uc.CreateListing(ctx, ownerID, validCreateInput(2))
	require.NoError(t, err)
	require.Len(t, created.Media, 2)
	assert.Equal(t, []string{created.ID}, users.listings[ownerID])

	removed := created.Media[0]
	kept := created.Media[1]
	res, err := uc.UpdateListing(ctx, ownerID, created.ID, UpdateListingInput{
		ImagesRemove: []string{removed},
		Media:        mediaFiles(1),
	})
	require.NoError(t, err)
	require.Len(t, res.Listing.Media, 2)
	assert.NotContains(t, res.Listing.Media, removed)
	assert.Equal(t, kept, res.Listing.Media[0])
	assert.False(t, store.objects[removed])
	assert.True(t, store.objects[res.Listing.Media[1]])

	stored, err := uc.FetchByID(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, res.Listing.Media, stored.Media)

	del, err := uc.DeleteListing(ctx, ownerID, created.ID)
	require.NoError(t, err)
	assert.Empty(t, del.FailedDeletions)

	_, err = listings.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	assert.Empty(t, store.objects)
	assert.Empty(t, users.listings[ownerID])
}
