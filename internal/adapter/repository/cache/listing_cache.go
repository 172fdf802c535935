package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/redis/go-redis/v9"
)

const listingKeyPrefix = "listing:"

// ListingCache keeps single listings by id for anonymous and authenticated reads.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

type cachedListing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rent        float64   `json:"rent"`
	Rooms       string    `json:"rooms"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Media       []string  `json:"media"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Get returns nil, nil on a cache miss.
func (c *ListingCache) Get(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}

	var cl cachedListing
	if err := json.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("decode cached listing %s: %w", id, err)
	}
	return &domain.Listing{
		ID:          cl.ID,
		OwnerID:     cl.OwnerID,
		Title:       cl.Title,
		Description: cl.Description,
		Rent:        cl.Rent,
		Rooms:       domain.Rooms(cl.Rooms),
		Location:    cl.Location,
		Status:      domain.ListingStatus(cl.Status),
		Media:       cl.Media,
		CreatedAt:   cl.CreatedAt,
		UpdatedAt:   cl.UpdatedAt,
	}, nil
}

func (c *ListingCache) Set(ctx context.Context, l *domain.Listing) error {
	data, err := json.Marshal(cachedListing{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Description: l.Description,
		Rent:        l.Rent,
		Rooms:       string(l.Rooms),
		Location:    l.Location,
		Status:      string(l.Status),
		Media:       l.Media,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listingKeyPrefix+l.ID, data, c.ttl).Err()
}

func (c *ListingCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, listingKeyPrefix+id).Err()
}
