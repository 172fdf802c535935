package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("photo 1.png")
	parts := strings.SplitN(key, "-", 6)
	require.Len(t, parts, 6)
	assert.True(t, strings.HasSuffix(key, "-photo 1.png"))
	assert.Len(t, key, 36+1+len("photo 1.png"))

	assert.True(t, strings.HasSuffix(objectKey("../../etc/passwd"), "-passwd"))
	assert.True(t, strings.HasSuffix(objectKey(`C:\tmp\a.jpg`), "-a.jpg"))
	assert.True(t, strings.HasSuffix(objectKey(""), "-file"))
	assert.NotEqual(t, objectKey("a.png"), objectKey("a.png"))
}

func TestLocatorRoundTrip(t *testing.T) {
	s, err := NewS3Storage(Options{
		Endpoint:       "localhost:9000",
		Bucket:         "listings",
		PublicEndpoint: "https://pub.example.com/",
	}, logger.NewNop())
	require.NoError(t, err)

	loc := s.locatorFor("abc-room.jpg")
	assert.Equal(t, "https://pub.example.com/abc-room.jpg", loc)
	key, ok := s.keyFromLocator(loc)
	assert.True(t, ok)
	assert.Equal(t, "abc-room.jpg", key)
}

func TestDeleteRejectsForeignLocators(t *testing.T) {
	s, err := NewS3Storage(Options{
		Endpoint:       "localhost:9000",
		Bucket:         "listings",
		PublicEndpoint: "https://pub.example.com",
	}, logger.NewNop())
	require.NoError(t, err)

	for _, loc := range []string{
		"bare.jpg",
		"https://cdn.other.net/x/other.jpg",
		"https://pub.example.com/",
		"https://pub.example.com/nested/key.jpg",
		"https://pub.example.com.evil.net/key.jpg",
	} {
		_, ok := s.keyFromLocator(loc)
		assert.False(t, ok, loc)
		// rejected before any request reaches the endpoint
		assert.ErrorIs(t, s.Delete(context.Background(), loc), ErrForeignLocator, loc)
	}
}

func TestLocatorFallsBackToEndpointAndBucket(t *testing.T) {
	s, err := NewS3Storage(Options{Endpoint: "localhost:9000", Bucket: "listings"}, logger.NewNop())
	require.NoError(t, err)

	loc := s.locatorFor("k.png")
	assert.Equal(t, "http://localhost:9000/listings/k.png", loc)
	key, ok := s.keyFromLocator(loc)
	assert.True(t, ok)
	assert.Equal(t, "k.png", key)
}
