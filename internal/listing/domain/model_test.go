package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRooms_IsValid(t *testing.T) {
	for _, r := range []Rooms{"T0", "T1", "T2", "T3", "T4", "T5+"} {
		assert.True(t, r.IsValid(), r)
	}
	for _, r := range []Rooms{"", "T5", "t1", "T6"} {
		assert.False(t, r.IsValid(), r)
	}
}

func TestListingStatus_IsValid(t *testing.T) {
	assert.True(t, StatusAvailable.IsValid())
	assert.True(t, StatusUnavailable.IsValid())
	assert.False(t, ListingStatus("sold").IsValid())
}

func TestIsAllowedMediaType(t *testing.T) {
	allowed := []string{"image/jpeg", "image/jpg", "image/png", "video/mp4", "video/webm", "video/mkv", "video/avi", "video/mov", "IMAGE/PNG", "image/png; charset=binary"}
	for _, ct := range allowed {
		assert.True(t, IsAllowedMediaType(ct), ct)
	}
	rejected := []string{"", "png", "image/gif", "application/pdf", "video/quicktime", "text/plain"}
	for _, ct := range rejected {
		assert.False(t, IsAllowedMediaType(ct), ct)
	}
}

func TestListing_Ownership(t *testing.T) {
	l := &Listing{OwnerID: "u1", Media: []string{"a", "b"}}
	assert.True(t, l.IsOwnedBy("u1"))
	assert.False(t, l.IsOwnedBy("u2"))
	assert.False(t, l.IsOwnedBy(""))
	assert.True(t, l.HasMedia("b"))
	assert.False(t, l.HasMedia("c"))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(fmt.Errorf("find: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(ErrTimeout))
	assert.False(t, IsTimeout(context.Canceled))
}
