package domain

import (
	"strings"
	"time"
)

type Rooms string

const (
	RoomsT0     Rooms = "T0"
	RoomsT1     Rooms = "T1"
	RoomsT2     Rooms = "T2"
	RoomsT3     Rooms = "T3"
	RoomsT4     Rooms = "T4"
	RoomsT5Plus Rooms = "T5+"
)

func (r Rooms) IsValid() bool {
	switch r {
	case RoomsT0, RoomsT1, RoomsT2, RoomsT3, RoomsT4, RoomsT5Plus:
		return true
	}
	return false
}

type ListingStatus string

const (
	StatusAvailable   ListingStatus = "available"
	StatusUnavailable ListingStatus = "unavailable"
)

func (s ListingStatus) IsValid() bool {
	return s == StatusAvailable || s == StatusUnavailable
}

// Listing is a rental property advertised by its owner.
// Media holds the public locators of the objects uploaded for it, in upload order.
type Listing struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Rent        float64
	Rooms       Rooms
	Location    string
	Status      ListingStatus
	Media       []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l *Listing) IsOwnedBy(userID string) bool {
	return userID != "" && l.OwnerID == userID
}

func (l *Listing) HasMedia(locator string) bool {
	for _, m := range l.Media {
		if m == locator {
			return true
		}
	}
	return false
}

// MediaFile is an uploaded file waiting to be written to the object store.
type MediaFile struct {
	Data         []byte
	ContentType  string
	OriginalName string
}

// MediaFailure describes one object store operation that did not succeed.
type MediaFailure struct {
	Locator string
	Err     error
}

// CleanupIntent is a durable record of an object that still has to be removed from the store.
type CleanupIntent struct {
	ID            string
	Locator       string
	ListingID     string
	Reason        string
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
}

const (
	CleanupReasonOrphanedUpload = "orphaned_upload"
	CleanupReasonRemovalFailed  = "removal_failed"
	CleanupReasonDeleteFailed   = "listing_delete_failed"
)

var allowedMediaSubtypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {},
	"mp4": {}, "avi": {}, "mov": {}, "mkv": {}, "webm": {},
}

// IsAllowedMediaType checks the subtype of a declared content type ("image/png" -> "png")
// against the accepted image and video extensions.
func IsAllowedMediaType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	slash := strings.IndexByte(ct, '/')
	if slash < 0 {
		return false
	}
	_, ok := allowedMediaSubtypes[ct[slash+1:]]
	return ok
}
