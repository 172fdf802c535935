package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
)

// CreateListingInput carries the raw form values of a new listing.
type CreateListingInput struct {
	Title       string
	Description string
	Rent        string
	Rooms       string
	Location    string
	Status      string
	Media       []domain.MediaFile
}

// UpdateListingInput is a partial update. Nil fields are left unchanged.
type UpdateListingInput struct {
	Title        *string
	Description  *string
	Rent         *string
	Rooms        *string
	Location     *string
	Status       *string
	ImagesRemove []string
	Media        []domain.MediaFile
}

func validateCreate(in CreateListingInput) (*domain.Listing, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"rent", in.Rent},
		{"rooms", in.Rooms},
		{"location", in.Location},
		{"status", in.Status},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
	}

	rent, err := parseRent(in.Rent)
	if err != nil {
		return nil, err
	}

	rooms := domain.Rooms(in.Rooms)
	if !rooms.IsValid() {
		return nil, fmt.Errorf("%w: rooms %q", domain.ErrInvalidEnum, in.Rooms)
	}
	status := domain.ListingStatus(in.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidEnum, in.Status)
	}

	if len(in.Media) == 0 {
		return nil, domain.ErrNoMedia
	}
	if err := validateMediaTypes(in.Media); err != nil {
		return nil, err
	}

	return &domain.Listing{
		Title:       in.Title,
		Description: in.Description,
		Rent:        rent,
		Rooms:       rooms,
		Location:    in.Location,
		Status:      status,
	}, nil
}

// listingPatch is a validated UpdateListingInput.
type listingPatch struct {
	title       *string
	description *string
	rent        *float64
	rooms       *domain.Rooms
	location    *string
	status      *domain.ListingStatus
}

func validateUpdate(in UpdateListingInput) (*listingPatch, error) {
	p := &listingPatch{}

	for _, f := range []struct {
		name string
		src  *string
		dst  **string
	}{
		{"title", in.Title, &p.title},
		{"description", in.Description, &p.description},
		{"location", in.Location, &p.location},
	} {
		if f.src == nil {
			continue
		}
		if strings.TrimSpace(*f.src) == "" {
			return nil, fmt.Errorf("%w: %s must be a non-empty string", domain.ErrInvalidType, f.name)
		}
		v := *f.src
		*f.dst = &v
	}

	if in.Rent != nil {
		rent, err := parseRent(*in.Rent)
		if err != nil {
			return nil, err
		}
		p.rent = &rent
	}

	if in.Rooms != nil {
		rooms := domain.Rooms(*in.Rooms)
		if !rooms.IsValid() {
			return nil, fmt.Errorf("%w: rooms %q", domain.ErrInvalidEnum, *in.Rooms)
		}
		p.rooms = &rooms
	}
	if in.Status != nil {
		status := domain.ListingStatus(*in.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidEnum, *in.Status)
		}
		p.status = &status
	}

	if err := validateMediaTypes(in.Media); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *listingPatch) applyTo(l *domain.Listing) {
	if p.title != nil {
		l.Title = *p.title
	}
	if p.description != nil {
		l.Description = *p.description
	}
	if p.rent != nil {
		l.Rent = *p.rent
	}
	if p.rooms != nil {
		l.Rooms = *p.rooms
	}
	if p.location != nil {
		l.Location = *p.location
	}
	if p.status != nil {
		l.Status = *p.status
	}
}

func parseRent(raw string) (float64, error) {
	rent, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(rent) || math.IsInf(rent, 0) {
		return 0, fmt.Errorf("%w: rent %q is not a finite number", domain.ErrInvalidType, raw)
	}
	if rent <= 0 {
		return 0, fmt.Errorf("%w: rent must be positive", domain.ErrInvalidType)
	}
	return rent, nil
}

func validateMediaTypes(files []domain.MediaFile) error {
	for _, f := range files {
		if !domain.IsAllowedMediaType(f.ContentType) {
			return fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedMediaType, f.OriginalName, f.ContentType)
		}
	}
	return nil
}
