package usecase

import (
	"testing"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRent(t *testing.T) {
	rent, err := parseRent(" 1200.50 ")
	require.NoError(t, err)
	assert.Equal(t, 1200.5, rent)

	for _, raw := range []string{"", "abc", "NaN", "+Inf", "-1", "0", "1e400"} {
		_, err := parseRent(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidType, raw)
	}
}

func TestValidateUpdate_AppliesOnlyProvidedFields(t *testing.T) {
	title := "Loft"
	rooms := "T5+"
	p, err := validateUpdate(UpdateListingInput{Title: &title, Rooms: &rooms})
	require.NoError(t, err)

	l := &domain.Listing{Title: "Flat", Description: "Nice", Rent: 500, Rooms: domain.RoomsT2, Location: "Lisbon", Status: domain.StatusAvailable}
	p.applyTo(l)

	assert.Equal(t, "Loft", l.Title)
	assert.Equal(t, domain.RoomsT5Plus, l.Rooms)
	assert.Equal(t, "Nice", l.Description)
	assert.Equal(t, 500.0, l.Rent)
	assert.Equal(t, domain.StatusAvailable, l.Status)

	title = "changed after validation"
	p.applyTo(l)
	assert.Equal(t, "Loft", l.Title)
}

func TestMembersToRemove(t *testing.T) {
	l := &domain.Listing{Media: []string{"a", "b c", "d"}}
	assert.Equal(t, []string{"a", "b c"}, membersToRemove(l, []string{"a", "b%20c", "zzz", "a", "b c"}))
	assert.Empty(t, membersToRemove(l, nil))
}

func TestResolveMember(t *testing.T) {
	l := &domain.Listing{Media: []string{"https://pub/1-a.png", "https://pub/2-b c.png"}}

	cases := map[string]string{
		"https://pub/1-a.png":     "https://pub/1-a.png",
		"https://pub/2-b%20c.png": "https://pub/2-b c.png",
		"1-a.png":                 "https://pub/1-a.png",
		"2-b%20c.png":             "https://pub/2-b c.png",
	}
	for in, want := range cases {
		got, ok := resolveMember(l, in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"a.png", "pub/1-a.png", "https://other/1-a.png", ""} {
		_, ok := resolveMember(l, in)
		assert.False(t, ok, in)
	}
	assert.Equal(t, []string{"https://pub/1-a.png"}, membersToRemove(l, []string{"1-a.png", "https://pub/1-a.png"}))
}

func TestWithoutLocators(t *testing.T) {
	assert.Equal(t, []string{"b", "d"}, withoutLocators([]string{"a", "b", "c", "d"}, []string{"c", "a", "x"}))
	assert.Equal(t, []string{}, withoutLocators(nil, []string{"a"}))
}
