package profile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-directory/internal/models"
)

func records() []models.Business {
	return []models.Business{
		{ID: "30", Name: "Acme Visa Co", Address: "Business Bay, Dubai"},
		{ID: "12", Name: "Gulf Visa Partners", Address: "Al Barsha, Dubai"},
		{ID: "25", Name: "Acme Visa Co Sharjah", Address: "Al Nahda, Sharjah"},
		{ID: "07", Name: "Atlas Migration", Address: "Corniche, Abu Dhabi"},
	}
}

// ==========================
// Id lookups
// ==========================

func TestResolve_ByIDRedirectsToCanonical(t *testing.T) {
	r := NewResolver(records(), Options{})

	res, err := r.Resolve(Identifier{ID: "12"})
	require.NoError(t, err)
	assert.Equal(t, "Gulf Visa Partners", res.Business.Name)
	assert.True(t, res.Redirect)
	assert.Equal(t, StrategyID, res.Strategy)
	assert.Equal(t, "al-barsha/gulf-visa-partners", res.CanonicalSlug)
	assert.Equal(t, "/businesses/al-barsha/gulf-visa-partners", res.CanonicalURL)
}

func TestResolve_IDFallsBackToNameFragment(t *testing.T) {
	r := NewResolver(records(), Options{BasePath: "/directory"})

	res, err := r.Resolve(Identifier{ID: "atlas-migration"})
	require.NoError(t, err)
	assert.Equal(t, "07", res.Business.ID)
	assert.Equal(t, StrategyName, res.Strategy)
	assert.Equal(t, "/directory/corniche/atlas-migration", res.CanonicalURL)
}

// ==========================
// Slug lookups
// ==========================

func TestResolve_CanonicalSlugRendersInPlace(t *testing.T) {
	r := NewResolver(records(), Options{})

	res, err := r.Resolve(Identifier{LocationSlug: "business-bay", NameSlug: "acme-visa-co"})
	require.NoError(t, err)
	assert.Equal(t, "30", res.Business.ID)
	assert.False(t, res.Redirect)
	assert.Equal(t, StrategySlug, res.Strategy)
}

func TestResolve_NonCanonicalSpellingRedirects(t *testing.T) {
	tests := []struct {
		name     string
		location string
		nameSlug string
	}{
		{name: "mixed case", location: "Business-Bay", nameSlug: "ACME-VISA-CO"},
		{name: "upper case location only", location: "BUSINESS-BAY", nameSlug: "acme-visa-co"},
		{name: "padded", location: " business-bay", nameSlug: "acme-visa-co "},
	}
	r := NewResolver(records(), Options{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(Identifier{LocationSlug: tt.location, NameSlug: tt.nameSlug})
			require.NoError(t, err)
			assert.Equal(t, "30", res.Business.ID)
			assert.True(t, res.Redirect)
			assert.Equal(t, StrategySlug, res.Strategy)
			assert.Equal(t, "/businesses/business-bay/acme-visa-co", res.CanonicalURL)
		})
	}
}

func TestResolve_LegacyNameFragment(t *testing.T) {
	tests := []struct {
		name     string
		nameSlug string
		wantID   string
	}{
		{name: "exact normalized name wins over longer names", nameSlug: "acme_visa_co", wantID: "30"},
		{name: "fragment inside one name", nameSlug: "gulf-visa", wantID: "12"},
		{name: "name inside a longer fragment", nameSlug: "atlas-migration-abu-dhabi-office", wantID: "07"},
		{name: "ambiguous fragment picks smallest id", nameSlug: "acme", wantID: "25"},
	}
	r := NewResolver(records(), Options{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(Identifier{LocationSlug: "old-location", NameSlug: tt.nameSlug})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.Business.ID)
			assert.True(t, res.Redirect, "legacy links redirect to the canonical form")
			assert.Equal(t, StrategyName, res.Strategy)
		})
	}
}

// ==========================
// Not found / fallback
// ==========================

func TestResolve_NotFoundCarriesIdentifier(t *testing.T) {
	r := NewResolver(records(), Options{})

	_, err := r.Resolve(Identifier{LocationSlug: "riyadh", NameSlug: "nowhere-consulting"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProfileNotFound))

	var nf *ProfileNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "riyadh/nowhere-consulting", nf.Identifier)
}

func TestResolve_EmptyIdentifier(t *testing.T) {
	r := NewResolver(records(), Options{FallbackToFirst: true})

	_, err := r.Resolve(Identifier{})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	res, err := r.Resolve(Identifier{LocationSlug: "dubai", NameSlug: "---"})
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, res.Strategy)
}

func TestResolve_FallbackToSmallestID(t *testing.T) {
	r := NewResolver(records(), Options{FallbackToFirst: true})

	res, err := r.Resolve(Identifier{ID: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, "07", res.Business.ID)
	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.True(t, res.Redirect)
}

func TestResolve_EmptyRecordSet(t *testing.T) {
	r := NewResolver(nil, Options{FallbackToFirst: true})
	_, err := r.Resolve(Identifier{ID: "1"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

// ==========================
// Slug collisions
// ==========================

func twinRecords() []models.Business {
	return []models.Business{
		{ID: "b", Name: "Twin Visas", Address: "Deira, Dubai, Branch 2"},
		{ID: "a", Name: "Twin Visas", Address: "Deira, Dubai"},
		{ID: "c", Name: "Twin Visas!", Address: "Deira"},
	}
}

func TestResolve_CollidingSlugsGetOwnURLs(t *testing.T) {
	r := NewResolver(twinRecords(), Options{})

	want := map[string]string{
		"a": "/businesses/deira/twin-visas",
		"b": "/businesses/deira/twin-visas-b",
		"c": "/businesses/deira/twin-visas-c",
	}
	for id, url := range want {
		t.Run(id, func(t *testing.T) {
			byID, err := r.Resolve(Identifier{ID: id})
			require.NoError(t, err)
			assert.Equal(t, url, byID.CanonicalURL)
			assert.True(t, byID.Redirect)

			location, name, ok := strings.Cut(byID.CanonicalSlug, "/")
			require.True(t, ok)
			back, err := r.Resolve(Identifier{LocationSlug: location, NameSlug: name})
			require.NoError(t, err)
			assert.Equal(t, id, back.Business.ID)
			assert.False(t, back.Redirect, "the canonical URL renders in place")
			assert.Equal(t, url, r.CanonicalURL(back.Business))
		})
	}
}

func TestResolve_DisambiguatedSlugAvoidsTakenSlug(t *testing.T) {
	r := NewResolver([]models.Business{
		{ID: "a", Name: "Twin Visas", Address: "Deira"},
		{ID: "b", Name: "Twin Visas", Address: "Deira"},
		{ID: "z", Name: "Twin Visas B", Address: "Deira"},
	}, Options{})

	res, err := r.Resolve(Identifier{ID: "z"})
	require.NoError(t, err)
	assert.Equal(t, "deira/twin-visas-b", res.CanonicalSlug)

	res, err = r.Resolve(Identifier{ID: "b"})
	require.NoError(t, err)
	assert.Equal(t, "deira/twin-visas-b-2", res.CanonicalSlug)
}

func TestResolver_CanonicalURLOutsideRecordSet(t *testing.T) {
	r := NewResolver(twinRecords(), Options{})

	stranger := models.Business{ID: "b", Name: "Other Name", Address: "Karama"}
	assert.Equal(t, "/businesses/karama/other-name", r.CanonicalURL(stranger))
}

func TestIdentifier_String(t *testing.T) {
	assert.Equal(t, "42", Identifier{ID: "42"}.String())
	assert.Equal(t, "dubai/acme", Identifier{LocationSlug: "dubai", NameSlug: "acme"}.String())
	assert.Equal(t, "", Identifier{}.String())
}
