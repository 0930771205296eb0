package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"visa-directory/internal/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Visa Co", "acme-visa-co"},
		{"  Acme   Visa -- Co. ", "acme-visa-co"},
		{"Zürich Einwanderung", "zurich-einwanderung"},
		{"São Paulo", "sao-paulo"},
		{"ＤＵＢＡＩ Marina", "dubai-marina"},
		{"A&B Documents Clearing L.L.C", "a-b-documents-clearing-l-l-c"},
		{"---", ""},
		{"مكتب التأشيرات", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acmevisaco", NormalizeName("Acme Visa Co."))
	assert.Equal(t, "acmevisaco", NormalizeName("acme-visa-co"))
	assert.Equal(t, "", NormalizeName(" - "))
}

func TestCanonicalSlug(t *testing.T) {
	tests := []struct {
		name     string
		business models.Business
		want     string
	}{
		{
			name:     "first comma segment of address",
			business: models.Business{ID: "1", Name: "Acme Visa Co", Address: "Business Bay, Dubai, UAE"},
			want:     "business-bay/acme-visa-co",
		},
		{
			name:     "missing address",
			business: models.Business{ID: "2", Name: "Acme Visa Co"},
			want:     "unknown/acme-visa-co",
		},
		{
			name:     "address starting with a comma",
			business: models.Business{ID: "3", Name: "Acme", Address: ", Dubai"},
			want:     "unknown/acme",
		},
		{
			name:     "name without latin characters uses id",
			business: models.Business{ID: "BIZ-77", Name: "مكتب التأشيرات", Address: "Deira"},
			want:     "deira/biz-77",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSlug(tt.business))
		})
	}
}

func TestCanonicalURL_Pure(t *testing.T) {
	b := models.Business{ID: "1", Name: "Gulf Visa Partners", Address: "Al Barsha, Dubai", Rating: models.Float64(4.2)}

	first := CanonicalURL("/businesses", b)
	second := CanonicalURL("/businesses", b)
	assert.Equal(t, first, second)
	assert.Equal(t, "/businesses/al-barsha/gulf-visa-partners", first)

	assert.Equal(t, first, CanonicalURL("/businesses/", b))
	assert.Equal(t, first, CanonicalURL("", b))

	b.Rating = models.Float64(1.0)
	b.ReviewCount = 900
	assert.Equal(t, first, CanonicalURL("/businesses", b), "display attributes do not affect the URL")
}
