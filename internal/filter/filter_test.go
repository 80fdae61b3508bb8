package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"CityWatch/internal/domain"
)

func TestLooksLikeSpam(t *testing.T) {
	t.Parallel()

	f := New(20)

	cases := []struct {
		name string
		text string
		spam bool
	}{
		{"too short", "hi", true},
		{"advertising", "Promo code, 50% discount, order now, free delivery", true},
		{"two weak ad hits", "Huge discount today, big sale on everything in store", true},
		{"link spam", "look https://a.example https://b.example https://c.example wow", true},
		{"real complaint", "Big pothole on Lenina street 15, dangerous for cars", false},
		{"single weak hit passes", "The sale of the old depot left the yard full of debris", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.spam, f.LooksLikeSpam(tc.text))
		})
	}
}

func TestIsRelevant(t *testing.T) {
	t.Parallel()

	f := New(20)

	relevant := domain.ClassificationResult{Relevant: true, Category: "Roads"}
	assert.True(t, f.IsRelevant(relevant, "some text"))

	other := domain.ClassificationResult{Relevant: false, Category: domain.CategoryOther}
	assert.False(t, f.IsRelevant(other, "nice weather today in the park"))
	assert.True(t, f.IsRelevant(other, "the street light is broken again"),
		"complaint marker must rescue an unsure classification")
}
