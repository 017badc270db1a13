package choices

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/ashureev/hauslink/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []domain.Choice
	}{
		{"yes", "[Y] Yes", []domain.Choice{{Key: "Y", Label: "Yes"}}},
		{"numeric", "[1] Option one", []domain.Choice{{Key: "1", Label: "Option one"}}},
		{"timestamp", "[14:32:01] started", nil},
		{"boolean", "[true] confirm", nil},
		{"boolean upper", "[FALSE] nope", nil},
		{"indented", "   [n]   No, and tell Claude   ", []domain.Choice{{Key: "n", Label: "No, and tell Claude"}}},
		{"no label", "[Y]", nil},
		{"label only spaces", "[Y]    ", nil},
		{"bracket mid line", "press [Y] Yes", nil},
		{"empty", "", nil},
		{
			name: "mixed prompt",
			text: "[12:00:00] tool requested\r\nDo you want to proceed?\r\n[1] Yes\n[2] Yes, and don't ask again\n[enabled] true\n[true] ignored\n[3] No",
			want: []domain.Choice{
				{Key: "1", Label: "Yes"},
				{Key: "2", Label: "Yes, and don't ask again"},
				{Key: "enabled", Label: "true"},
				{Key: "3", Label: "No"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

// Bracketed log prefixes other than clock times are reported as choices.
func TestParse_KnownLimitation(t *testing.T) {
	assert.Equal(t, []domain.Choice{{Key: "INFO", Label: "started"}}, Parse("[INFO] started"))
	assert.Nil(t, Parse("[09:15:00] Accept"))
}

func TestParseProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("[key] label round-trips", prop.ForAll(
		func(key, label string) bool {
			got := Parse(fmt.Sprintf("[%s] %s", key, label))
			if strings.EqualFold(key, "true") || strings.EqualFold(key, "false") {
				return len(got) == 0
			}
			return len(got) == 1 && got[0].Key == key && got[0].Label == label
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.Property("clock times never become choices", prop.ForAll(
		func(h, m, s int, label string) bool {
			return len(Parse(fmt.Sprintf("[%02d:%02d:%02d] %s", h, m, s, label))) == 0
		},
		gen.IntRange(0, 99),
		gen.IntRange(0, 99),
		gen.IntRange(0, 99),
		gen.Identifier(),
	))

	properties.Property("one choice per matching line", prop.ForAll(
		func(keys []string) bool {
			var b strings.Builder
			for i, k := range keys {
				fmt.Fprintf(&b, "[%s] option %d\n", k, i)
			}
			got := Parse(b.String())
			if len(got) != len(keys) {
				return false
			}
			for i := range keys {
				if got[i].Key != keys[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99999).Map(func(n int) string { return strconv.Itoa(n) })),
	))

	properties.TestingRun(t)
}
