// Package choices extracts bracketed answer markers such as "[Y] Yes" from
// approval prompt text.
//
// The filter is a heuristic: bracketed clock times ("[14:32:01]") and
// boolean literals ("[true]") are skipped because log lines and tool output
// share the prompt text. A genuine choice keyed like a timestamp is lost, and
// other bracketed log prefixes ("[INFO] started") are reported as choices.
package choices

import (
	"regexp"
	"strings"

	"github.com/ashureev/hauslink/internal/domain"
)

var (
	choiceLine  = regexp.MustCompile(`^\s*\[([^\]]+)\]\s*(.+)$`)
	clockTime   = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	booleanWord = regexp.MustCompile(`(?i)^(true|false)$`)
)

// Parse returns the choices found in text, in line order.
func Parse(text string) []domain.Choice {
	var out []domain.Choice
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		m := choiceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, label := m[1], strings.TrimSpace(m[2])
		if clockTime.MatchString(key) || booleanWord.MatchString(key) || label == "" {
			continue
		}
		out = append(out, domain.Choice{Key: key, Label: label})
	}
	return out
}
