package game

import (
	"math"
	"regexp"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,16}$`)
	hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func ValidNickname(s string) bool {
	return nicknameRe.MatchString(s)
}

// OptionsUpdate is a partial game options change. Nil fields are left
// untouched.
type OptionsUpdate struct {
	Colors     []string
	DucksCount *float64
}

// NormalizeColors validates a palette and returns it in canonical
// lowercase #rrggbb form.
func NormalizeColors(colors []string) ([]string, bool) {
	if len(colors) < MinColors || len(colors) > MaxColors {
		return nil, false
	}
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		if !hexColorRe.MatchString(c) {
			return nil, false
		}
		parsed, err := colorful.Hex(c)
		if err != nil {
			return nil, false
		}
		out = append(out, parsed.Hex())
	}
	return out, true
}

// ApplyOptions applies every valid field of u and ignores the invalid ones.
// It reports whether anything changed.
func (s *State) ApplyOptions(u OptionsUpdate) bool {
	changed := false
	if u.Colors != nil {
		if colors, ok := NormalizeColors(u.Colors); ok && !sameColors(colors, s.Options.Colors) {
			s.Options.Colors = colors
			changed = true
		}
	}
	if u.DucksCount != nil {
		n := *u.DucksCount
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			count := int(clamp(math.Round(n), MinDucksPerColor, MaxDucksPerColor))
			if count != s.Options.DucksCount {
				s.Options.DucksCount = count
				changed = true
			}
		}
	}
	return changed
}

func sameColors(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
