package highlight

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

var rgbRe = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*[\d.]+\s*)?\)$`)

// parseColor understands the hex and rgb()/rgba() forms hosts put into
// inline styles. ok is false for anything else, named colors included.
func parseColor(s string) (colorful.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		if len(s) == 4 {
			s = "#" + strings.Repeat(string(s[1]), 2) + strings.Repeat(string(s[2]), 2) + strings.Repeat(string(s[3]), 2)
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, false
		}
		return c, true
	}
	if m := rgbRe.FindStringSubmatch(s); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		if r > 255 || g > 255 || b > 255 {
			return colorful.Color{}, false
		}
		return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, true
	}
	return colorful.Color{}, false
}

// sameColor is the style-equality predicate behind flatten and merge: two
// markers match when their inline background colors name the same color,
// even through different spellings such as "#ff0000" and "rgb(255, 0, 0)".
// Unparseable values fall back to case-insensitive string comparison.
func sameColor(a, b *html.Node) bool {
	ca := dom.BackgroundColor(a)
	cb := dom.BackgroundColor(b)
	pa, oka := parseColor(ca)
	pb, okb := parseColor(cb)
	if oka && okb {
		return pa.AlmostEqualRgb(pb)
	}
	return strings.EqualFold(ca, cb)
}
