package anchor

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"anchorprint/internal/signals"
)

// NormalizeString applies NFC, collapses whitespace, trims and lower-cases s.
// An empty result is absent.
func NormalizeString(s string) signals.Optional[string] {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if s == "" {
		return signals.None[string]()
	}
	// A Caser is stateful and must not be shared between goroutines.
	return signals.Some(cases.Lower(language.Und).String(s))
}

// Renderer strings carry driver details that change with driver updates.
// Each pattern keeps group 1 and group 2 and drops what lies between them.
var rendererNoise = []string{
	// PCI device ids: "geforce gtx 1050 ti (0x00001c82)"
	`^(.*?)\s*\(0x[0-9a-f]{4,8}\)(.*)$`,
	// Direct3D shader models: "direct3d11 vs_5_0 ps_5_0"
	`^(.*?)\s+direct3d\d+\s+vs_\d_\d\s+ps_\d_\d(.*)$`,
	// ANGLE backend with driver version: ", d3d11-27.21.14.5671)"
	`^(.*?),\s*d3d\d+(?:-[0-9.]+)?(\)?)$`,
}

var (
	rendererPatterns     []*pcre.Regexp
	rendererPatternsOnce sync.Once
)

func compiledRendererPatterns() []*pcre.Regexp {
	rendererPatternsOnce.Do(func() {
		for _, p := range rendererNoise {
			re, err := pcre.Compile(p)
			if err != nil {
				continue
			}
			rendererPatterns = append(rendererPatterns, re)
		}
	})
	return rendererPatterns
}

// NormalizeRenderer normalizes a renderer string and strips driver noise.
func NormalizeRenderer(s string) signals.Optional[string] {
	v, ok := NormalizeString(s).Get()
	if !ok {
		return signals.None[string]()
	}
	for _, re := range compiledRendererPatterns() {
		if m := re.FindStringSubmatch(v); len(m) == 3 {
			v = m[1] + m[2]
		}
	}
	return NormalizeString(v)
}

// RoundSignificant rounds x to the given number of significant decimal
// digits. Non-finite values and non-positive digit counts pass through.
func RoundSignificant(x float64, digits int) float64 {
	if digits <= 0 || x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'g', digits, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// log2Class returns round(log2(x)) for positive finite x.
func log2Class(x float64) (int, bool) {
	if !finite(x) || x <= 0 {
		return 0, false
	}
	return int(math.Round(math.Log2(x))), true
}
