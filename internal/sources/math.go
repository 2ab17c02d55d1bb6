package sources

import (
	"context"
	"math"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// Math evaluates float functions at inputs where implementations are known
// to disagree in the last bits.
type Math struct {
	Host host.Provider
}

var _ signals.Source[signals.MathFingerprint] = (*Math)(nil)

func (s *Math) Name() string { return signals.NameMath }

func (s *Math) Measure(ctx context.Context) (signals.MathFingerprint, error) {
	f := s.Host.Math()

	unary := []struct {
		name string
		fn   func(float64) float64
		x    float64
	}{
		{"acos", f.Acos, 0.123124234234234242},
		{"acosh", f.Acosh, 1e308},
		{"asinh", f.Asinh, 1},
		{"atanh", f.Atanh, 0.5},
		{"atan", f.Atan, 0.5},
		{"sin", f.Sin, -1e300},
		{"sinh", f.Sinh, 1},
		{"cos", f.Cos, 10.000000000123},
		{"cosh", f.Cosh, 1},
		{"tan", f.Tan, -1e300},
		{"tanh", f.Tanh, 1},
		{"exp", f.Exp, 1},
		{"expm1", f.Expm1, 1},
		{"log1p", f.Log1p, 10},
	}

	values := make(map[string]float64, len(unary)+1)
	for _, u := range unary {
		if u.fn != nil {
			values[u.name] = u.fn(u.x)
		}
	}
	if f.Pow != nil {
		values["powPI"] = f.Pow(math.Pi, -100)
	}
	if len(values) == 0 {
		return signals.MathFingerprint{}, signals.ErrUnavailable
	}
	return signals.MathFingerprint{Values: values, Exact: f.Exact}, nil
}
