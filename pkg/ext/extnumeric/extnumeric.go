// Package extnumeric provides numeric and statistical functions for gospel
// expressions.
package extnumeric

import (
	"context"
	"math"
	"sort"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all numeric function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Abs(),
		Floor(),
		Ceil(),
		Round(),
		Sqrt(),
		Trunc(),
		Sign(),
		Log(),
		Clamp(),
		Sum(),
		Avg(),
		Min(),
		Max(),
		Median(),
		Variance(),
		Stddev(),
		Percentile(),
	}
}

func mathFunc1(name string, fn func(float64) float64) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := extutil.Number(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(n), nil
		},
	}
}

// Abs returns the definition for #abs(n).
func Abs() functions.CustomFunctionDef { return mathFunc1("abs", math.Abs) }

// Floor returns the definition for #floor(n).
func Floor() functions.CustomFunctionDef { return mathFunc1("floor", math.Floor) }

// Ceil returns the definition for #ceil(n).
func Ceil() functions.CustomFunctionDef { return mathFunc1("ceil", math.Ceil) }

// Sqrt returns the definition for #sqrt(n).
func Sqrt() functions.CustomFunctionDef { return mathFunc1("sqrt", math.Sqrt) }

// Trunc returns the definition for #trunc(n). Truncates toward zero.
func Trunc() functions.CustomFunctionDef { return mathFunc1("trunc", math.Trunc) }

// Sign returns the definition for #sign(n): -1, 0 or 1.
func Sign() functions.CustomFunctionDef {
	return mathFunc1("sign", func(n float64) float64 {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		}
		return 0
	})
}

// Round returns the definition for #round(n [, precision]).
// Halves round away from zero.
func Round() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "round",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := extutil.Number("round", args, 0)
			if err != nil {
				return nil, err
			}
			precision, err := extutil.OptionalInt("round", args, 1, 0)
			if err != nil {
				return nil, err
			}
			scale := math.Pow(10, float64(precision))
			return math.Round(n*scale) / scale, nil
		},
	}
}

// Log returns the definition for #log(n [, base]).
// Without base, returns the natural logarithm.
func Log() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "log",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := extutil.Number("log", args, 0)
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, types.Errorf(types.ErrInvalidArgument, "#log: argument must be positive")
			}
			if len(args) >= 2 && args[1] != nil {
				base, err := extutil.Number("log", args, 1)
				if err != nil {
					return nil, err
				}
				if base <= 0 || base == 1 {
					return nil, types.Errorf(types.ErrInvalidArgument, "#log: base must be positive and not 1")
				}
				return math.Log(n) / math.Log(base), nil
			}
			return math.Log(n), nil
		},
	}
}

// Clamp returns the definition for #clamp(n, lo, hi).
func Clamp() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "clamp",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			var v [3]float64
			for i := range v {
				n, err := extutil.Number("clamp", args, i)
				if err != nil {
					return nil, err
				}
				v[i] = n
			}
			return math.Max(v[1], math.Min(v[0], v[2])), nil
		},
	}
}

// aggregate builds a function over a list of numbers. An empty list
// yields null.
func aggregate(name string, fn func([]float64) float64) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List(name, args, 0)
			if err != nil {
				return nil, err
			}
			nums, err := extutil.Numbers(name, list)
			if err != nil {
				return nil, err
			}
			if len(nums) == 0 {
				return nil, nil
			}
			return fn(nums), nil
		},
	}
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}

func mean(nums []float64) float64 { return sum(nums) / float64(len(nums)) }

func variance(nums []float64) float64 {
	m := mean(nums)
	v := 0.0
	for _, n := range nums {
		d := n - m
		v += d * d
	}
	return v / float64(len(nums))
}

// Sum returns the definition for #sum(list). The sum of an empty list is 0.
func Sum() functions.CustomFunctionDef {
	def := aggregate("sum", sum)
	inner := def.Fn
	def.Fn = func(ctx context.Context, args ...any) (any, error) {
		v, err := inner(ctx, args...)
		if err == nil && v == nil {
			return 0.0, nil
		}
		return v, err
	}
	return def
}

// Avg returns the definition for #avg(list).
func Avg() functions.CustomFunctionDef { return aggregate("avg", mean) }

// Min returns the definition for #min(list).
func Min() functions.CustomFunctionDef {
	return aggregate("min", func(nums []float64) float64 {
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Min(m, n)
		}
		return m
	})
}

// Max returns the definition for #max(list).
func Max() functions.CustomFunctionDef {
	return aggregate("max", func(nums []float64) float64 {
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Max(m, n)
		}
		return m
	})
}

// Median returns the definition for #median(list).
func Median() functions.CustomFunctionDef {
	return aggregate("median", func(nums []float64) float64 {
		return percentile(nums, 50)
	})
}

// Variance returns the definition for #variance(list) (population variance).
func Variance() functions.CustomFunctionDef { return aggregate("variance", variance) }

// Stddev returns the definition for #stddev(list) (population standard deviation).
func Stddev() functions.CustomFunctionDef {
	return aggregate("stddev", func(nums []float64) float64 {
		return math.Sqrt(variance(nums))
	})
}

// Percentile returns the definition for #percentile(list, p), p in [0, 100],
// with linear interpolation between ranks.
func Percentile() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "percentile",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List("percentile", args, 0)
			if err != nil {
				return nil, err
			}
			nums, err := extutil.Numbers("percentile", list)
			if err != nil {
				return nil, err
			}
			p, err := extutil.Number("percentile", args, 1)
			if err != nil {
				return nil, err
			}
			if p < 0 || p > 100 {
				return nil, types.Errorf(types.ErrInvalidArgument, "#percentile: p must be between 0 and 100")
			}
			if len(nums) == 0 {
				return nil, nil
			}
			return percentile(nums, p), nil
		},
	}
}

func percentile(nums []float64, p float64) float64 {
	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)
	idx := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
