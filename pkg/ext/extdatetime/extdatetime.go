// Package extdatetime provides date and time functions for gospel
// expressions.
//
// Instants are numbers of milliseconds since the Unix epoch. Calendar
// arithmetic happens in UTC unless a function takes a time zone.
package extdatetime

import (
	"context"
	"strings"
	"time"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all date and time function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Millis(),
		ToMillis(),
		FromMillis(),
		DateAdd(),
		DateDiff(),
		DateComponents(),
		DateStartOf(),
		DateEndOf(),
	}
}

// Millis returns the definition for #millis(): the current instant.
func Millis() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "millis",
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func(_ context.Context, _ ...any) (any, error) {
			return float64(time.Now().UnixMilli()), nil
		},
	}
}

// ToMillis returns the definition for #toMillis(str [, layout]). Without a
// layout str must be RFC 3339. Layouts use Go reference time notation.
func ToMillis() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "toMillis",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			s, err := extutil.String("toMillis", args, 0)
			if err != nil {
				return nil, err
			}
			layout, err := optionalString("toMillis", args, 1, time.RFC3339Nano)
			if err != nil {
				return nil, err
			}
			t, err := time.Parse(layout, s)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument,
					"#toMillis: cannot parse %s: %v", types.QuoteString(s), err).WithCause(err)
			}
			return float64(t.UnixMilli()), nil
		},
	}
}

// FromMillis returns the definition for #fromMillis(ms [, layout [, zone]]),
// formatting an instant. The default layout is RFC 3339 with milliseconds.
func FromMillis() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "fromMillis",
		MinArgs: 1,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			t, err := instant("fromMillis", args, 0)
			if err != nil {
				return nil, err
			}
			layout, err := optionalString("fromMillis", args, 1, "2006-01-02T15:04:05.000Z07:00")
			if err != nil {
				return nil, err
			}
			loc, err := location("fromMillis", args, 2)
			if err != nil {
				return nil, err
			}
			return t.In(loc).Format(layout), nil
		},
	}
}

// DateAdd returns the definition for #dateAdd(ms, amount, unit). Units are
// year, month, day, hour, minute, second and millisecond; a negative
// amount subtracts.
func DateAdd() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "dateAdd",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			t, err := instant("dateAdd", args, 0)
			if err != nil {
				return nil, err
			}
			n, err := extutil.Int("dateAdd", args, 1)
			if err != nil {
				return nil, err
			}
			unit, err := unitArg("dateAdd", args, 2)
			if err != nil {
				return nil, err
			}
			switch unit {
			case "year":
				t = t.AddDate(n, 0, 0)
			case "month":
				t = t.AddDate(0, n, 0)
			case "day":
				t = t.AddDate(0, 0, n)
			default:
				t = t.Add(time.Duration(n) * fixedUnits[unit])
			}
			return float64(t.UnixMilli()), nil
		},
	}
}

// DateDiff returns the definition for #dateDiff(from, to, unit): the number
// of whole units from from to to, negative when to is earlier.
func DateDiff() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "dateDiff",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			from, err := instant("dateDiff", args, 0)
			if err != nil {
				return nil, err
			}
			to, err := instant("dateDiff", args, 1)
			if err != nil {
				return nil, err
			}
			unit, err := unitArg("dateDiff", args, 2)
			if err != nil {
				return nil, err
			}
			switch unit {
			case "year":
				return float64(wholeMonths(from, to) / 12), nil
			case "month":
				return float64(wholeMonths(from, to)), nil
			case "day":
				return float64(to.Sub(from) / (24 * time.Hour)), nil
			}
			return float64(to.Sub(from) / fixedUnits[unit]), nil
		},
	}
}

// DateComponents returns the definition for #dateComponents(ms [, zone]):
// a map of year, month, day, hour, minute, second, millisecond and weekday
// (0 is Sunday).
func DateComponents() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "dateComponents",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			t, err := instant("dateComponents", args, 0)
			if err != nil {
				return nil, err
			}
			loc, err := location("dateComponents", args, 1)
			if err != nil {
				return nil, err
			}
			t = t.In(loc)
			return types.MapOf(
				"year", float64(t.Year()),
				"month", float64(t.Month()),
				"day", float64(t.Day()),
				"hour", float64(t.Hour()),
				"minute", float64(t.Minute()),
				"second", float64(t.Second()),
				"millisecond", float64(t.Nanosecond()/int(time.Millisecond)),
				"weekday", float64(t.Weekday()),
			), nil
		},
	}
}

// DateStartOf returns the definition for #dateStartOf(ms, unit), the first
// millisecond of the enclosing UTC unit.
func DateStartOf() functions.CustomFunctionDef {
	return boundary("dateStartOf", func(t time.Time, unit string) time.Time {
		return startOf(t, unit)
	})
}

// DateEndOf returns the definition for #dateEndOf(ms, unit), the last
// millisecond of the enclosing UTC unit.
func DateEndOf() functions.CustomFunctionDef {
	return boundary("dateEndOf", func(t time.Time, unit string) time.Time {
		start := startOf(t, unit)
		var next time.Time
		switch unit {
		case "year":
			next = start.AddDate(1, 0, 0)
		case "month":
			next = start.AddDate(0, 1, 0)
		case "day":
			next = start.AddDate(0, 0, 1)
		default:
			next = start.Add(fixedUnits[unit])
		}
		return next.Add(-time.Millisecond)
	})
}

func boundary(name string, fn func(time.Time, string) time.Time) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			t, err := instant(name, args, 0)
			if err != nil {
				return nil, err
			}
			unit, err := unitArg(name, args, 1)
			if err != nil {
				return nil, err
			}
			if unit == "millisecond" {
				return float64(t.UnixMilli()), nil
			}
			return float64(fn(t, unit).UnixMilli()), nil
		},
	}
}

func startOf(t time.Time, unit string) time.Time {
	switch unit {
	case "year":
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.Truncate(fixedUnits[unit])
}

var fixedUnits = map[string]time.Duration{
	"hour":        time.Hour,
	"minute":      time.Minute,
	"second":      time.Second,
	"millisecond": time.Millisecond,
}

func unitArg(fn string, args []any, i int) (string, error) {
	s, err := extutil.String(fn, args, i)
	if err != nil {
		return "", err
	}
	unit := strings.TrimSuffix(strings.ToLower(s), "s")
	switch unit {
	case "year", "month", "day", "hour", "minute", "second", "millisecond":
		return unit, nil
	}
	return "", types.Errorf(types.ErrInvalidArgument, "#%s: unsupported unit %s", fn, types.QuoteString(s))
}

func instant(fn string, args []any, i int) (time.Time, error) {
	ms, err := extutil.Number(fn, args, i)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

func optionalString(fn string, args []any, i int, def string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	return extutil.String(fn, args, i)
}

func location(fn string, args []any, i int) (*time.Location, error) {
	name, err := optionalString(fn, args, i, "UTC")
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidArgument,
			"#%s: unknown time zone %s", fn, types.QuoteString(name)).WithCause(err)
	}
	return loc, nil
}

// wholeMonths counts complete calendar months from a to b.
func wholeMonths(a, b time.Time) int {
	sign := 1
	if b.Before(a) {
		a, b = b, a
		sign = -1
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if months > 0 && a.AddDate(0, months, 0).After(b) {
		months--
	}
	return sign * months
}
