package extdatetime_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/ext/extdatetime"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

func call(t *testing.T, def functions.CustomFunctionDef, args ...any) any {
	t.Helper()
	v, err := def.Call(context.Background(), args...)
	require.NoError(t, err, "#%s", def.Name)
	return v
}

func ms(year int, month time.Month, day, hour, minute, sec, milli int) float64 {
	return float64(time.Date(year, month, day, hour, minute, sec, milli*int(time.Millisecond), time.UTC).UnixMilli())
}

func TestMillis(t *testing.T) {
	before := float64(time.Now().UnixMilli())
	got := call(t, extdatetime.Millis()).(float64)
	after := float64(time.Now().UnixMilli())
	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestToMillis(t *testing.T) {
	assert.Equal(t, ms(2024, 3, 1, 12, 0, 0, 500), call(t, extdatetime.ToMillis(), "2024-03-01T12:00:00.5Z"))
	assert.Equal(t, ms(2024, 3, 1, 10, 0, 0, 0), call(t, extdatetime.ToMillis(), "2024-03-01T12:00:00+02:00"))
	assert.Equal(t, ms(2024, 3, 1, 0, 0, 0, 0), call(t, extdatetime.ToMillis(), "01/03/2024", "02/01/2006"))
}

func TestFromMillis(t *testing.T) {
	at := ms(2024, 7, 4, 9, 5, 0, 42)
	assert.Equal(t, "2024-07-04T09:05:00.042Z", call(t, extdatetime.FromMillis(), at))
	assert.Equal(t, "2024-07-04", call(t, extdatetime.FromMillis(), at, "2006-01-02"))
	assert.Equal(t, "11:05", call(t, extdatetime.FromMillis(), at, "15:04", "Europe/Rome"))
	assert.Equal(t, "2024-07-04T11:05:00.042+02:00", call(t, extdatetime.FromMillis(), at, nil, "Europe/Rome"))
}

func TestDateAdd(t *testing.T) {
	base := ms(2024, 1, 31, 10, 0, 0, 0)
	tests := []struct {
		amount float64
		unit   string
		want   float64
	}{
		{1, "year", ms(2025, 1, 31, 10, 0, 0, 0)},
		{1, "month", ms(2024, 3, 2, 10, 0, 0, 0)},
		{-31, "days", ms(2023, 12, 31, 10, 0, 0, 0)},
		{3, "hour", ms(2024, 1, 31, 13, 0, 0, 0)},
		{90, "minutes", ms(2024, 1, 31, 11, 30, 0, 0)},
		{-1, "second", ms(2024, 1, 31, 9, 59, 59, 0)},
		{250, "millisecond", ms(2024, 1, 31, 10, 0, 0, 250)},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, extdatetime.DateAdd(), base, tt.amount, tt.unit))
		})
	}
}

func TestDateDiff(t *testing.T) {
	from := ms(2024, 1, 31, 0, 0, 0, 0)
	tests := []struct {
		to   float64
		unit string
		want float64
	}{
		{ms(2024, 2, 29, 0, 0, 0, 0), "month", 0},
		{ms(2024, 2, 29, 0, 0, 0, 0), "day", 29},
		{ms(2024, 3, 31, 0, 0, 0, 0), "month", 2},
		{ms(2026, 1, 30, 0, 0, 0, 0), "year", 1},
		{ms(2026, 1, 31, 0, 0, 0, 0), "year", 2},
		{ms(2023, 12, 31, 0, 0, 0, 0), "month", -1},
		{ms(2024, 1, 31, 1, 30, 0, 0), "hour", 1},
		{ms(2024, 1, 30, 23, 0, 0, 0), "minutes", -60},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, extdatetime.DateDiff(), from, tt.to, tt.unit))
		})
	}
}

func TestDateComponents(t *testing.T) {
	at := ms(2024, 2, 29, 23, 30, 15, 7)
	got := call(t, extdatetime.DateComponents(), at)
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2024,"month":2,"day":29,"hour":23,"minute":30,"second":15,"millisecond":7,"weekday":4}`, string(b))

	local := call(t, extdatetime.DateComponents(), at, "Asia/Tokyo").(*types.Map)
	day, _ := local.Get("day")
	month, _ := local.Get("month")
	assert.Equal(t, 1.0, day)
	assert.Equal(t, 3.0, month)
}

func TestDateBoundaries(t *testing.T) {
	at := ms(2024, 2, 14, 13, 45, 30, 500)
	tests := []struct {
		unit       string
		start, end float64
	}{
		{"year", ms(2024, 1, 1, 0, 0, 0, 0), ms(2024, 12, 31, 23, 59, 59, 999)},
		{"month", ms(2024, 2, 1, 0, 0, 0, 0), ms(2024, 2, 29, 23, 59, 59, 999)},
		{"day", ms(2024, 2, 14, 0, 0, 0, 0), ms(2024, 2, 14, 23, 59, 59, 999)},
		{"hour", ms(2024, 2, 14, 13, 0, 0, 0), ms(2024, 2, 14, 13, 59, 59, 999)},
		{"second", ms(2024, 2, 14, 13, 45, 30, 0), ms(2024, 2, 14, 13, 45, 30, 999)},
		{"millisecond", at, at},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.start, call(t, extdatetime.DateStartOf(), at, tt.unit))
			assert.Equal(t, tt.end, call(t, extdatetime.DateEndOf(), at, tt.unit))
		})
	}
}

func TestDateErrors(t *testing.T) {
	tests := []struct {
		name string
		def  functions.CustomFunctionDef
		args []any
		code types.ErrorCode
	}{
		{"unit", extdatetime.DateAdd(), []any{0.0, 1.0, "fortnight"}, types.ErrInvalidArgument},
		{"fractional amount", extdatetime.DateAdd(), []any{0.0, 1.5, "day"}, types.ErrInvalidArgument},
		{"instant type", extdatetime.DateStartOf(), []any{"today", "day"}, types.ErrInvalidArgument},
		{"zone", extdatetime.DateComponents(), []any{0.0, "Mars/Olympus"}, types.ErrInvalidArgument},
		{"unparsable", extdatetime.ToMillis(), []any{"yesterday"}, types.ErrInvalidArgument},
		{"arity", extdatetime.DateAdd(), []any{0.0, 1.0}, types.ErrArgumentCountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Call(context.Background(), tt.args...)
			require.Error(t, err)
			code, _ := types.Code(err)
			assert.Equal(t, tt.code, code, err.Error())
		})
	}
}
