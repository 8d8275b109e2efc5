// Package value coerces the dynamic payload of a condition into concrete Go
// values. Payloads arrive either from JSON decoding (float64, string, bool,
// []any, map[string]any) or from Go callers using native types.
package value

import (
	"encoding/json"
	"math"
	"reflect"
	"time"
)

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are within range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// GeoRadius is a circle around a point.
type GeoRadius struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radiusKm"`
}

// Valid reports whether the centre is in range and the radius positive.
func (g GeoRadius) Valid() bool {
	return GeoPoint{Lat: g.Lat, Lng: g.Lng}.Valid() && g.RadiusKm > 0
}

// DateLayout is the ISO-8601 calendar date layout.
const DateLayout = "2006-01-02"

// Float converts numeric payloads. Booleans and numeric strings are rejected.
func Float(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String returns v when it is a string.
func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Bool returns v when it is a boolean.
func Bool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// List flattens any slice or array payload into []any. Strings and maps are
// not lists.
func List(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 && rv.Kind() == reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Strings returns the elements of a list payload that are all strings.
func Strings(v any) ([]string, bool) {
	l, ok := List(v)
	if !ok {
		return nil, false
	}
	out := make([]string, len(l))
	for i, e := range l {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// Floats returns the elements of a list payload that are all numbers.
func Floats(v any) ([]float64, bool) {
	l, ok := List(v)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(l))
	for i, e := range l {
		f, ok := Float(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// Pair returns the two elements of a 2-tuple payload.
func Pair(v any) (any, any, bool) {
	l, ok := List(v)
	if !ok || len(l) != 2 {
		return nil, nil, false
	}
	return l[0], l[1], true
}

// NumberRange returns an ordered (min, max) pair.
func NumberRange(v any) (float64, float64, bool) {
	a, b, ok := Pair(v)
	if !ok {
		return 0, 0, false
	}
	lo, ok1 := Float(a)
	hi, ok2 := Float(b)
	if !ok1 || !ok2 || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// Date parses an ISO-8601 date or RFC 3339 timestamp.
func Date(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		if t, err := time.Parse(DateLayout, d); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateRange returns a chronologically ordered (from, to) pair.
func DateRange(v any) (time.Time, time.Time, bool) {
	a, b, ok := Pair(v)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	from, ok1 := Date(a)
	to, ok2 := Date(b)
	if !ok1 || !ok2 || to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Point decodes a {lat, lng} object.
func Point(v any) (GeoPoint, bool) {
	switch p := v.(type) {
	case GeoPoint:
		return p, true
	case *GeoPoint:
		if p == nil {
			return GeoPoint{}, false
		}
		return *p, true
	case GeoRadius:
		return GeoPoint{Lat: p.Lat, Lng: p.Lng}, true
	case map[string]any:
		lat, ok1 := Float(p["lat"])
		lng, ok2 := Float(p["lng"])
		if !ok1 || !ok2 {
			return GeoPoint{}, false
		}
		return GeoPoint{Lat: lat, Lng: lng}, true
	}
	return GeoPoint{}, false
}

// Radius decodes a {lat, lng, radiusKm} object.
func Radius(v any) (GeoRadius, bool) {
	switch r := v.(type) {
	case GeoRadius:
		return r, true
	case *GeoRadius:
		if r == nil {
			return GeoRadius{}, false
		}
		return *r, true
	case map[string]any:
		p, ok := Point(r)
		if !ok {
			return GeoRadius{}, false
		}
		km, ok := Float(r["radiusKm"])
		if !ok {
			return GeoRadius{}, false
		}
		return GeoRadius{Lat: p.Lat, Lng: p.Lng, RadiusKm: km}, true
	}
	return GeoRadius{}, false
}
