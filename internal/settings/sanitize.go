package settings

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Sanitize turns untrusted input into a well-formed record: days_inactive is
// coerced to an integer and clamped to [1, 365], the flags are coerced to
// strict booleans, unknown keys are dropped and missing keys take defaults.
// Sanitize(Sanitize(x)) equals Sanitize(x).
//
// Accepted inputs: map[string]any, map[string]string, Settings, *Settings, nil.
func Sanitize(input any) map[string]any {
	out := Defaults().Map()

	var in map[string]any
	switch v := input.(type) {
	case Settings:
		in = v.Map()
	case *Settings:
		if v != nil {
			in = v.Map()
		}
	default:
		in, _ = asMap(input)
	}

	for _, key := range Keys() {
		if raw, ok := in[key]; ok && raw != nil {
			out[key] = sanitizeValue(key, raw)
		}
	}
	return out
}

func sanitizeValue(key string, v any) any {
	switch key {
	case KeyDaysInactive:
		if v == nil {
			return DefaultDaysInactive
		}
		return clampDays(toInt(v))
	case KeySendEmails, KeyNotifyAdmin:
		if v == nil {
			return defaultFor(key)
		}
		return truthy(v)
	}
	return v
}

func clampDays(n int64) int {
	return int(max(MinDaysInactive, min(MaxDaysInactive, n)))
}

// asMap accepts any string-keyed map (YAML and JSON decoders produce different ones).
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// toInt coerces like a lenient integer cast: leading integer of a string,
// truncation of floats, 1/0 for booleans, 0 for anything else. Out-of-range
// values saturate.
func toInt(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(n).Uint()
		if u > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(u)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		return leadingInt(n)
	}
	return 0
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		// "1e3", "12.9" и т.п. разбираем как число с плавающей точкой
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0
	}
	if end < len(s) && (s[end] == '.' || s[end] == 'e' || s[end] == 'E') {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if strings.HasPrefix(s, "-") {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return n
}

// truthy coerces to a strict boolean. Empty values and "0" are false, as are
// the words "false", "off" and "no" submitted by CLIs and JSON clients.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "", "0", "false", "off", "no":
			return false
		}
		return true
	case nil:
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
