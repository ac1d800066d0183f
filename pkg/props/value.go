package props

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CanonicalStringer is implemented by values that know their own launch-line
// spelling, such as capability descriptions.
type CanonicalStringer interface {
	CanonicalString() string
}

// Canonical renders v the way it is compared against defaults and written
// to the launch line. Integers, and floats with no fractional part, render
// as plain integers. A nil value renders as the empty string.
func Canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case CanonicalStringer:
		return x.CanonicalString()
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// shellCharacters force a value into double quotes.
const shellCharacters = "() ;"

// Quote wraps s in double quotes when it contains a character the launch
// notation or a shell would split on. Values already enclosed in matching
// single or double quotes are returned unchanged.
func Quote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s
		}
	}
	if !strings.ContainsAny(s, shellCharacters) {
		return s
	}
	return `"` + s + `"`
}

// Unquote strips one level of matching single or double quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
