package convert

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
	"github.com/twpayne/go-geom"
	"github.com/untillpro/goutils/logger"
)

// Policy controls what happens when an optional property's value fails
// coercion. Required properties always fail the run.
type Policy string

const (
	// PolicyWarn nulls the offending value and logs a warning.
	PolicyWarn Policy = "warn"
	// PolicyFail aborts the run on any coercion failure.
	PolicyFail Policy = "fail"
)

// coerceTable converts every column to its schema-declared type.
// Coercion is idempotent: feeding an already-coerced table through
// again changes nothing.
func coerceTable(t *table.Table, resolved *schema.Resolved, policy Policy) error {
	if err := resolved.Covers(t.Names()); err != nil {
		return configErrorf("%v", err)
	}

	for _, name := range t.Names() {
		prop := resolved.Properties[name]
		required := resolved.IsRequired(name)
		values, _ := t.Column(name)

		coerced := make([]any, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			cv, err := coerceValue(v, prop)
			if err != nil {
				if required || policy == PolicyFail {
					return coercionErrorf("column %q, row %d: %v", name, i, err)
				}
				logger.Warning(fmt.Sprintf("column %q, row %d: %v; value set to null", name, i, err))
				continue
			}
			coerced[i] = cv
		}

		if required {
			for i, v := range coerced {
				if v == nil {
					return coercionErrorf("required property %q is null at row %d", name, i)
				}
			}
		}
		if err := t.SetColumn(name, coerced); err != nil {
			return err
		}
	}
	return nil
}

func coerceValue(v any, prop *schema.Property) (any, error) {
	switch {
	case prop.Type == schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			// Boolean encodings vary too much across sources to guess
			// here; a column migration must have mapped them already.
			return nil, fmt.Errorf("value %v is not a boolean", v)
		}
		return b, nil
	case prop.Type.IsInteger():
		return coerceInteger(v, prop)
	case prop.Type == schema.TypeFloat || prop.Type == schema.TypeDouble:
		return coerceFloat(v, prop)
	case prop.Type == schema.TypeString:
		return coerceString(v, prop)
	case prop.Type == schema.TypeDate || prop.Type == schema.TypeDateTime:
		return coerceTemporal(v, prop)
	case prop.Type == schema.TypeArray:
		return coerceArray(v, prop)
	case prop.Type == schema.TypeGeometry:
		g, ok := v.(geom.T)
		if !ok {
			return nil, fmt.Errorf("value of type %T is not a geometry", v)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported schema type %q", prop.Type)
	}
}

// integerBounds gives the representable range per fixed-width type.
// uint64 is capped at the int64 maximum since coerced integers are
// carried as int64 internally.
var integerBounds = map[schema.Type][2]int64{
	schema.TypeInt8:   {math.MinInt8, math.MaxInt8},
	schema.TypeUint8:  {0, math.MaxUint8},
	schema.TypeInt16:  {math.MinInt16, math.MaxInt16},
	schema.TypeUint16: {0, math.MaxUint16},
	schema.TypeInt32:  {math.MinInt32, math.MaxInt32},
	schema.TypeUint32: {0, math.MaxUint32},
	schema.TypeInt64:  {math.MinInt64, math.MaxInt64},
	schema.TypeUint64: {0, math.MaxInt64},
}

func coerceInteger(v any, prop *schema.Property) (any, error) {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int16:
		n = int64(x)
	case int8:
		n = int64(x)
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("value %v is not an integer", x)
		}
		// Reject before converting: int64(x) is undefined for values
		// outside the int64 range. float64(MaxInt64) rounds up to 2^63,
		// so the upper bound is exclusive.
		if x < math.MinInt64 || x >= math.MaxInt64 {
			return nil, fmt.Errorf("value %v overflows %s", x, prop.Type)
		}
		n = int64(x)
	case float32:
		return coerceInteger(float64(x), prop)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", x)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("cannot convert %T to %s", v, prop.Type)
	}

	bounds := integerBounds[prop.Type]
	if n < bounds[0] || n > bounds[1] {
		return nil, fmt.Errorf("value %d overflows %s", n, prop.Type)
	}
	if err := checkRange(float64(n), prop); err != nil {
		return nil, err
	}
	return n, nil
}

func coerceFloat(v any, prop *schema.Property) (any, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", x)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("cannot convert %T to %s", v, prop.Type)
	}
	if err := checkRange(f, prop); err != nil {
		return nil, err
	}
	return f, nil
}

func checkRange(f float64, prop *schema.Property) error {
	if prop.Minimum != nil && f < *prop.Minimum {
		return fmt.Errorf("value %v is below minimum %v", f, *prop.Minimum)
	}
	if prop.Maximum != nil && f > *prop.Maximum {
		return fmt.Errorf("value %v exceeds maximum %v", f, *prop.Maximum)
	}
	if prop.ExclusiveMinimum != nil && f <= *prop.ExclusiveMinimum {
		return fmt.Errorf("value %v is not above exclusive minimum %v", f, *prop.ExclusiveMinimum)
	}
	if prop.ExclusiveMaximum != nil && f >= *prop.ExclusiveMaximum {
		return fmt.Errorf("value %v is not below exclusive maximum %v", f, *prop.ExclusiveMaximum)
	}
	return nil
}

func coerceString(v any, prop *schema.Property) (any, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case int64:
		s = strconv.FormatInt(x, 10)
	case int:
		s = strconv.Itoa(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil, fmt.Errorf("cannot convert %T to string", v)
	}
	if err := checkString(s, prop); err != nil {
		return nil, err
	}
	return s, nil
}

func checkString(s string, prop *schema.Property) error {
	// Length facets count characters, not bytes.
	length := utf8.RuneCountInString(s)
	if prop.MinLength != nil && length < *prop.MinLength {
		return fmt.Errorf("value %q is shorter than %d characters", s, *prop.MinLength)
	}
	if prop.MaxLength != nil && length > *prop.MaxLength {
		return fmt.Errorf("value %q is longer than %d characters", s, *prop.MaxLength)
	}
	if prop.Pattern != "" {
		re, err := compilePattern(prop.Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %v", prop.Pattern, err)
		}
		if !re.MatchString(s) {
			return fmt.Errorf("value %q does not match pattern %q", s, prop.Pattern)
		}
	}
	if len(prop.Enum) > 0 && !slices.Contains(prop.Enum, s) {
		return fmt.Errorf("value %q is not one of %v", s, prop.Enum)
	}
	return nil
}

func coerceTemporal(v any, prop *schema.Property) (any, error) {
	var ts time.Time
	switch x := v.(type) {
	case time.Time:
		ts = x
	case string:
		layout := time.RFC3339
		if prop.Type == schema.TypeDate {
			layout = time.DateOnly
		}
		parsed, err := time.Parse(layout, x)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid %s", x, prop.Type)
		}
		ts = parsed
	default:
		return nil, fmt.Errorf("cannot convert %T to %s", v, prop.Type)
	}
	ts = ts.UTC()
	if prop.Type == schema.TypeDate {
		ts = ts.Truncate(24 * time.Hour)
	}
	return ts, nil
}

func coerceArray(v any, prop *schema.Property) (any, error) {
	if prop.Items == nil || prop.Items.Type != schema.TypeString {
		return nil, fmt.Errorf("unsupported array item type")
	}
	var elems []string
	switch x := v.(type) {
	case []string:
		elems = x
	case []any:
		elems = make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("array element %d is %T, not a string", i, e)
			}
			elems[i] = s
		}
	default:
		return nil, fmt.Errorf("cannot convert %T to array", v)
	}
	for i, e := range elems {
		if err := checkString(e, prop.Items); err != nil {
			return nil, fmt.Errorf("array element %d: %v", i, err)
		}
	}
	return slices.Clone(elems), nil
}

// compilePattern caches compiled expressions; schema patterns repeat
// for every value of a column. The cache is shared across concurrent
// runs, hence the lock.
var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache[pattern] = re
	return re, nil
}
