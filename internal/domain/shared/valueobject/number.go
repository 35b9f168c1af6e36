package valueobject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MaxFractionDigits is the number of fraction digits kept when a value is
// displayed. Values are stored at full precision.
const MaxFractionDigits = 3

// displayTag is the single formatting convention used for every number on the sheet.
var displayTag = language.Korean

// Number is a numeric sheet field that can also be blank.
// The zero value is blank.
type Number struct {
	value decimal.Decimal
	valid bool
}

// BlankNumber returns an empty Number
func BlankNumber() Number {
	return Number{}
}

// NewNumber creates a non-blank Number
func NewNumber(d decimal.Decimal) Number {
	return Number{value: d, valid: true}
}

// IsBlank reports whether the field holds no value
func (n Number) IsBlank() bool {
	return !n.valid
}

// Decimal returns the value, with blank treated as zero
func (n Number) Decimal() decimal.Decimal {
	if !n.valid {
		return decimal.Zero
	}
	return n.value
}

// Equal compares two numbers; two blanks are equal, blank never equals zero
func (n Number) Equal(other Number) bool {
	if n.valid != other.valid {
		return false
	}
	return !n.valid || n.value.Equal(other.value)
}

// String returns the plain (ungrouped) representation, or "" for blank
func (n Number) String() string {
	if !n.valid {
		return ""
	}
	return n.value.String()
}

// Format returns the grouped display representation
func (n Number) Format() string {
	if !n.valid {
		return ""
	}
	return FormatDecimal(n.value)
}

// MarshalJSON writes blank as "" and any other value as a JSON number
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte(`""`), nil
	}
	return []byte(n.value.String()), nil
}

// UnmarshalJSON accepts "", null, a JSON number or a numeric string.
// Strings that are not numeric decode to zero, matching ParseNumber.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid number string: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			*n = Number{}
			return nil
		}
		*n = NewNumber(ParseNumber(s))
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	*n = NewNumber(d)
	return nil
}

// ParseNumber converts user input to a number. Grouping separators and
// surrounding whitespace are ignored; blank or unparseable input yields zero.
// It never fails.
func ParseNumber(input string) decimal.Decimal {
	s := strings.TrimSpace(strings.ReplaceAll(input, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatDecimal renders d with Korean thousands grouping and at most
// MaxFractionDigits fraction digits, e.g. 1234567.5 -> "1,234,567.5".
// Digits are taken from the decimal itself, so no precision is lost.
func FormatDecimal(d decimal.Decimal) string {
	rounded := d.Round(MaxFractionDigits)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	whole, frac, _ := strings.Cut(rounded.String(), ".")
	out := sign + groupDigits(whole)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// groupDigits inserts thousands separators into a string of digits
func groupDigits(whole string) string {
	if v, err := strconv.ParseInt(whole, 10, 64); err == nil {
		return message.NewPrinter(displayTag).Sprintf("%v", number.Decimal(v))
	}
	var b strings.Builder
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}

// MapCaret translates a caret offset in typed into the matching offset in
// formatted, the regrouped form of the same number. Offsets count runes.
// The caret lands after the same count of significant characters (digits,
// sign and decimal point), so separators added or removed by grouping do
// not move it relative to the digits around it.
func MapCaret(typed, formatted string, offset int) int {
	typedRunes := []rune(typed)
	offset = max(0, min(offset, len(typedRunes)))

	want := 0
	for _, r := range typedRunes[:offset] {
		if isSignificant(r) {
			want++
		}
	}

	formattedRunes := []rune(formatted)
	if want == 0 {
		return 0
	}
	seen := 0
	for i, r := range formattedRunes {
		if isSignificant(r) {
			seen++
			if seen == want {
				return i + 1
			}
		}
	}
	return len(formattedRunes)
}

func isSignificant(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == '-'
}
