package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Expression is a parsed "NdS+M" expression. Count is 0 for a flat amount,
// in which case the value is Modifier alone.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

var expressionRE = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Parse reads a dice expression. Accepted forms are "d20", "2d6", "3d8+20",
// "4d4-1" and a bare integer such as "5" or "-2". Whitespace is ignored.
//
// Postcondition: On success either Count == 0 or Count >= 1 and Sides >= 2.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.Join(strings.Fields(expr), ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	if flat, err := strconv.Atoi(s); err == nil {
		return Expression{Raw: expr, Modifier: flat}, nil
	}
	m := expressionRE.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}

	e := Expression{Raw: expr, Count: 1}
	var err error
	if m[1] != "" {
		if e.Count, err = strconv.Atoi(m[1]); err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
		}
		if e.Count < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", expr)
		}
	}
	if e.Sides, err = strconv.Atoi(m[2]); err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if e.Sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", expr)
	}
	if m[3] != "" {
		if e.Modifier, err = strconv.Atoi(m[3]); err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}
	return e, nil
}

// MustParse parses expr and panics on error.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse: " + err.Error())
	}
	return e
}

// Min returns the lowest possible total.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the highest possible total.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// Average returns the expected total of one roll.
func (e Expression) Average() float64 {
	return float64(e.Modifier) + float64(e.Count*(e.Sides+1))/2.0
}

// String returns the canonical form, e.g. "3d8+20", "d6" becomes "1d6".
func (e Expression) String() string {
	if e.Count == 0 {
		return strconv.Itoa(e.Modifier)
	}
	s := fmt.Sprintf("%dd%d", e.Count, e.Sides)
	if e.Modifier != 0 {
		s += fmt.Sprintf("%+d", e.Modifier)
	}
	return s
}
