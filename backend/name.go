package backend

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Variables and constraints carry structured names of the form
// "family(field1,field2,...,period)". The trailing field is the planning
// period index. These helpers parse that convention; they are tolerant of
// bare names without a field list.

// Family returns the part of the name before the field list.
func Family(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return name[:i]
	}
	return name
}

// Fields returns the comma-separated fields inside the parentheses,
// or nil if the name has no field list.
func Fields(name string) []string {
	open := strings.IndexByte(name, '(')
	end := strings.LastIndexByte(name, ')')
	if open < 0 || end <= open {
		return nil
	}
	inner := name[open+1 : end]
	if inner == "" {
		return nil
	}
	return strings.Split(inner, ",")
}

// TrailingIndex returns the last field of the name parsed as a number.
// This is the period index under the naming convention above.
func TrailingIndex(name string) (float64, error) {
	fields := Fields(name)
	if len(fields) == 0 {
		return 0, errors.Errorf("name %q has no field list", name)
	}
	last := strings.TrimSpace(fields[len(fields)-1])
	idx, err := strconv.ParseFloat(last, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "name %q has non-numeric trailing field", name)
	}
	return idx, nil
}
