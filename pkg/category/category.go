package category

import (
	"strconv"
	"strings"
)

// Category is the stratum label a link is sampled under.
type Category string

// Fixed enumeration of sampling categories.
const (
	Group1 Category = "Group1"
	Group2 Category = "Group2"
	Group3 Category = "Group3"
	Group4 Category = "Group4"
	Group5 Category = "Group5"
	Group6 Category = "Group6"
	Other  Category = "Other"
)

// All lists every enumerated category in report order.
var All = []Category{Group1, Group2, Group3, Group4, Group5, Group6, Other}

var byCode = map[int]Category{
	1: Group1,
	2: Group2,
	3: Group3,
	4: Group4,
	5: Group5,
	6: Group6,
}

// Assign maps a link type code to its category.
// Codes outside 1..6, or codes that do not parse as integers, map to Other.
func Assign(typeCode string) Category {
	n, err := strconv.Atoi(strings.TrimSpace(typeCode))
	if err != nil {
		return Other
	}
	if c, ok := byCode[n]; ok {
		return c
	}
	return Other
}

// String returns the label.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range All {
		if c == known {
			return true
		}
	}
	return false
}
