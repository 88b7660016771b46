// Package filter builds the pipe-separated filter and sort expressions the
// DataVault list endpoints accept: `field:op:value|...` and `field:order|...`.
package filter

import "strings"

// Operator is a filter comparison operator recognized by the API.
type Operator string

const (
	OpEqual     Operator = "eq"
	OpContains  Operator = "cn"
	OpNotEqual  Operator = "neq"
	OpGreaterEq Operator = "ge"
	OpLessEq    Operator = "le"
)

// Order is a sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Filter is one field:op:value fragment.
type Filter struct {
	Field string
	Op    Operator
	Value string
}

// String renders the fragment in wire form.
func (f Filter) String() string {
	return f.Field + ":" + string(f.Op) + ":" + f.Value
}

// Sort is one field:order fragment.
type Sort struct {
	Field string
	Order Order
}

// String renders the fragment in wire form.
func (s Sort) String() string {
	return s.Field + ":" + string(s.Order)
}

// Combine joins filter fragments with the pipe separator.
func Combine(filters ...Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "|")
}

// CombineSorts joins sort fragments with the pipe separator.
func CombineSorts(sorts ...Sort) string {
	parts := make([]string, 0, len(sorts))
	for _, s := range sorts {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "|")
}

// Common node filters.

// TypeEq restricts a node listing to one node type.
func TypeEq(nodeType string) Filter {
	return Filter{Field: "type", Op: OpEqual, Value: nodeType}
}

// NameEq matches an exact node name.
func NameEq(name string) Filter {
	return Filter{Field: "name", Op: OpEqual, Value: name}
}

// NameContains matches a substring of the node name.
func NameContains(fragment string) Filter {
	return Filter{Field: "name", Op: OpContains, Value: fragment}
}

// ParentPathEq matches the exact parent path of a node.
func ParentPathEq(parentPath string) Filter {
	return Filter{Field: "parentPath", Op: OpEqual, Value: parentPath}
}
