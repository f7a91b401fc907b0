// Package costing aggregates per-function catering costs across the seven cost
// categories into category totals, agency charges, a grand total and the
// per-head dish costing figure.
package costing

import "fmt"

// Category is one of the disjoint cost categories of an event function.
type Category int

const (
	ChefLabour Category = iota + 1
	GeneralLabour
	OutsideAgency
	ExtraExpense
	RawMaterial
	GeneralFix
	Crockery
)

// Categories lists every category in report order.
var Categories = []Category{
	ChefLabour, GeneralLabour, OutsideAgency, ExtraExpense, RawMaterial, GeneralFix, Crockery,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= ChefLabour && c <= Crockery
}

// IsAgency reports whether the category is billed by a third-party agency.
func (c Category) IsAgency() bool {
	return c == ChefLabour || c == GeneralLabour || c == OutsideAgency
}

// IsMaterial reports whether the category is priced from unit-normalized quantities.
func (c Category) IsMaterial() bool {
	return c == RawMaterial || c == GeneralFix
}

func (c Category) String() string {
	switch c {
	case ChefLabour:
		return "chef_labour"
	case GeneralLabour:
		return "general_labour"
	case OutsideAgency:
		return "outside_agency"
	case ExtraExpense:
		return "extra_expense"
	case RawMaterial:
		return "raw_material"
	case GeneralFix:
		return "general_fix"
	case Crockery:
		return "crockery"
	}
	return fmt.Sprintf("category(%d)", int(c))
}
