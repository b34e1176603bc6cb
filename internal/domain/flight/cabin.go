package flight

import "strings"

// CabinClass is the service tier of a flight.
type CabinClass int

const (
	ClassUnknown CabinClass = iota
	ClassEconomy
	ClassPremiumEconomy
	ClassBusiness
	ClassFirst
)

// Attrs holds everything the views need to show a cabin class.
type Attrs struct {
	Label      string // API and display label, e.g. "Premium Economy"
	FormValue  string // radio value on the add-flight form, e.g. "premium-economy"
	BadgeClass string // card badge colours
	BarClass   string // stats swatch and bar colour
}

var classAttrs = map[CabinClass]Attrs{
	ClassEconomy: {
		Label:      "Economy",
		FormValue:  "economy",
		BadgeClass: "bg-cornflower_blue-100 text-cornflower_blue-700",
		BarClass:   "bg-cornflower_blue-500",
	},
	ClassPremiumEconomy: {
		Label:      "Premium Economy",
		FormValue:  "premium-economy",
		BadgeClass: "bg-ut_orange-100 text-ut_orange-700",
		BarClass:   "bg-ut_orange-500",
	},
	ClassBusiness: {
		Label:      "Business",
		FormValue:  "business",
		BadgeClass: "bg-persian_indigo-200 text-persian_indigo-700",
		BarClass:   "bg-persian_indigo-600",
	},
	ClassFirst: {
		Label:      "First",
		FormValue:  "first",
		BadgeClass: "bg-yellow-100 text-yellow-800",
		BarClass:   "bg-yellow-500",
	},
}

// unknownAttrs is used for any class label the enumeration does not know.
var unknownAttrs = Attrs{
	BadgeClass: "bg-gray-100 text-gray-700",
	BarClass:   "bg-gray-500",
}

// orderedClasses is the display order of the selectable classes.
var orderedClasses = []CabinClass{ClassEconomy, ClassPremiumEconomy, ClassBusiness, ClassFirst}

// Attrs returns the display attributes, falling back for ClassUnknown.
func (c CabinClass) Attrs() Attrs {
	if a, ok := classAttrs[c]; ok {
		return a
	}
	return unknownAttrs
}

// String returns the class label, or "Unknown".
func (c CabinClass) String() string {
	if a, ok := classAttrs[c]; ok {
		return a.Label
	}
	return "Unknown"
}

// ParseCabinClass maps an API label to the enumeration. Matching ignores case
// and surrounding whitespace; anything else is ClassUnknown.
func ParseCabinClass(label string) CabinClass {
	label = strings.TrimSpace(label)
	for _, c := range orderedClasses {
		if strings.EqualFold(classAttrs[c].Label, label) {
			return c
		}
	}
	return ClassUnknown
}

// ClassFromFormValue maps a radio value such as "premium-economy" to the enumeration.
func ClassFromFormValue(value string) (CabinClass, bool) {
	for _, c := range orderedClasses {
		if classAttrs[c].FormValue == value {
			return c, true
		}
	}
	return ClassUnknown, false
}

// SelectableClasses returns the classes offered on the add-flight form.
// First class is offered only when allowFirst is set.
func SelectableClasses(allowFirst bool) []CabinClass {
	out := make([]CabinClass, 0, len(orderedClasses))
	for _, c := range orderedClasses {
		if c == ClassFirst && !allowFirst {
			continue
		}
		out = append(out, c)
	}
	return out
}
