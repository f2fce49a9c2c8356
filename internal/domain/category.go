package domain

// TicketCategory enumerates the fixed triage categories.
type TicketCategory string

const (
	CategoryBilling   TicketCategory = "billing"
	CategoryTechnical TicketCategory = "technical"
	CategoryAccount   TicketCategory = "account"
	CategoryShipping  TicketCategory = "shipping"
	CategoryOther     TicketCategory = "other"
)

// Categories lists every category in priority order. The classifier breaks
// score ties in favor of the earlier entry, and CategoryOther is the
// catch-all that wins when nothing else matches.
var Categories = []TicketCategory{
	CategoryBilling,
	CategoryTechnical,
	CategoryAccount,
	CategoryShipping,
	CategoryOther,
}

// ValidCategory reports whether the value is a known category.
func ValidCategory(c TicketCategory) bool {
	for _, candidate := range Categories {
		if candidate == c {
			return true
		}
	}
	return false
}
