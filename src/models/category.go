package models

// Category identifies one of the fixed file families dropped by upstream systems.
type Category string

const (
	CategoryDelivered   Category = "CONSEGNATO"
	CategoryOrdered     Category = "ORDINATO"
	CategoryCreditCard  Category = "CARTE_CREDITO"
	CategoryPromoCard   Category = "CARTE_PROMO"
	CategoryTradingArea Category = "TRADING_AREA"
	CategoryPriceList   Category = "LISTINO"

	// CategoryUnknown tags files routed without a recognised category.
	CategoryUnknown Category = "UNKNOWN"
)

// Categories lists the recognised families in classification order.
var Categories = []Category{
	CategoryDelivered,
	CategoryOrdered,
	CategoryCreditCard,
	CategoryPromoCard,
	CategoryTradingArea,
	CategoryPriceList,
}

// Outcome is the result of reconciling one row.
type Outcome int

const (
	OutcomeUnknown   Outcome = iota // zero value; never a valid result
	OutcomeModified                 // inserted or updated
	OutcomeUnchanged                // row exists and nothing differs, or deliberately skipped
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeModified:
		return "modified"
	case OutcomeUnchanged:
		return "skipped"
	case OutcomeError:
		return "errored"
	default:
		return "unknown"
	}
}
