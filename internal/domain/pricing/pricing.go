// Package pricing contains the pure money math for the storefront: coupon
// discount evaluation and checkout quote computation. It has no dependencies
// on persistence or transport; callers pass values in and get values out.
package pricing

import "github.com/shopspring/decimal"

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the cart subtotal,
	// optionally capped at a maximum amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a flat amount. It is intentionally not clamped
	// to the subtotal; a fixed discount larger than the cart flows through.
	DiscountFixed DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Rule is the subset of a coupon that the evaluator needs.
type Rule struct {
	Type DiscountType
	// Value is a percentage for DiscountPercentage or an amount for DiscountFixed.
	Value decimal.Decimal
	// MaxDiscount caps percentage discounts when non-nil.
	MaxDiscount *decimal.Decimal
}

// Discount computes the discount amount for the rule against a cart subtotal,
// rounded to 2 decimal places.
func Discount(rule Rule, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch rule.Type {
	case DiscountPercentage:
		amount = rule.Value.Div(hundred).Mul(subtotal)
		if rule.MaxDiscount != nil && amount.GreaterThan(*rule.MaxDiscount) {
			amount = *rule.MaxDiscount
		}
	case DiscountFixed:
		amount = rule.Value
	default:
		amount = decimal.Zero
	}
	return amount.Round(2)
}

// Quote is the full price breakdown for a checkout.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Evaluator computes checkout quotes with a configured tax rate and flat
// shipping charge.
type Evaluator struct {
	taxRate  decimal.Decimal
	shipping decimal.Decimal
}

// NewEvaluator returns an Evaluator. taxRate is a fraction (0.18 for 18% GST).
func NewEvaluator(taxRate, shipping decimal.Decimal) *Evaluator {
	return &Evaluator{taxRate: taxRate, shipping: shipping}
}

// Tax returns the tax due on the given taxable amount, rounded to 2 decimal
// places. The taxable amount is subtotal minus discount; a negative value is
// passed through unmodified, matching the fixed-discount overshoot behaviour.
func (e *Evaluator) Tax(taxable decimal.Decimal) decimal.Decimal {
	return taxable.Mul(e.taxRate).Round(2)
}

// Evaluate computes the quote for a subtotal and an already-computed discount:
// tax on (subtotal - discount), then total = subtotal - discount + tax + shipping.
func (e *Evaluator) Evaluate(subtotal, discount decimal.Decimal) Quote {
	taxable := subtotal.Sub(discount)
	tax := e.Tax(taxable)
	return Quote{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Tax:      tax,
		Shipping: e.shipping.Round(2),
		Total:    taxable.Add(tax).Add(e.shipping).Round(2),
	}
}
