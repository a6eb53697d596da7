package amortization

import (
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/property-engine/pkg/errors"
)

// MaxTermMonths caps accepted loan terms at fifty years.
const MaxTermMonths = 50 * MonthsPerYear

// ValidateLoan rejects inputs the schedule math is not defined for.
func ValidateLoan(principal, annualRatePercent decimal.Decimal, termMonths int, extraMonthly decimal.Decimal) error {
	if principal.IsNegative() {
		return customError.WrapValidation("principal must not be negative")
	}
	if annualRatePercent.IsNegative() {
		return customError.WrapValidation("interest rate must not be negative")
	}
	if termMonths <= 0 {
		return customError.WrapValidation("loan term must be greater than 0")
	}
	if termMonths > MaxTermMonths {
		return customError.WrapValidation("loan term must not exceed %d months", MaxTermMonths)
	}
	if extraMonthly.IsNegative() {
		return customError.WrapValidation("extra monthly payment must not be negative")
	}
	return nil
}

// Validate checks a bond input before it is priced.
func (in BondInput) Validate() error {
	if !in.PropertyPrice.IsPositive() {
		return customError.WrapValidation("property price must be greater than 0")
	}
	if in.DownPaymentPercent.IsNegative() || in.DownPaymentPercent.GreaterThan(hundred) {
		return customError.WrapValidation("down payment percent must be between 0 and 100")
	}
	if in.InterestRatePercent.IsNegative() {
		return customError.WrapValidation("interest rate must not be negative")
	}
	if in.LoanTermYears <= 0 {
		return customError.WrapValidation("loan term must be at least 1 year")
	}
	if in.LoanTermYears*MonthsPerYear > MaxTermMonths {
		return customError.WrapValidation("loan term must not exceed %d years", MaxTermMonths/MonthsPerYear)
	}
	if in.MonthlyIncome != nil && in.MonthlyIncome.IsNegative() {
		return customError.WrapValidation("monthly income must not be negative")
	}
	return nil
}
