package amortization

import (
	"github.com/shopspring/decimal"
)

// Fixed estimates applied on top of principal and interest.
var (
	PropertyTaxAnnualRate  = decimal.RequireFromString("0.012")
	InsuranceAnnualRate    = decimal.RequireFromString("0.005")
	AffordabilityThreshold = decimal.NewFromInt(35)
)

const currencyPlaces int32 = 2

// BondInput describes a mortgage on a property.
type BondInput struct {
	PropertyPrice       decimal.Decimal
	DownPaymentPercent  decimal.Decimal
	InterestRatePercent decimal.Decimal
	LoanTermYears       int
	MonthlyIncome       *decimal.Decimal
}

// BondSummary is the monthly cost breakdown of a bond. AffordabilityRatio and
// IsAffordable are only set when a positive monthly income was supplied.
type BondSummary struct {
	PropertyPrice        decimal.Decimal  `json:"property_price"`
	DownPayment          decimal.Decimal  `json:"down_payment"`
	DownPaymentPercent   decimal.Decimal  `json:"down_payment_percent"`
	LoanAmount           decimal.Decimal  `json:"loan_amount"`
	InterestRate         decimal.Decimal  `json:"interest_rate"`
	LoanTermYears        int              `json:"loan_term_years"`
	MonthlyPayment       decimal.Decimal  `json:"monthly_payment"`
	PrincipalAndInterest decimal.Decimal  `json:"principal_and_interest"`
	PropertyTax          decimal.Decimal  `json:"property_tax"`
	Insurance            decimal.Decimal  `json:"insurance"`
	TotalInterest        decimal.Decimal  `json:"total_interest"`
	TotalCost            decimal.Decimal  `json:"total_cost"`
	MonthlyIncome        *decimal.Decimal `json:"monthly_income,omitempty"`
	AffordabilityRatio   *decimal.Decimal `json:"affordability_ratio,omitempty"`
	IsAffordable         *bool            `json:"is_affordable,omitempty"`
}

// CalculateBondSummary prices a bond: principal and interest from the level
// payment formula, plus flat property tax (1.2%/yr) and insurance (0.5%/yr)
// on the loan amount. Total interest includes tax and insurance, matching the
// published calculator.
func CalculateBondSummary(in BondInput) BondSummary {
	downPayment := in.PropertyPrice.Mul(in.DownPaymentPercent).Div(hundred)
	loanAmount := in.PropertyPrice.Sub(downPayment)
	n := in.LoanTermYears * MonthsPerYear

	monthlyPI := MonthlyPayment(loanAmount, in.InterestRatePercent, n)
	propertyTax := loanAmount.Mul(PropertyTaxAnnualRate).Div(twelve)
	insurance := loanAmount.Mul(InsuranceAnnualRate).Div(twelve)
	monthlyPayment := monthlyPI.Add(propertyTax).Add(insurance)

	totalCost := monthlyPayment.Mul(decimal.NewFromInt(int64(n))).Add(downPayment)
	totalInterest := totalCost.Sub(in.PropertyPrice)

	summary := BondSummary{
		PropertyPrice:        in.PropertyPrice,
		DownPayment:          downPayment.Round(currencyPlaces),
		DownPaymentPercent:   in.DownPaymentPercent,
		LoanAmount:           loanAmount.Round(currencyPlaces),
		InterestRate:         in.InterestRatePercent,
		LoanTermYears:        in.LoanTermYears,
		MonthlyPayment:       monthlyPayment.Round(currencyPlaces),
		PrincipalAndInterest: monthlyPI.Round(currencyPlaces),
		PropertyTax:          propertyTax.Round(currencyPlaces),
		Insurance:            insurance.Round(currencyPlaces),
		TotalInterest:        totalInterest.Round(currencyPlaces),
		TotalCost:            totalCost.Round(currencyPlaces),
	}

	if in.MonthlyIncome == nil {
		return summary
	}

	income := *in.MonthlyIncome
	summary.MonthlyIncome = &income
	if income.IsPositive() {
		ratio := monthlyPayment.Div(income).Mul(hundred)
		affordable := ratio.LessThanOrEqual(AffordabilityThreshold)
		rounded := ratio.Round(currencyPlaces)

		summary.AffordabilityRatio = &rounded
		summary.IsAffordable = &affordable
	}

	return summary
}

// DownPaymentPercentOf converts an absolute deposit into a percentage of price.
func DownPaymentPercentOf(price, deposit decimal.Decimal) decimal.Decimal {
	if price.IsZero() {
		return decimal.Zero
	}
	return deposit.Div(price).Mul(hundred)
}
