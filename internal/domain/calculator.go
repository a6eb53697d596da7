package domain

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/property-engine/pkg/amortization"
)

// Export formats for amortization schedules
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// DTOs for requests and responses

type PaymentRequest struct {
	Principal    decimal.Decimal `json:"principal" validate:"decimal_gte=0"`
	InterestRate decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0"`
	TermMonths   int             `json:"term_months" validate:"required,gt=0,lte=600"`
}

type PaymentResponse struct {
	Principal      decimal.Decimal `json:"principal"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TermMonths     int             `json:"term_months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

// ScheduleRequest describes the loan behind a property purchase. The financed
// principal is PropertyPrice less Deposit. TermMonths wins over TermYears when
// both are given.
type ScheduleRequest struct {
	PropertyPrice decimal.Decimal `json:"property_price" validate:"decimal_gt=0"`
	Deposit       decimal.Decimal `json:"deposit" validate:"decimal_gte=0"`
	InterestRate  decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0"`
	TermYears     int             `json:"term_years" validate:"gte=0,lte=50"`
	TermMonths    int             `json:"term_months" validate:"gte=0,lte=600"`
	ExtraMonthly  decimal.Decimal `json:"extra_monthly" validate:"decimal_gte=0"`
}

// Months resolves the loan term in months.
func (r *ScheduleRequest) Months() int {
	if r.TermMonths > 0 {
		return r.TermMonths
	}
	return r.TermYears * amortization.MonthsPerYear
}

func (r *ScheduleRequest) Principal() decimal.Decimal {
	return r.PropertyPrice.Sub(r.Deposit)
}

type ScheduleResponse struct {
	Principal        decimal.Decimal    `json:"principal"`
	InterestRate     decimal.Decimal    `json:"interest_rate"`
	TermMonths       int                `json:"term_months"`
	ExtraMonthly     decimal.Decimal    `json:"extra_monthly"`
	MonthlyPayment   decimal.Decimal    `json:"monthly_payment"`
	TotalInterest    decimal.Decimal    `json:"total_interest"`
	TotalPaid        decimal.Decimal    `json:"total_paid"`
	PayoffPeriods    int                `json:"payoff_periods"`
	BaselineInterest decimal.Decimal    `json:"baseline_interest"`
	MonthsSaved      int                `json:"months_saved"`
	InterestSaved    decimal.Decimal    `json:"interest_saved"`
	Rows             []amortization.Row `json:"rows"`
}

// BondRequest prices a mortgage. The down payment is given either as a
// percentage of the price or as an absolute amount; the percentage wins when
// both are present.
type BondRequest struct {
	PropertyPrice      decimal.Decimal  `json:"property_price" validate:"decimal_gt=0"`
	DownPaymentPercent *decimal.Decimal `json:"down_payment_percent,omitempty"`
	DownPaymentAmount  *decimal.Decimal `json:"down_payment_amount,omitempty"`
	InterestRate       decimal.Decimal  `json:"interest_rate" validate:"decimal_gte=0"`
	LoanTermYears      int              `json:"loan_term_years" validate:"required,gt=0,lte=50"`
	MonthlyIncome      *decimal.Decimal `json:"monthly_income,omitempty"`
}
