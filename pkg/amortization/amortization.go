// Package amortization computes fixed-rate, fully amortizing loan payments,
// monthly schedules with optional extra payments, and bond (mortgage) summaries.
//
// Every function is pure: inputs are values, results are freshly allocated and
// nothing is shared between calls.
package amortization

import (
	"github.com/shopspring/decimal"
)

const (
	MonthsPerYear = 12

	// SafetyPeriods is how far past the contractual term BuildSchedule may run
	// before it stops, whatever the inputs.
	SafetyPeriods = 600

	// internalScale is the number of decimal places carried between periods.
	internalScale int32 = 10

	// powScale bounds the digits kept from (1+r)^n.
	powScale int32 = 24
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(MonthsPerYear)

	// settleThreshold is the largest residual balance folded into the period
	// that produced it.
	settleThreshold = decimal.New(1, -5)
)

// Row is one period of an amortization schedule.
type Row struct {
	Period    int             `json:"period"`
	Payment   decimal.Decimal `json:"payment"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Balance   decimal.Decimal `json:"balance"`
}

// Schedule is the full month-by-month payoff of a loan.
type Schedule struct {
	BasePayment   decimal.Decimal `json:"base_payment"`
	Rows          []Row           `json:"rows"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	PayoffPeriods int             `json:"payoff_periods"`
}

// MonthlyRate converts an annual percentage rate to the periodic rate.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(twelve)
}

// MonthlyPayment returns the level payment M = P·r·(1+r)^n / ((1+r)^n − 1).
// A non-positive term yields zero and a zero rate yields exactly P/n.
func MonthlyPayment(principal, annualRatePercent decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(termMonths))
	r := MonthlyRate(annualRatePercent)
	if r.IsZero() {
		return principal.Div(n)
	}

	growth := one.Add(r).Pow(n).Round(powScale)
	denominator := growth.Sub(one)
	if denominator.IsZero() {
		return decimal.Zero
	}

	return principal.Mul(r).Mul(growth).Div(denominator)
}

// BuildSchedule amortizes principal month by month. The base payment is
// computed once from the original term; extraMonthly is added on top of it
// and only shortens the payoff. The final payment is clipped so the balance
// never goes negative, and the loop halts after termMonths+SafetyPeriods
// periods at the latest. With a non-negative extra payment the loan is always
// closed by period termMonths: rounding residue left at that point is paid in
// that period.
func BuildSchedule(principal, annualRatePercent decimal.Decimal, termMonths int, extraMonthly decimal.Decimal) Schedule {
	r := MonthlyRate(annualRatePercent)
	base := MonthlyPayment(principal, annualRatePercent, termMonths)
	settleAtTerm := !extraMonthly.IsNegative()
	installment := base.Add(extraMonthly)
	balance := principal.Round(internalScale)
	limit := termMonths + SafetyPeriods

	capacity := termMonths
	if capacity < 0 {
		capacity = 0
	}

	schedule := Schedule{
		BasePayment:   base,
		Rows:          make([]Row, 0, capacity),
		TotalInterest: decimal.Zero,
		TotalPaid:     decimal.Zero,
	}

	for period := 1; balance.IsPositive() && period <= limit; period++ {
		interest := r.Mul(balance).Round(internalScale)
		payment := decimal.Min(installment, balance.Add(interest))
		principalPaid := decimal.Max(payment.Sub(interest), decimal.Zero)
		balance = decimal.Max(balance.Sub(principalPaid), decimal.Zero)

		if balance.IsPositive() && (balance.LessThan(settleThreshold) || (settleAtTerm && period == termMonths)) {
			principalPaid = principalPaid.Add(balance)
			payment = payment.Add(balance)
			balance = decimal.Zero
		}

		schedule.TotalInterest = schedule.TotalInterest.Add(interest)
		schedule.TotalPaid = schedule.TotalPaid.Add(payment)
		schedule.Rows = append(schedule.Rows, Row{
			Period:    period,
			Payment:   payment,
			Interest:  interest,
			Principal: principalPaid,
			Balance:   balance,
		})
	}

	schedule.PayoffPeriods = len(schedule.Rows)
	return schedule
}

// Rounded returns a copy of s with every amount rounded to places.
func (s Schedule) Rounded(places int32) Schedule {
	out := Schedule{
		BasePayment:   s.BasePayment.Round(places),
		Rows:          make([]Row, len(s.Rows)),
		TotalInterest: s.TotalInterest.Round(places),
		TotalPaid:     s.TotalPaid.Round(places),
		PayoffPeriods: s.PayoffPeriods,
	}
	for i, row := range s.Rows {
		out.Rows[i] = Row{
			Period:    row.Period,
			Payment:   row.Payment.Round(places),
			Interest:  row.Interest.Round(places),
			Principal: row.Principal.Round(places),
			Balance:   row.Balance.Round(places),
		}
	}
	return out
}

// Savings compares an accelerated schedule with the baseline one for the same
// loan. monthsSaved is never negative, and is zero when the baseline has
// nothing to pay off.
func Savings(baseline, accelerated Schedule, termMonths int) (monthsSaved int, interestSaved decimal.Decimal) {
	if baseline.PayoffPeriods < termMonths {
		termMonths = baseline.PayoffPeriods
	}
	monthsSaved = termMonths - accelerated.PayoffPeriods
	if monthsSaved < 0 {
		monthsSaved = 0
	}
	return monthsSaved, baseline.TotalInterest.Sub(accelerated.TotalInterest)
}
