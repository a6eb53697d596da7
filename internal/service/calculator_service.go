package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/segyhp/property-engine/internal/config"
	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/internal/repository"
	"github.com/segyhp/property-engine/pkg/amortization"
	customError "github.com/segyhp/property-engine/pkg/errors"
	"github.com/segyhp/property-engine/pkg/export"
)

const currencyPlaces int32 = 2

// CalculatorService exposes the amortization engine with input validation
// and a result cache. The cache is best effort.
type CalculatorService struct {
	cache  repository.Cache
	ttl    time.Duration
	logger *logrus.Logger
	tracer trace.Tracer
}

func NewCalculatorService(cache repository.Cache, cacheConfig config.CacheConfig, logger *logrus.Logger) *CalculatorService {
	return &CalculatorService{
		cache:  cache,
		ttl:    cacheConfig.CalculationTTL,
		logger: logger,
		tracer: defaultTracer(),
	}
}

// CalculationKey is the cache key of a calculation of kind over the
// normalized input parts.
func CalculationKey(kind string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "calc:" + kind + ":" + hex.EncodeToString(sum[:])
}

// MonthlyPayment returns the level monthly payment for a loan.
func (s *CalculatorService) MonthlyPayment(ctx context.Context, request *domain.PaymentRequest) (result *domain.PaymentResponse, err error) {
	_, span := s.tracer.Start(ctx, "CalculatorService.MonthlyPayment")
	defer func() { finishSpan(span, err) }()

	if err := amortization.ValidateLoan(request.Principal, request.InterestRate, request.TermMonths, decimal.Zero); err != nil {
		return nil, err
	}

	payment := amortization.MonthlyPayment(request.Principal, request.InterestRate, request.TermMonths)

	return &domain.PaymentResponse{
		Principal:      request.Principal,
		InterestRate:   request.InterestRate,
		TermMonths:     request.TermMonths,
		MonthlyPayment: payment.Round(currencyPlaces),
	}, nil
}

// Schedule amortizes the financed amount month by month and compares the
// result with the same loan without extra payments.
func (s *CalculatorService) Schedule(ctx context.Context, request *domain.ScheduleRequest) (result *domain.ScheduleResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "CalculatorService.Schedule")
	defer func() { finishSpan(span, err) }()

	if !request.PropertyPrice.IsPositive() {
		return nil, customError.WrapValidation("property price must be greater than 0")
	}
	if request.Deposit.IsNegative() {
		return nil, customError.WrapValidation("deposit must not be negative")
	}
	if !request.Deposit.LessThan(request.PropertyPrice) {
		return nil, customError.WrapValidation("deposit must be less than the property price")
	}

	principal := request.Principal()
	months := request.Months()
	if err := amortization.ValidateLoan(principal, request.InterestRate, months, request.ExtraMonthly); err != nil {
		return nil, err
	}

	key := CalculationKey("schedule",
		principal.String(), request.InterestRate.String(), fmt.Sprint(months), request.ExtraMonthly.String())

	result = &domain.ScheduleResponse{}
	if s.cachedInto(ctx, key, result) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return result, nil
	}

	baseline := amortization.BuildSchedule(principal, request.InterestRate, months, decimal.Zero)
	accelerated := baseline
	if request.ExtraMonthly.IsPositive() {
		accelerated = amortization.BuildSchedule(principal, request.InterestRate, months, request.ExtraMonthly)
	}
	monthsSaved, interestSaved := amortization.Savings(baseline, accelerated, months)
	rounded := accelerated.Rounded(currencyPlaces)

	result = &domain.ScheduleResponse{
		Principal:        principal,
		InterestRate:     request.InterestRate,
		TermMonths:       months,
		ExtraMonthly:     request.ExtraMonthly,
		MonthlyPayment:   rounded.BasePayment,
		TotalInterest:    rounded.TotalInterest,
		TotalPaid:        rounded.TotalPaid,
		PayoffPeriods:    rounded.PayoffPeriods,
		BaselineInterest: baseline.TotalInterest.Round(currencyPlaces),
		MonthsSaved:      monthsSaved,
		InterestSaved:    interestSaved.Round(currencyPlaces),
		Rows:             rounded.Rows,
	}

	s.store(ctx, key, result)
	return result, nil
}

// ExportSchedule builds the schedule for request and writes it to w in
// format. It returns the content type of what was written.
func (s *CalculatorService) ExportSchedule(ctx context.Context, request *domain.ScheduleRequest, format string, w io.Writer) (contentType string, err error) {
	ctx, span := s.tracer.Start(ctx, "CalculatorService.ExportSchedule",
		trace.WithAttributes(attribute.String("export.format", format)))
	defer func() { finishSpan(span, err) }()

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = domain.ExportFormatCSV
	}
	if format != domain.ExportFormatCSV && format != domain.ExportFormatXLSX {
		return "", customError.WrapValidation("unsupported export format %q", format)
	}

	schedule, err := s.Schedule(ctx, request)
	if err != nil {
		return "", err
	}

	if format == domain.ExportFormatXLSX {
		return export.ContentTypeXLSX, export.WriteXLSX(w, schedule.Rows)
	}
	return export.ContentTypeCSV, export.WriteCSV(w, schedule.Rows)
}

// BondSummary prices a mortgage. A down payment given as an amount is
// converted to a percentage of the price.
func (s *CalculatorService) BondSummary(ctx context.Context, request *domain.BondRequest) (result *amortization.BondSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "CalculatorService.BondSummary")
	defer func() { finishSpan(span, err) }()

	percent := decimal.Zero
	switch {
	case request.DownPaymentPercent != nil:
		percent = *request.DownPaymentPercent
	case request.DownPaymentAmount != nil:
		amount := *request.DownPaymentAmount
		if amount.IsNegative() {
			return nil, customError.WrapValidation("down payment must not be negative")
		}
		if amount.GreaterThan(request.PropertyPrice) {
			return nil, customError.WrapValidation("down payment must not exceed the property price")
		}
		percent = amortization.DownPaymentPercentOf(request.PropertyPrice, amount)
	}

	input := amortization.BondInput{
		PropertyPrice:       request.PropertyPrice,
		DownPaymentPercent:  percent,
		InterestRatePercent: request.InterestRate,
		LoanTermYears:       request.LoanTermYears,
		MonthlyIncome:       request.MonthlyIncome,
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	income := "-"
	if input.MonthlyIncome != nil {
		income = input.MonthlyIncome.String()
	}
	key := CalculationKey("bond",
		input.PropertyPrice.String(), input.DownPaymentPercent.String(), input.InterestRatePercent.String(),
		fmt.Sprint(input.LoanTermYears), income)

	result = &amortization.BondSummary{}
	if s.cachedInto(ctx, key, result) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return result, nil
	}

	summary := amortization.CalculateBondSummary(input)
	s.store(ctx, key, &summary)
	return &summary, nil
}

func (s *CalculatorService) cachedInto(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("calculation cache read failed")
	}
	return false
}

func (s *CalculatorService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("calculation cache write failed")
	}
}
