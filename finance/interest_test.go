// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var interestStart = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}

	return d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(dec(t, want)) {
		t.Fatalf("%s = %s, want %s", name, got.String(), want)
	}
}

func TestCalculateBalanceOneYearTwelvePercent(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: dec(t, "12"),
		StartedAt:  interestStart,
	}

	got := CalculateBalance(terms, interestStart.AddDate(0, 0, 365))

	assertDecimal(t, "TotalWithInterest", got.TotalWithInterest, "1120")
	assertDecimal(t, "RemainingAmount", got.RemainingAmount, "1120")
	assertDecimal(t, "AccruedInterest", got.AccruedInterest, "120")
	if got.DaysElapsed != 365 {
		t.Fatalf("DaysElapsed = %d, want 365", got.DaysElapsed)
	}
}

func TestCalculateBalanceZeroRateEqualsPrincipal(t *testing.T) {
	t.Parallel()

	for _, days := range []int{0, 1, 30, 365, 3650} {
		for _, method := range []InterestMethod{InterestDeclining, InterestFlat} {
			terms := DebtTerms{
				Principal:  dec(t, "2500.50"),
				AnnualRate: decimal.Zero,
				StartedAt:  interestStart,
				Method:     method,
			}

			got := CalculateBalance(terms, interestStart.AddDate(0, 0, days))
			assertDecimal(t, "TotalWithInterest", got.TotalWithInterest, "2500.50")
		}
	}
}

func TestCalculateBalanceZeroRateWithRepayment(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: decimal.Zero,
		StartedAt:  interestStart,
		Repayments: []Repayment{
			{Amount: dec(t, "400"), PaidAt: interestStart.AddDate(0, 2, 0)},
		},
	}

	got := CalculateBalance(terms, interestStart.AddDate(1, 0, 0))

	assertDecimal(t, "RemainingAmount", got.RemainingAmount, "600")
	assertDecimal(t, "Repaid", got.Repaid, "400")
}

func TestCalculateBalanceNoRepaymentsRemainingEqualsTotal(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "750"),
		AnnualRate: dec(t, "7.5"),
		StartedAt:  interestStart,
	}

	got := CalculateBalance(terms, interestStart.AddDate(0, 0, 200))
	if !got.RemainingAmount.Equal(got.TotalWithInterest) {
		t.Fatalf("RemainingAmount %s != TotalWithInterest %s", got.RemainingAmount, got.TotalWithInterest)
	}
}

func TestCalculateBalanceFullRepaymentAtEvaluationDate(t *testing.T) {
	t.Parallel()

	now := interestStart.AddDate(0, 0, 100)
	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: dec(t, "5"),
		StartedAt:  interestStart,
	}

	owed := CalculateBalance(terms, now).TotalWithInterest
	terms.Repayments = []Repayment{{Amount: owed, PaidAt: now}}

	for _, method := range []InterestMethod{InterestDeclining, InterestFlat} {
		terms.Method = method

		got := CalculateBalance(terms, now)
		if !got.RemainingAmount.IsZero() {
			t.Fatalf("%s: RemainingAmount = %s, want 0", method, got.RemainingAmount)
		}
		if !got.TotalWithInterest.Equal(owed) {
			t.Fatalf("%s: TotalWithInterest = %s, want %s", method, got.TotalWithInterest, owed)
		}
	}
}

func TestCalculateBalanceInterestMonotonic(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "5000"),
		AnnualRate: dec(t, "9"),
		StartedAt:  interestStart,
		Repayments: []Repayment{
			{Amount: dec(t, "1000"), PaidAt: interestStart.AddDate(0, 1, 0)},
			{Amount: dec(t, "1500"), PaidAt: interestStart.AddDate(0, 4, 0)},
		},
	}

	previous := decimal.Zero
	for day := 0; day <= 400; day += 5 {
		got := CalculateBalance(terms, interestStart.AddDate(0, 0, day))
		if got.AccruedInterest.LessThan(previous) {
			t.Fatalf("interest decreased at day %d: %s < %s", day, got.AccruedInterest, previous)
		}
		previous = got.AccruedInterest
	}
}

func TestCalculateBalanceDecliningVersusFlat(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: dec(t, "10"),
		StartedAt:  interestStart,
		Repayments: []Repayment{
			{Amount: dec(t, "500"), PaidAt: interestStart.AddDate(0, 0, 73)},
		},
	}
	now := interestStart.AddDate(0, 0, 365)

	terms.Method = InterestFlat
	flat := CalculateBalance(terms, now)
	// 1000 * 10% * 365/365
	assertDecimal(t, "flat TotalWithInterest", flat.TotalWithInterest, "1100")
	assertDecimal(t, "flat RemainingAmount", flat.RemainingAmount, "600")

	terms.Method = InterestDeclining
	declining := CalculateBalance(terms, now)
	// 1000 * 10% * 73/365 + 500 * 10% * 292/365 = 20 + 40
	assertDecimal(t, "declining TotalWithInterest", declining.TotalWithInterest, "1060")
	assertDecimal(t, "declining RemainingAmount", declining.RemainingAmount, "560")
}

func TestCalculateBalanceUnsortedRepaymentsAreOrdered(t *testing.T) {
	t.Parallel()

	now := interestStart.AddDate(0, 0, 365)
	ordered := DebtTerms{
		Principal:  dec(t, "1200"),
		AnnualRate: dec(t, "6"),
		StartedAt:  interestStart,
		Repayments: []Repayment{
			{Amount: dec(t, "200"), PaidAt: interestStart.AddDate(0, 1, 0)},
			{Amount: dec(t, "300"), PaidAt: interestStart.AddDate(0, 6, 0)},
		},
	}
	shuffled := ordered
	shuffled.Repayments = []Repayment{ordered.Repayments[1], ordered.Repayments[0]}

	a := CalculateBalance(ordered, now)
	b := CalculateBalance(shuffled, now)
	if !a.TotalWithInterest.Equal(b.TotalWithInterest) || !a.RemainingAmount.Equal(b.RemainingAmount) {
		t.Fatalf("order dependent result: %+v vs %+v", a, b)
	}
}

func TestCalculateBalanceStopsAccruingAtDueDate(t *testing.T) {
	t.Parallel()

	due := interestStart.AddDate(0, 0, 365)
	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: dec(t, "12"),
		StartedAt:  interestStart,
		DueAt:      &due,
	}

	got := CalculateBalance(terms, interestStart.AddDate(3, 0, 0))

	assertDecimal(t, "TotalWithInterest", got.TotalWithInterest, "1120")
	if !got.AsOf.Equal(due) {
		t.Fatalf("AsOf = %v, want %v", got.AsOf, due)
	}
}

func TestCalculateBalanceRepaymentsOutsideAccrualWindow(t *testing.T) {
	t.Parallel()

	due := interestStart.AddDate(0, 0, 365)

	tests := []struct {
		name          string
		method        InterestMethod
		dueAt         *time.Time
		paidAt        time.Time
		amount        string
		now           time.Time
		wantInterest  string
		wantTotal     string
		wantRemaining string
	}{
		{
			name:          "declining repayment before start applies at start",
			method:        InterestDeclining,
			paidAt:        interestStart.AddDate(0, -1, 0),
			amount:        "400",
			now:           interestStart.AddDate(0, 0, 365),
			wantInterest:  "72",
			wantTotal:     "1072",
			wantRemaining: "672",
		},
		{
			name:          "flat repayment before start ignores timing",
			method:        InterestFlat,
			paidAt:        interestStart.AddDate(0, -1, 0),
			amount:        "400",
			now:           interestStart.AddDate(0, 0, 365),
			wantInterest:  "120",
			wantTotal:     "1120",
			wantRemaining: "720",
		},
		{
			name:          "declining repayment after due date only reduces remaining",
			method:        InterestDeclining,
			dueAt:         &due,
			paidAt:        due.AddDate(0, 0, 30),
			amount:        "500",
			now:           interestStart.AddDate(3, 0, 0),
			wantInterest:  "120",
			wantTotal:     "1120",
			wantRemaining: "620",
		},
		{
			name:          "flat repayment after due date only reduces remaining",
			method:        InterestFlat,
			dueAt:         &due,
			paidAt:        due.AddDate(0, 0, 30),
			amount:        "500",
			now:           interestStart.AddDate(3, 0, 0),
			wantInterest:  "120",
			wantTotal:     "1120",
			wantRemaining: "620",
		},
		{
			name:          "declining repayment after evaluation date only reduces remaining",
			method:        InterestDeclining,
			paidAt:        interestStart.AddDate(0, 0, 400),
			amount:        "500",
			now:           interestStart.AddDate(0, 0, 365),
			wantInterest:  "120",
			wantTotal:     "1120",
			wantRemaining: "620",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			terms := DebtTerms{
				Principal:  dec(t, "1000"),
				AnnualRate: dec(t, "12"),
				StartedAt:  interestStart,
				DueAt:      tt.dueAt,
				Method:     tt.method,
				Repayments: []Repayment{{Amount: dec(t, tt.amount), PaidAt: tt.paidAt}},
			}

			got := CalculateBalance(terms, tt.now)

			assertDecimal(t, "AccruedInterest", got.AccruedInterest, tt.wantInterest)
			assertDecimal(t, "TotalWithInterest", got.TotalWithInterest, tt.wantTotal)
			assertDecimal(t, "Repaid", got.Repaid, tt.amount)
			assertDecimal(t, "RemainingAmount", got.RemainingAmount, tt.wantRemaining)
			if got.DaysElapsed != 365 {
				t.Fatalf("DaysElapsed = %d, want 365", got.DaysElapsed)
			}
		})
	}
}

func TestCalculateBalanceOverRepaymentGoesNegative(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "100"),
		AnnualRate: decimal.Zero,
		StartedAt:  interestStart,
		Repayments: []Repayment{
			{Amount: dec(t, "150"), PaidAt: interestStart.AddDate(0, 0, 10)},
		},
	}

	got := CalculateBalance(terms, interestStart.AddDate(0, 0, 20))

	assertDecimal(t, "RemainingAmount", got.RemainingAmount, "-50")
	if !got.Overpaid() {
		t.Fatal("expected Overpaid to be true")
	}
	if !got.IsSettled() {
		t.Fatal("expected IsSettled to be true")
	}
}

func TestCalculateBalanceBeforeStartAccruesNothing(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: dec(t, "20"),
		StartedAt:  interestStart,
	}

	got := CalculateBalance(terms, interestStart.AddDate(0, 0, -30))

	assertDecimal(t, "TotalWithInterest", got.TotalWithInterest, "1000")
	if got.DaysElapsed != 0 {
		t.Fatalf("DaysElapsed = %d, want 0", got.DaysElapsed)
	}
}

func TestDaysElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int64
	}{
		{name: "same instant", from: interestStart, to: interestStart, want: 0},
		{name: "reversed", from: interestStart, to: interestStart.Add(-time.Hour), want: 0},
		{name: "partial day truncates", from: interestStart, to: interestStart.Add(47 * time.Hour), want: 1},
		{name: "one year", from: interestStart, to: interestStart.AddDate(0, 0, 365), want: 365},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DaysElapsed(tt.from, tt.to); got != tt.want {
				t.Fatalf("DaysElapsed() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBalanceSeriesIgnoresFutureRepayments(t *testing.T) {
	t.Parallel()

	terms := DebtTerms{
		Principal:  dec(t, "1000"),
		AnnualRate: decimal.Zero,
		StartedAt:  interestStart,
		Repayments: []Repayment{
			{Amount: dec(t, "250"), PaidAt: interestStart.AddDate(0, 2, 0)},
		},
	}

	series := BalanceSeries(terms, []time.Time{
		interestStart.AddDate(0, 1, 0),
		interestStart.AddDate(0, 3, 0),
	})

	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	assertDecimal(t, "first remaining", series[0].RemainingAmount, "1000")
	assertDecimal(t, "second remaining", series[1].RemainingAmount, "750")
}
