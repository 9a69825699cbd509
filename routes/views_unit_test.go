// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/finance"
)

func TestLoadDashboardAggregatesCachesResult(t *testing.T) {
	userID := uuid.New()
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	calls := 0

	originalList := listCashFlowEntriesDBFn
	listCashFlowEntriesDBFn = func(_ context.Context, _ uuid.UUID, from, to time.Time) ([]finance.CashFlowEntry, error) {
		calls++

		if !from.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected range %v - %v", from, to)
		}

		return []finance.CashFlowEntry{
			{Kind: finance.EntryIncome, Category: "Salary", Amount: decimal.NewFromInt(1000), OccurredAt: month.AddDate(0, 0, 1)},
			{Kind: finance.EntryExpense, Category: "Food", Amount: decimal.NewFromInt(250), OccurredAt: month.AddDate(0, 0, 3)},
			{Kind: finance.EntryExpense, Category: "Rent", Amount: decimal.NewFromInt(400), OccurredAt: month.AddDate(0, -1, 3)},
		}, nil
	}

	t.Cleanup(func() {
		listCashFlowEntriesDBFn = originalList
	})

	store := cache.NewMemoryCache()
	ctx := context.Background()

	first, err := loadDashboardAggregates(ctx, store, userID, month)
	if err != nil {
		t.Fatalf("loadDashboardAggregates() error = %v", err)
	}

	if !first.Summary.Income.Equal(decimal.NewFromInt(1000)) || !first.Summary.Expenses.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected summary: %#v", first.Summary)
	}

	if len(first.History) != historyMonths {
		t.Fatalf("expected %d history months, got %d", historyMonths, len(first.History))
	}

	if !first.History[historyMonths-2].Expenses.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected previous month expenses in history, got %#v", first.History[historyMonths-2])
	}

	second, err := loadDashboardAggregates(ctx, store, userID, month)
	if err != nil {
		t.Fatalf("loadDashboardAggregates() second call error = %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected second load to hit the cache, got %d database calls", calls)
	}

	if !second.Summary.Net.Equal(first.Summary.Net) {
		t.Fatalf("cached net %s differs from computed net %s", second.Summary.Net, first.Summary.Net)
	}

	if err := store.DeletePrefix(ctx, cache.UserPrefix(userID.String())); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}

	if _, err := loadDashboardAggregates(ctx, store, userID, month); err != nil {
		t.Fatalf("loadDashboardAggregates() after invalidation error = %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected invalidation to force a reload, got %d database calls", calls)
	}
}

func TestLoadDashboardAggregatesPropagatesError(t *testing.T) {
	originalList := listCashFlowEntriesDBFn
	listCashFlowEntriesDBFn = func(context.Context, uuid.UUID, time.Time, time.Time) ([]finance.CashFlowEntry, error) {
		return nil, errTestBoom
	}

	t.Cleanup(func() {
		listCashFlowEntriesDBFn = originalList
	})

	store := cache.NewMemoryCache()
	userID := uuid.New()
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	if _, err := loadDashboardAggregates(context.Background(), store, userID, month); err == nil {
		t.Fatal("expected error from failing query")
	}

	if _, ok := store.Get(context.Background(), cache.SummaryKey(userID.String(), month)); ok {
		t.Fatal("expected failed load to leave the cache empty")
	}
}

func TestOpenDebts(t *testing.T) {
	t.Parallel()

	debts := []db.DebtWithBalance{
		{Debt: db.Debt{Counterparty: "open"}, Balance: finance.Balance{RemainingAmount: decimal.NewFromInt(10)}},
		{Debt: db.Debt{Counterparty: "settled"}, Balance: finance.Balance{RemainingAmount: decimal.Zero}},
		{Debt: db.Debt{Counterparty: "overpaid"}, Balance: finance.Balance{RemainingAmount: decimal.NewFromInt(-5)}},
	}

	open := openDebts(debts)
	if len(open) != 1 || open[0].Counterparty != "open" {
		t.Fatalf("unexpected open debts: %#v", open)
	}
}

func TestDebtChartPoints(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	points := debtChartPoints(start, end)

	want := []time.Time{
		start,
		time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		end,
	}

	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d: %v", len(want), len(points), points)
	}

	for i := range want {
		if !points[i].Equal(want[i]) {
			t.Fatalf("point %d = %v, want %v", i, points[i], want[i])
		}
	}

	if same := debtChartPoints(start, start); len(same) != 1 {
		t.Fatalf("expected a single point for a zero-length range, got %v", same)
	}

	if reversed := debtChartPoints(start, start.AddDate(0, 0, -3)); len(reversed) != 1 {
		t.Fatalf("expected end before start to clamp, got %v", reversed)
	}

	long := debtChartPoints(start, start.AddDate(20, 0, 0))
	if len(long) > maxDebtChartPoints+1 {
		t.Fatalf("expected at most %d points, got %d", maxDebtChartPoints+1, len(long))
	}

	if !long[0].Equal(start) || !long[len(long)-1].Equal(start.AddDate(20, 0, 0)) {
		t.Fatalf("expected thinned series to keep both ends, got %v .. %v", long[0], long[len(long)-1])
	}
}

func TestChartRenderers(t *testing.T) {
	t.Parallel()

	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	pie, err := renderCategoryPie("test_pie", []finance.CategoryTotal{
		{Category: "Food", Amount: decimal.NewFromInt(120)},
		{Category: "Rent", Amount: decimal.NewFromInt(900)},
	})
	if err != nil {
		t.Fatalf("renderCategoryPie() error = %v", err)
	}

	if !strings.Contains(string(pie), "test_pie") || !strings.Contains(string(pie), "Rent") {
		t.Fatalf("expected pie chart markup to mention the chart and categories")
	}

	bar, err := renderIncomeExpenseBar("test_bar", "AED", []finance.MonthTotals{
		{PeriodStart: month, Income: decimal.NewFromInt(1000), Expenses: decimal.NewFromInt(600)},
	})
	if err != nil {
		t.Fatalf("renderIncomeExpenseBar() error = %v", err)
	}

	if !strings.Contains(string(bar), "test_bar") {
		t.Fatalf("expected bar chart markup to contain its id")
	}

	line, err := renderDebtBalanceLine("test_line", "AED", []finance.Balance{
		{AsOf: month, RemainingAmount: decimal.NewFromInt(100)},
		{AsOf: month.AddDate(0, 1, 0), RemainingAmount: decimal.NewFromInt(50)},
	})
	if err != nil {
		t.Fatalf("renderDebtBalanceLine() error = %v", err)
	}

	if !strings.Contains(string(line), "test_line") {
		t.Fatalf("expected line chart markup to contain its id")
	}
}

func TestChartID(t *testing.T) {
	t.Parallel()

	got := chartID("debt_balance", "3f0c-12ab")
	if strings.Contains(got, "-") || !strings.HasPrefix(got, "debt_balance") {
		t.Fatalf("unexpected chart id %q", got)
	}
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{name: "healthy", wantCode: http.StatusOK, wantBody: "ok\n"},
		{name: "database down", pingErr: errTestBoom, wantCode: http.StatusServiceUnavailable, wantBody: "database unavailable\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalPing := pingDBFn
			pingDBFn = func(context.Context) error {
				return tt.pingErr
			}

			t.Cleanup(func() {
				pingDBFn = originalPing
			})

			f := flamego.New()
			f.Get("/healthz", Healthz)

			rec := httptest.NewRecorder()
			f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
				t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
			}
		})
	}
}

func newReportsTestApp(s session.Session, user CurrentUser) *flamego.Flame {
	f := flamego.New()
	f.Use(func(c flamego.Context) {
		c.MapTo(s, (*session.Session)(nil))
		c.Map(user)
		c.Next()
	})

	f.Get("/reports/transactions.csv", TransactionsCSV)
	f.Get("/reports/debts.csv", DebtsCSV)

	return f
}

func TestTransactionsCSVDownload(t *testing.T) {
	user := CurrentUser{ID: uuid.New(), Currency: "AED"}

	originalList := listTransactionsDBFn
	listTransactionsDBFn = func(_ context.Context, userID uuid.UUID, from, to time.Time) ([]db.Transaction, error) {
		if userID != user.ID {
			t.Errorf("unexpected user %s", userID)
		}

		if from.Format("2006-01") != "2026-02" || to.Format("2006-01") != "2026-03" {
			t.Errorf("unexpected range %v - %v", from, to)
		}

		return []db.Transaction{
			{Kind: finance.EntryIncome, Category: "Salary", AccountName: "Main", Amount: decimal.NewFromInt(1000), OccurredAt: from},
			{Kind: finance.EntryExpense, Category: "Food", Description: "Lunch", AccountName: "Main", Amount: mustDecimal(t, "12.5"), OccurredAt: from.AddDate(0, 0, 2)},
		}, nil
	}

	t.Cleanup(func() {
		listTransactionsDBFn = originalList
	})

	s := newTestSession()
	f := newReportsTestApp(s, user)

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/transactions.csv?month=2026-02", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="transactions-2026-02.csv"` {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}

	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("unexpected Content-Type %q", got)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", rec.Body.String())
	}

	if lines[0] != "date,type,category,description,account,amount" {
		t.Fatalf("unexpected header %q", lines[0])
	}

	if !strings.HasSuffix(lines[2], ",-12.50") {
		t.Fatalf("expected expense exported as negative amount, got %q", lines[2])
	}

	assertNoFlash(t, s)
}

func TestTransactionsCSVInvalidMonth(t *testing.T) {
	originalList := listTransactionsDBFn
	listTransactionsDBFn = func(context.Context, uuid.UUID, time.Time, time.Time) ([]db.Transaction, error) {
		return nil, errTestShouldNotBeCalled
	}

	t.Cleanup(func() {
		listTransactionsDBFn = originalList
	})

	s := newTestSession()
	f := newReportsTestApp(s, CurrentUser{ID: uuid.New()})

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/transactions.csv?month=02-2026", nil))

	assertRedirect(t, rec, "/reports")
	assertFlash(t, s, FlashError, "Invalid month")
}

func TestDebtsCSVDatabaseFailure(t *testing.T) {
	originalList := listDebtsDBFn
	listDebtsDBFn = func(context.Context, uuid.UUID, time.Time) ([]db.DebtWithBalance, error) {
		return nil, errTestBoom
	}

	t.Cleanup(func() {
		listDebtsDBFn = originalList
	})

	s := newTestSession()
	f := newReportsTestApp(s, CurrentUser{ID: uuid.New()})

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/debts.csv", nil))

	assertRedirect(t, rec, "/reports")
	assertFlash(t, s, FlashError, "Failed to export debts")
}
