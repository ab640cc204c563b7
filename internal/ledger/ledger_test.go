package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martcli/internal/domain"
	"martcli/internal/store"
	"martcli/internal/store/memory"
)

type mapCache struct {
	mu    sync.Mutex
	items map[string]domain.EarningsReport
	hits  int
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.EarningsReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &report, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.EarningsReport, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]domain.EarningsReport)
	}
	c.items[key] = *value
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(date time.Time, amount int64) domain.Sale {
	return domain.Sale{Date: date, Amount: amount}
}

func TestSummarizeWindows(t *testing.T) {
	today := day(2026, 10, 17)
	sales := []domain.Sale{
		sale(day(2026, 10, 3), 100),  // month, year
		sale(today, 300),             // all windows
		sale(day(2026, 10, 11), 7),   // today-6: week edge
		sale(day(2026, 10, 10), 11),  // today-7: outside week
		sale(day(2026, 9, 30), 50),   // year only
		sale(day(2025, 10, 17), 999), // none
		sale(today, 20),
	}

	report := Summarize(sales, today.Add(15*time.Hour))

	assert.Equal(t, "2026-10-17", report.Today)
	assert.Equal(t, int64(300+7+20), report.Weekly)
	assert.Equal(t, int64(100+300+7+11+20), report.Monthly)
	assert.Equal(t, int64(100+300+7+11+50+20), report.Yearly)
	assert.Equal(t, int64(100+300+7+11+50+999+20), report.Balance)
	assert.Equal(t, []domain.DailyTotal{
		{Date: "2026-10-03", Amount: 100},
		{Date: "2026-10-17", Amount: 320},
		{Date: "2026-10-11", Amount: 7},
		{Date: "2026-10-10", Amount: 11},
		{Date: "2026-09-30", Amount: 50},
		{Date: "2025-10-17", Amount: 999},
	}, report.Daily)
}

func TestSummarizeWeekCrossesYearBoundary(t *testing.T) {
	today := day(2027, 1, 2)
	report := Summarize([]domain.Sale{
		sale(day(2026, 12, 28), 40),
		sale(day(2026, 12, 27), 5),
		sale(today, 1),
	}, today)

	assert.Equal(t, int64(41), report.Weekly)
	assert.Equal(t, int64(1), report.Monthly)
	assert.Equal(t, int64(1), report.Yearly)
}

func TestSummarizeWindowsCoverTheirDailyTotals(t *testing.T) {
	today := day(2026, 10, 17)
	sales := make([]domain.Sale, 0, 60)
	for i := 0; i < 60; i++ {
		sales = append(sales, sale(today.AddDate(0, 0, -i), int64(i+1)))
	}
	report := Summarize(sales, today)

	var week, month, year int64
	for _, d := range report.Daily {
		date, err := time.Parse(domain.DateLayout, d.Date)
		require.NoError(t, err)
		if !date.Before(today.AddDate(0, 0, -6)) {
			week += d.Amount
		}
		if date.Month() == today.Month() && date.Year() == today.Year() {
			month += d.Amount
		}
		if date.Year() == today.Year() {
			year += d.Amount
		}
	}
	assert.GreaterOrEqual(t, report.Weekly, week)
	assert.GreaterOrEqual(t, report.Monthly, month)
	assert.GreaterOrEqual(t, report.Yearly, year)
	assert.LessOrEqual(t, report.Weekly, report.Monthly)
}

func TestRecordSaleAndBalance(t *testing.T) {
	repo := memory.New()
	l := New(repo, nil, 0, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	amounts := []int64{300, 0, 45, 1200}
	var want int64
	for _, a := range amounts {
		_, err := l.RecordSale(ctx, a, time.Date(2026, 10, 17, 18, 30, 0, 0, time.Local))
		require.NoError(t, err)
		want += a
	}
	assert.Equal(t, want, l.CurrentBalance())

	_, err := l.RecordSale(ctx, -1, time.Now())
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	stored, err := repo.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, stored, len(amounts))
	assert.Equal(t, "2026-10-17", stored[0].Date.Format(domain.DateLayout))

	reloaded := New(repo, nil, 0, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, want, reloaded.CurrentBalance())
	assert.Equal(t, []domain.DailyTotal{{Date: "2026-10-17", Amount: want}}, reloaded.DailySales())
}

func TestDailySalesFirstSeenOrder(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	for _, s := range []domain.Sale{
		sale(day(2026, 10, 17), 10),
		sale(day(2026, 10, 15), 5),
		sale(day(2026, 10, 17), 1),
	} {
		require.NoError(t, repo.CreateSale(ctx, s))
	}

	l := New(repo, nil, 0, nil)
	require.NoError(t, l.Load(ctx))
	assert.Equal(t, []domain.DailyTotal{
		{Date: "2026-10-17", Amount: 11},
		{Date: "2026-10-15", Amount: 5},
	}, l.DailySales())
}

func TestEarningsReportUsesCacheUntilNextSale(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	repo := memory.NewSeeded(now)
	reportCache := &mapCache{}
	l := New(repo, reportCache, time.Minute, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	first := l.EarningsReport(ctx, now)
	second := l.EarningsReport(ctx, now)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reportCache.hits)
	assert.Equal(t, int64(30+45), first.Weekly)

	_, err := l.RecordSale(ctx, 300, now)
	require.NoError(t, err)

	third := l.EarningsReport(ctx, now)
	assert.Equal(t, 1, reportCache.hits)
	assert.Equal(t, first.Weekly+300, third.Weekly)
	assert.Equal(t, first.Monthly+300, third.Monthly)
	assert.Equal(t, first.Yearly+300, third.Yearly)
}

func TestEarningsReportCacheKeyTracksSaleRows(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	shared := &mapCache{}

	storeA := memory.New()
	require.NoError(t, storeA.CreateSale(ctx, sale(day(2026, 10, 17), 300)))
	storeB := memory.New()
	require.NoError(t, storeB.CreateSale(ctx, sale(day(2025, 1, 1), 300)))

	a := New(storeA, shared, time.Minute, nil)
	require.NoError(t, a.Load(ctx))
	b := New(storeB, shared, time.Minute, nil)
	require.NoError(t, b.Load(ctx))

	reportA := a.EarningsReport(ctx, now)
	assert.Equal(t, int64(300), reportA.Weekly)

	reportB := b.EarningsReport(ctx, now)
	assert.Zero(t, shared.hits)
	assert.Zero(t, reportB.Weekly)
	assert.Zero(t, reportB.Yearly)
	assert.Equal(t, []domain.DailyTotal{{Date: "2025-01-01", Amount: 300}}, reportB.Daily)

	// Same count and balance, different rows after a reload.
	edited := memory.New()
	require.NoError(t, edited.CreateSale(ctx, sale(day(2026, 9, 1), 300)))
	a.repo = edited
	require.NoError(t, a.Load(ctx))
	reloaded := a.EarningsReport(ctx, now)
	assert.Zero(t, shared.hits)
	assert.Zero(t, reloaded.Weekly)
	assert.Equal(t, int64(300), reloaded.Yearly)

	again := b.EarningsReport(ctx, now)
	assert.Equal(t, 1, shared.hits)
	assert.Equal(t, reportB, again)
}
