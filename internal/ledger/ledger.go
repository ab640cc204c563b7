// Package ledger owns the append-only sales log and its date-bucketed
// earnings aggregation.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"martcli/internal/cache"
	"martcli/internal/domain"
	"martcli/internal/logger"
	"martcli/internal/store"
)

// WeekDays is the length of the rolling weekly window, today included.
const WeekDays = 7

type Ledger struct {
	repo     store.SaleStore
	sales    []domain.Sale
	digest   *xxhash.Digest
	cache    cache.ReportCache
	cacheTTL time.Duration
	log      *zap.Logger
}

func New(repo store.SaleStore, reportCache cache.ReportCache, cacheTTL time.Duration, log *zap.Logger) *Ledger {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Ledger{
		repo:     repo,
		digest:   xxhash.New(),
		cache:    reportCache,
		cacheTTL: cacheTTL,
		log:      logger.OrNop(log),
	}
}

func (l *Ledger) Load(ctx context.Context) error {
	sales, err := l.repo.ListSales(ctx)
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}
	l.sales = sales
	l.digest.Reset()
	for _, s := range sales {
		l.hashSale(s)
	}
	return nil
}

// RecordSale appends one sale event dated on the calendar day of date.
func (l *Ledger) RecordSale(ctx context.Context, amount int64, date time.Time) (domain.Sale, error) {
	if amount < 0 {
		return domain.Sale{}, fmt.Errorf("sale amount must not be negative: %w", store.ErrInvalidInput)
	}
	sale := domain.Sale{Date: domain.CalendarDate(date), Amount: amount}
	if err := l.repo.CreateSale(ctx, sale); err != nil {
		return domain.Sale{}, fmt.Errorf("record sale: %w", err)
	}
	l.sales = append(l.sales, sale)
	l.hashSale(sale)

	l.log.Info("sale recorded", zap.String("date", sale.Date.Format(domain.DateLayout)), zap.Int64("amount", amount))
	return sale, nil
}

// CurrentBalance is the lifetime revenue: the sum of every recorded sale.
func (l *Ledger) CurrentBalance() int64 {
	var total int64
	for _, s := range l.sales {
		total += s.Amount
	}
	return total
}

// DailySales sums amounts per date, in the order each date first appears.
func (l *Ledger) DailySales() []domain.DailyTotal {
	return dailyTotals(l.sales)
}

// EarningsReport aggregates the ledger relative to today. Cache keys carry a
// digest of every sale row, so two ledgers share a cached report only when
// they hold the same sales in the same order.
func (l *Ledger) EarningsReport(ctx context.Context, today time.Time) domain.EarningsReport {
	day := domain.CalendarDate(today)
	key := reportKey(day, l.digest.Sum64())

	if cached, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		return *cached
	} else if err != nil {
		l.log.Warn("earnings cache read failed", zap.Error(err))
	}

	report := Summarize(l.sales, day)
	if err := l.cache.Set(ctx, key, &report, l.cacheTTL); err != nil {
		l.log.Warn("earnings cache write failed", zap.Error(err))
	}
	return report
}

// Summarize computes daily totals and the weekly, monthly and yearly windows
// ending at today in a single pass. The windows overlap: a sale dated today
// counts in all three.
func Summarize(sales []domain.Sale, today time.Time) domain.EarningsReport {
	day := domain.CalendarDate(today)
	weekStart := day.AddDate(0, 0, -(WeekDays - 1))

	report := domain.EarningsReport{Today: day.Format(domain.DateLayout)}
	daily := newDailyAccumulator()
	for _, s := range sales {
		date := domain.CalendarDate(s.Date)
		daily.add(date, s.Amount)

		if !date.Before(weekStart) && !date.After(day) {
			report.Weekly += s.Amount
		}
		if date.Year() == day.Year() && date.Month() == day.Month() {
			report.Monthly += s.Amount
		}
		if date.Year() == day.Year() {
			report.Yearly += s.Amount
		}
		report.Balance += s.Amount
	}
	report.Daily = daily.totals
	return report
}

func dailyTotals(sales []domain.Sale) []domain.DailyTotal {
	daily := newDailyAccumulator()
	for _, s := range sales {
		daily.add(domain.CalendarDate(s.Date), s.Amount)
	}
	return daily.totals
}

// dailyAccumulator groups amounts by date, keeping first-seen order.
type dailyAccumulator struct {
	totals []domain.DailyTotal
	index  map[string]int
}

func newDailyAccumulator() *dailyAccumulator {
	return &dailyAccumulator{
		totals: make([]domain.DailyTotal, 0, 16),
		index:  make(map[string]int),
	}
}

func (a *dailyAccumulator) add(date time.Time, amount int64) {
	key := date.Format(domain.DateLayout)
	if i, ok := a.index[key]; ok {
		a.totals[i].Amount += amount
		return
	}
	a.index[key] = len(a.totals)
	a.totals = append(a.totals, domain.DailyTotal{Date: key, Amount: amount})
}

// hashSale feeds one "date,amount" row into the running digest.
func (l *Ledger) hashSale(s domain.Sale) {
	row := make([]byte, 0, 32)
	row = domain.CalendarDate(s.Date).AppendFormat(row, domain.DateLayout)
	row = append(row, ',')
	row = strconv.AppendInt(row, s.Amount, 10)
	row = append(row, '\n')
	_, _ = l.digest.Write(row)
}

func reportKey(day time.Time, digest uint64) string {
	return fmt.Sprintf("earnings:%s:%016x", day.Format(domain.DateLayout), digest)
}
