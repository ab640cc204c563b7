package cache

import (
	"context"
	"time"

	"martcli/internal/domain"
)

type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.EarningsReport, bool, error)
	Set(ctx context.Context, key string, value *domain.EarningsReport, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.EarningsReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.EarningsReport, _ time.Duration) error {
	return nil
}
