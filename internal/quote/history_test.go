package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

type chartCall struct {
	interval model.ChartInterval
	from     time.Time
	to       time.Time
}

type fakeChart struct {
	series map[model.ChartInterval][]model.PricePoint
	errs   map[model.ChartInterval]error
	calls  []chartCall
}

func (f *fakeChart) Chart(_ context.Context, _ string, interval model.ChartInterval, from, to time.Time) ([]model.PricePoint, error) {
	f.calls = append(f.calls, chartCall{interval: interval, from: from, to: to})
	if err := f.errs[interval]; err != nil {
		return nil, err
	}
	return f.series[interval], nil
}

func TestHistoryDefaultIntervalNoFallbackNeeded(t *testing.T) {
	points := []model.PricePoint{{Ts: time.Now(), Price: 101}}
	chart := &fakeChart{series: map[model.ChartInterval][]model.PricePoint{model.FiveMinutes: points}}
	h := NewHistory(chart, logger.Nop{})

	got, err := h.Get(context.Background(), "aapl", model.FiveMinutes, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 1 || len(chart.calls) != 1 {
		t.Fatalf("expected one point from one call, got %d points, %d calls", len(got), len(chart.calls))
	}
}

func TestHistoryFallsBackOnceOnError(t *testing.T) {
	daily := []model.PricePoint{{Ts: time.Now(), Price: 99}}
	chart := &fakeChart{
		series: map[model.ChartInterval][]model.PricePoint{model.OneDay: daily},
		errs:   map[model.ChartInterval]error{model.FiveMinutes: model.ProviderUnavailableError},
	}
	h := NewHistory(chart, logger.Nop{})

	got, err := h.Get(context.Background(), "AAPL", model.FiveMinutes, 7)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected daily series, got %d points", len(got))
	}
	if len(chart.calls) != 2 {
		t.Fatalf("expected exactly one fallback call, got %d calls", len(chart.calls))
	}
	if chart.calls[1].interval != model.OneDay {
		t.Fatalf("fallback should use the daily interval, got %s", chart.calls[1].interval)
	}
	// Both attempts cover the same period.
	if !chart.calls[0].from.Equal(chart.calls[1].from) || !chart.calls[0].to.Equal(chart.calls[1].to) {
		t.Fatalf("fallback should keep the same period: %+v vs %+v", chart.calls[0], chart.calls[1])
	}
}

func TestHistoryFallsBackOnEmptySeries(t *testing.T) {
	daily := []model.PricePoint{{Ts: time.Now(), Price: 99}}
	chart := &fakeChart{series: map[model.ChartInterval][]model.PricePoint{model.OneDay: daily}}
	h := NewHistory(chart, logger.Nop{})

	got, err := h.Get(context.Background(), "AAPL", model.FiveMinutes, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 1 || len(chart.calls) != 2 {
		t.Fatalf("expected fallback on empty series, got %d points, %d calls", len(got), len(chart.calls))
	}
}

func TestHistoryPropagatesSecondFailure(t *testing.T) {
	chart := &fakeChart{errs: map[model.ChartInterval]error{
		model.FiveMinutes: model.ProviderUnavailableError,
		model.OneDay:      model.ProviderTimeoutError,
	}}
	h := NewHistory(chart, logger.Nop{})

	_, err := h.Get(context.Background(), "AAPL", model.FiveMinutes, 1)
	if !errors.Is(err, model.ProviderTimeoutError) {
		t.Fatalf("expected the fallback's error, got %v", err)
	}
	if len(chart.calls) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(chart.calls))
	}
}

func TestHistoryNonDefaultIntervalNeverFallsBack(t *testing.T) {
	chart := &fakeChart{errs: map[model.ChartInterval]error{model.OneDay: model.ProviderUnavailableError}}
	h := NewHistory(chart, logger.Nop{})

	_, err := h.Get(context.Background(), "AAPL", model.OneDay, 30)
	if !errors.Is(err, model.ProviderUnavailableError) {
		t.Fatalf("expected the provider error, got %v", err)
	}
	if len(chart.calls) != 1 {
		t.Fatalf("non-default interval must be tried exactly once, got %d calls", len(chart.calls))
	}
}

func TestHistoryRejectsNonPositivePeriod(t *testing.T) {
	h := NewHistory(&fakeChart{}, logger.Nop{})
	if _, err := h.Get(context.Background(), "AAPL", model.FiveMinutes, 0); !errors.Is(err, model.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
