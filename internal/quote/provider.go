package quote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/config"
	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_quoteURL = "/v7/finance/quote"
	_chartURL = "/v8/finance/chart/{symbol}"
)

// Provider is the HTTP client for the external quote source. Every call
// is rate limited and bounded by the configured request timeout.
type Provider struct {
	c           *resty.Client
	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewProvider(cfg config.ProviderConfig, logger logger.Logger) *Provider {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", "edutrade-backend/1.0")

	return &Provider{
		c:           client,
		rateLimiter: ratelimit.New(cfg.RequestsPerMin, ratelimit.Per(1*time.Minute)),
		logger:      logger,
	}
}

type quoteResult struct {
	Symbol        string  `json:"symbol"`
	ShortName     string  `json:"shortName"`
	LongName      string  `json:"longName"`
	Exchange      string  `json:"exchange"`
	Price         float64 `json:"regularMarketPrice"`
	Change        float64 `json:"regularMarketChange"`
	ChangePercent float64 `json:"regularMarketChangePercent"`
	PreviousClose float64 `json:"regularMarketPreviousClose"`
	Open          float64 `json:"regularMarketOpen"`
	DayHigh       float64 `json:"regularMarketDayHigh"`
	DayLow        float64 `json:"regularMarketDayLow"`
	MarketState   string  `json:"marketState"`
	MarketCap     float64 `json:"marketCap"`
	Volume        int64   `json:"regularMarketVolume"`
	Currency      string  `json:"currency"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"quoteResponse"`
}

func (r quoteResult) toModel() model.Quote {
	return model.Quote{
		Symbol:        r.Symbol,
		ShortName:     r.ShortName,
		LongName:      r.LongName,
		Exchange:      r.Exchange,
		Price:         r.Price,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		PreviousClose: r.PreviousClose,
		Open:          r.Open,
		DayHigh:       r.DayHigh,
		DayLow:        r.DayLow,
		MarketState:   r.MarketState,
		MarketCap:     r.MarketCap,
		Volume:        r.Volume,
		Currency:      r.Currency,
	}
}

func (p *Provider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	quotes, err := p.Quotes(ctx, []string{symbol})
	if err != nil {
		return model.Quote{}, err
	}
	return quotes[0], nil
}

func (p *Provider) Quotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", model.ValidationError)
	}

	p.rateLimiter.Take()
	resp, err := p.c.R().
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&quoteResponse{}).
		SetContext(ctx).
		Get(_quoteURL)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	p.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: quote request status %s", model.ProviderUnavailableError, resp.Status())
	}

	result := resp.Result().(*quoteResponse).QuoteResponse
	if len(result.Result) == 0 {
		return nil, fmt.Errorf("%w: no quotes for %s", model.PriceUnavailableError, strings.Join(symbols, ","))
	}

	quotes := make([]model.Quote, len(result.Result))
	for i, r := range result.Result {
		quotes[i] = r.toModel()
	}
	return quotes, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

func (p *Provider) Chart(ctx context.Context, symbol string, interval model.ChartInterval, from, to time.Time) ([]model.PricePoint, error) {
	p.rateLimiter.Take()
	resp, err := p.c.R().
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":  fmt.Sprintf("%d", from.Unix()),
			"period2":  fmt.Sprintf("%d", to.Unix()),
			"interval": string(interval),
		}).
		SetResult(&chartResponse{}).
		SetContext(ctx).
		Get(_chartURL)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	p.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: chart request status %s", model.ProviderUnavailableError, resp.Status())
	}

	chart := resp.Result().(*chartResponse).Chart
	if len(chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no chart result for %s", model.ProviderUnavailableError, symbol)
	}

	result := chart.Result[0]
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) != len(result.Timestamp) {
		return nil, fmt.Errorf("%w: invalid chart data for %s", model.ProviderUnavailableError, symbol)
	}

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		points = append(points, model.PricePoint{
			Ts:    time.Unix(ts, 0).UTC(),
			Price: result.Indicators.Quote[0].Close[i],
		})
	}
	return points, nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s", model.ProviderTimeoutError, err)
	}
	return fmt.Errorf("%w: %s", model.ProviderUnavailableError, err)
}
