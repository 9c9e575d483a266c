package model

import "time"

// Quote is the narrowed projection of a provider quote that gets cached
// and served. Anything the provider sends beyond these fields is dropped.
type Quote struct {
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
	Volume        int64   `json:"volume"`
	Currency      string  `json:"currency"`
}

type PricePoint struct {
	Ts    time.Time `json:"time"`
	Price float64   `json:"price"`
}

type ChartInterval string

const (
	FiveMinutes ChartInterval = "5m"
	OneDay      ChartInterval = "1d"
)
