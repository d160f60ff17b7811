package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_gateway/internal/models"
)

// Client — REST-клиент провайдера рыночных данных. Каждый вызов идёт с контекстом
// вызывающего: таймауты навешивает enrichment, не клиент.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *QuoteCache
}

func NewClient(baseURL, apiKey string, cache *QuoteCache) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
		cache:   cache,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do")
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	if err := sonic.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	return nil
}

func (c *Client) GetStockPrice(ctx context.Context, symbol string) (float64, error) {
	// свежая котировка из ws-стрима избавляет от похода в REST
	if px, ok := c.cache.Get(symbol); ok {
		return px, nil
	}

	var r struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/v1/quote", q, &r); err != nil {
		return 0, errors.Wrap(err, "GetStockPrice")
	}
	if r.Price <= 0 {
		return 0, errors.Errorf("GetStockPrice: bad price %f for %s", r.Price, symbol)
	}
	c.cache.Put(symbol, r.Price)
	return r.Price, nil
}

func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	var r struct {
		Candles []struct {
			O  float64 `json:"o"`
			H  float64 `json:"h"`
			L  float64 `json:"l"`
			C  float64 `json:"c"`
			V  float64 `json:"v"`
			TS int64   `json:"ts"`
		} `json:"candles"`
	}
	q := url.Values{
		"symbol":   {symbol},
		"interval": {timeframe},
		"limit":    {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, "/v1/candles", q, &r); err != nil {
		return nil, errors.Wrap(err, "GetCandles")
	}

	out := make([]models.Candle, 0, len(r.Candles))
	for _, k := range r.Candles {
		start := time.Unix(k.TS, 0)
		out = append(out, models.Candle{
			Open: k.O, High: k.H, Low: k.L, Close: k.C, Volume: k.V,
			Start: start,
		})
	}
	return out, nil
}

func (c *Client) GetIndicators(ctx context.Context, symbol, timeframe string) (*models.Indicators, error) {
	var r struct {
		EMAShort  float64 `json:"ema_short"`
		EMALong   float64 `json:"ema_long"`
		ATR       float64 `json:"atr"`
		RSI       float64 `json:"rsi"`
		SqueezeOn bool    `json:"squeeze_on"`
	}
	q := url.Values{"symbol": {symbol}, "interval": {timeframe}}
	if err := c.get(ctx, "/v1/indicators", q, &r); err != nil {
		return nil, errors.Wrap(err, "GetIndicators")
	}
	return &models.Indicators{
		EMAShort: r.EMAShort, EMALong: r.EMALong,
		ATR: r.ATR, RSI: r.RSI, SqueezeOn: r.SqueezeOn,
	}, nil
}

func (c *Client) GetMarketHours(ctx context.Context) (*models.MarketHours, error) {
	var r struct {
		IsOpen    bool   `json:"is_open"`
		Session   string `json:"session"`
		NextOpen  int64  `json:"next_open"`
		NextClose int64  `json:"next_close"`
	}
	if err := c.get(ctx, "/v1/market/hours", nil, &r); err != nil {
		return nil, errors.Wrap(err, "GetMarketHours")
	}

	out := &models.MarketHours{
		IsOpen:  r.IsOpen,
		Session: models.SessionType(r.Session),
	}
	if r.NextOpen > 0 {
		out.NextOpen = time.Unix(r.NextOpen, 0)
	}
	if r.NextClose > 0 {
		out.NextClose = time.Unix(r.NextClose, 0)
	}
	return out, nil
}

var _ Provider = (*Client)(nil)
