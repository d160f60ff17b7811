package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_gateway/internal/models"
)

// Provider — деривативные снапшоты. Оба вызова best-effort: отказ провайдера
// оставляет поле пустым и никогда не валит сигнал.
type Provider interface {
	GetGexSnapshot(ctx context.Context, symbol string) (*models.GexSnapshot, error)
	GetOptionsFlowSnapshot(ctx context.Context, symbol string, limit int) (*models.OptionsFlowSummary, error)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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

func (c *Client) GetGexSnapshot(ctx context.Context, symbol string) (*models.GexSnapshot, error) {
	var r struct {
		NetGex         float64 `json:"net_gex"`
		TotalCallGex   float64 `json:"total_call_gex"`
		TotalPutGex    float64 `json:"total_put_gex"`
		ZeroGammaLevel float64 `json:"zero_gamma_level"`
		AsOf           int64   `json:"as_of"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/v1/gex", q, &r); err != nil {
		return nil, errors.Wrap(err, "GetGexSnapshot")
	}

	return &models.GexSnapshot{
		Symbol:         symbol,
		NetGex:         r.NetGex,
		TotalCallGex:   r.TotalCallGex,
		TotalPutGex:    r.TotalPutGex,
		ZeroGammaLevel: r.ZeroGammaLevel,
		DealerPosition: DealerPositionFromNetGex(r.NetGex),
		AsOf:           time.Unix(r.AsOf, 0),
	}, nil
}

// DealerPositionFromNetGex — знак net GEX определяет режим дилеров;
// узкая полоса около нуля считается нейтральной.
func DealerPositionFromNetGex(netGex float64) models.DealerPosition {
	const neutralBand = 1e6
	switch {
	case netGex > neutralBand:
		return models.DealerLongGamma
	case netGex < -neutralBand:
		return models.DealerShortGamma
	default:
		return models.DealerNeutral
	}
}

func (c *Client) GetOptionsFlowSnapshot(ctx context.Context, symbol string, limit int) (*models.OptionsFlowSummary, error) {
	var r struct {
		Entries []struct {
			Side    string  `json:"side"`
			Strike  float64 `json:"strike"`
			Premium float64 `json:"premium"`
			Volume  int64   `json:"volume"`
		} `json:"entries"`
		AsOf int64 `json:"as_of"`
	}
	q := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/v1/options/flow", q, &r); err != nil {
		return nil, errors.Wrap(err, "GetOptionsFlowSnapshot")
	}

	out := &models.OptionsFlowSummary{
		Symbol: symbol,
		AsOf:   time.Unix(r.AsOf, 0),
	}
	for _, e := range r.Entries {
		entry := models.OptionsFlowEntry{
			Side:    strings.ToLower(e.Side),
			Strike:  e.Strike,
			Premium: e.Premium,
			Volume:  e.Volume,
		}
		out.Entries = append(out.Entries, entry)
		switch entry.Side {
		case "call":
			out.CallPremium += entry.Premium
		case "put":
			out.PutPremium += entry.Premium
		}
	}
	return out, nil
}

var _ Provider = (*Client)(nil)
