// Package market looks up cryptocurrency quotes from the CoinMarketCap API
// and formats them for Discord embeds.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cutesocks/socksbot/internal/config"
)

// DefaultEndpoint is the CoinMarketCap v2 latest-quotes URL.
const DefaultEndpoint = "https://pro-api.coinmarketcap.com/v2/cryptocurrency/quotes/latest"

// auxFields requests the supply figures the embed renders.
const auxFields = "max_supply,circulating_supply,total_supply,market_cap_by_total_supply"

// Quote is one asset's quote as returned by the API.
type Quote struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Slug              string   `json:"slug"`
	CirculatingSupply float64  `json:"circulating_supply"`
	TotalSupply       float64  `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`
	Quote             QuoteLeg `json:"quote"`
}

// QuoteLeg holds the per-currency legs of a quote; only USD is requested.
type QuoteLeg struct {
	USD USDQuote `json:"USD"`
}

// USDQuote is the USD leg of a quote.
type USDQuote struct {
	Price            float64 `json:"price"`
	Volume24H        float64 `json:"volume_24h"`
	PercentChange1H  float64 `json:"percent_change_1h"`
	PercentChange24H float64 `json:"percent_change_24h"`
	PercentChange7D  float64 `json:"percent_change_7d"`
	MarketCap        float64 `json:"market_cap"`
}

// Client queries the quotes endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient builds a client from the market configuration.
func NewClient(cfg config.MarketConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Quotes fetches the latest USD quotes for a ticker symbol. A symbol can map
// to several assets; all of them come back in API order.
func (c *Client) Quotes(ctx context.Context, symbol string) ([]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("market: build request: %w", err)
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("aux", auxFields)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data map[string][]Quote `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("market: decode response: %w", err)
	}

	quotes, ok := payload.Data[symbol]
	if !ok || len(quotes) == 0 {
		return nil, fmt.Errorf("market: no quotes for symbol %q", symbol)
	}
	return quotes, nil
}

// IconURL returns the CoinMarketCap asset icon for an asset id.
func IconURL(id int64) string {
	return fmt.Sprintf("https://s2.coinmarketcap.com/static/img/coins/64x64/%d.png", id)
}
