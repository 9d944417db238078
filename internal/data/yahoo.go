package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dca-backtest/internal/model"
)

// Provider supplies daily price history and distributions for a symbol.
// The engine never fetches; a Provider feeds it at the boundary.
type Provider interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	FetchDividends(ctx context.Context, symbol string, start, end time.Time) ([]model.Dividend, error)
}

// YahooClient implements Provider against the Yahoo Finance chart API.
type YahooClient struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

func NewYahooClient() *YahooClient {
	return &YahooClient{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: "https://query1.finance.yahoo.com",
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (c *YahooClient) yahooSymbol(symbol string) string {
	if mapped, ok := c.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High  []interface{} `json:"high"`
					Low   []interface{} `json:"low"`
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol string, start, end time.Time, withDividends bool) (*yahooChart, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	if withDividends {
		q.Set("events", "div")
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.BaseURL, url.PathEscape(c.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}
	return &chart, nil
}

// FetchDaily returns raw daily bars over [start, end]. The bars are not
// normalized; run them through model.Normalize before simulating.
func (c *YahooClient) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	chart, err := c.fetchChart(ctx, symbol, start, end, false)
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no bars returned for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		b := model.Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: toFloat(quote.Close[i]),
		}
		if i < len(quote.High) {
			b.High = toFloat(quote.High[i])
		}
		if i < len(quote.Low) {
			b.Low = toFloat(quote.Low[i])
		}
		if b.Close <= 0 {
			continue // a null close is a market holiday or a data hole
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, model.ErrNoData)
	}
	return bars, nil
}

// FetchDividends returns the symbol's cash distributions over [start, end],
// sorted ascending.
func (c *YahooClient) FetchDividends(ctx context.Context, symbol string, start, end time.Time) ([]model.Dividend, error) {
	chart, err := c.fetchChart(ctx, symbol, start, end, true)
	if err != nil {
		return nil, err
	}
	events := chart.Chart.Result[0].Events
	divs := make([]model.Dividend, 0, len(events.Dividends))
	for _, d := range events.Dividends {
		divs = append(divs, model.Dividend{
			Date:     time.Unix(d.Date, 0).UTC(),
			PerShare: d.Amount,
		})
	}
	return model.SortDividends(divs), nil
}
