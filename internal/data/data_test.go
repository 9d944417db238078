package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dca-backtest/internal/model"
)

func TestReadBarsCSV(t *testing.T) {
	in := strings.NewReader(`date,close,high,low
2020-01-06,100.5,101,99.8
2020-01-07,102,,
`)
	bars, err := ReadBarsCSV(in)
	if err != nil {
		t.Fatalf("ReadBarsCSV: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if bars[0].Close != 100.5 || bars[0].High != 101 || bars[0].Low != 99.8 {
		t.Errorf("bar 0 = %+v", bars[0])
	}
	if bars[1].Close != 102 || bars[1].High != 0 {
		t.Errorf("bar 1 = %+v", bars[1])
	}

	if _, err := ReadBarsCSV(strings.NewReader("2020-01-06,not-a-number\n")); err == nil {
		t.Error("bad close accepted")
	}
}

func TestLoadDividendsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "divs.csv")
	content := "date,amount\n2020-03-20,0.75\n2020-01-10,0.70\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	divs, err := LoadDividendsCSV(path)
	if err != nil {
		t.Fatalf("LoadDividendsCSV: %v", err)
	}
	if len(divs) != 2 {
		t.Fatalf("dividends = %d, want 2", len(divs))
	}
	if !divs[0].Date.Before(divs[1].Date) {
		t.Errorf("dividends not sorted ascending: %+v", divs)
	}
	if divs[0].PerShare != 0.70 {
		t.Errorf("first amount = %.2f, want 0.70", divs[0].PerShare)
	}
}

func TestCache_RoundTripAndMiss(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := cache.Load("SPY", start, end); ok {
		t.Fatal("cold cache reported a hit")
	}

	bars := []model.Bar{
		{Date: time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), Close: 100, High: 101, Low: 99},
		{Date: time.Date(2020, 1, 7, 0, 0, 0, 0, time.UTC), Close: 102},
	}
	if err := cache.Store("SPY", start, end, bars); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok := cache.Load("SPY", start, end)
	if !ok {
		t.Fatal("stored window missed")
	}
	if len(got) != 2 || got[0].Close != 100 || got[1].Close != 102 {
		t.Errorf("loaded bars = %+v", got)
	}

	// A different window is a different entry.
	if _, ok := cache.Load("SPY", start, end.AddDate(0, 1, 0)); ok {
		t.Error("different window reported a hit")
	}
}

func TestNewCache_EmptyDirDisables(t *testing.T) {
	cache, err := NewCache("")
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if cache != nil {
		t.Error("empty dir produced a cache")
	}
}

const chartJSON = `{"chart":{"result":[{
  "timestamp":[1578268800,1578355200],
  "indicators":{"quote":[{
    "close":[100.5,null],
    "high":[101.0,103.0],
    "low":[99.0,101.5]
  }]},
  "events":{"dividends":{"1578268800":{"amount":0.75,"date":1578268800}}}
}],"error":null}}`

func TestYahooClient_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/QQQ") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.BaseURL = srv.URL

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	bars, err := c.FetchDaily(context.Background(), "QQQ", start, end)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	// The null close is dropped.
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1", len(bars))
	}
	if bars[0].Close != 100.5 || bars[0].High != 101 || bars[0].Low != 99 {
		t.Errorf("bar = %+v", bars[0])
	}
}

func TestYahooClient_FetchDividends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("events") != "div" {
			t.Errorf("dividend fetch missing events=div: %s", r.URL.RawQuery)
		}
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.BaseURL = srv.URL

	divs, err := c.FetchDividends(context.Background(), "QQQ",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDividends: %v", err)
	}
	if len(divs) != 1 || divs[0].PerShare != 0.75 {
		t.Errorf("dividends = %+v", divs)
	}
}

func TestYahooClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.BaseURL = srv.URL

	if _, err := c.FetchDaily(context.Background(), "NOPE",
		time.Now().AddDate(0, -1, 0), time.Now()); err == nil {
		t.Error("api error not surfaced")
	}
}

type fakeProvider struct {
	calls int
}

func (f *fakeProvider) FetchDaily(_ context.Context, _ string, _, _ time.Time) ([]model.Bar, error) {
	f.calls++
	return []model.Bar{{Date: time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), Close: 100}}, nil
}

func (f *fakeProvider) FetchDividends(_ context.Context, _ string, _, _ time.Time) ([]model.Dividend, error) {
	return nil, nil
}

func TestCachingProvider_FetchesOnce(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeProvider{}
	p := &CachingProvider{Provider: fake, Cache: cache}

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		bars, err := p.FetchDaily(context.Background(), "SPY", start, end)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(bars) != 1 {
			t.Fatalf("fetch %d: bars = %d, want 1", i, len(bars))
		}
	}
	if fake.calls != 1 {
		t.Errorf("provider called %d times, want 1", fake.calls)
	}
}
