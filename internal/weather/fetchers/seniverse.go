package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/wfang22/weather-lookup/internal/logger"
	"github.com/wfang22/weather-lookup/internal/weather"
)

// SeniverseFetcher implements the weather.Fetcher interface for the
// Seniverse (心知天气) API. One Fetch call performs two sequential requests:
// current conditions first, then the daily forecast, and merges both into a
// single document with location, now and daily keys.
type SeniverseFetcher struct {
	apiKey  string
	baseURL string
	days    int
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewSeniverseFetcher creates a fetcher for the given credential and host.
// days controls the forecast window (the free tier supports 3).
func NewSeniverseFetcher(client *http.Client, apiKey, baseURL string, days int) *SeniverseFetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "seniverse",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if days <= 0 {
		days = 3
	}

	return &SeniverseFetcher{
		apiKey:  apiKey,
		baseURL: baseURL,
		days:    days,
		client:  client,
		circuit: cb,
		log:     logger.WithModule("fetcher"),
	}
}

// nowResult is the first element of the "now" endpoint's results array.
type nowResult struct {
	Location json.RawMessage `json:"location"`
	Now      json.RawMessage `json:"now"`
}

// dailyResult is the first element of the "daily" endpoint's results array.
type dailyResult struct {
	Daily json.RawMessage `json:"daily"`
}

// mergedDocument is the canonical shape consumed by the cache and decoder.
type mergedDocument struct {
	Location json.RawMessage `json:"location,omitempty"`
	Now      json.RawMessage `json:"now,omitempty"`
	Daily    json.RawMessage `json:"daily,omitempty"`
}

// Fetch runs the two-stage cycle for cityID and returns the merged document.
// All intermediate state lives in locals, so overlapping calls for different
// cities never share staging data.
func (f *SeniverseFetcher) Fetch(ctx context.Context, cityID string) ([]byte, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("seniverse api key is not configured")
	}

	log := f.log.With(zap.String("request_id", uuid.NewString()), zap.String("city_id", cityID))

	nowFirst, err := f.requestStage(ctx, f.endpoint("now.json", cityID, nil))
	if err != nil {
		log.Warn("now stage failed", zap.Error(err))
		return nil, fmt.Errorf("now stage: %w", err)
	}

	var np nowResult
	if err := json.Unmarshal(nowFirst, &np); err != nil {
		return nil, fmt.Errorf("now stage: %w: %v", weather.ErrInvalidFormat, err)
	}

	dailyFirst, err := f.requestStage(ctx, f.endpoint("daily.json", cityID, url.Values{
		"start": {"0"},
		"days":  {fmt.Sprintf("%d", f.days)},
	}))
	if err != nil {
		log.Warn("daily stage failed", zap.Error(err))
		return nil, fmt.Errorf("daily stage: %w", err)
	}

	var dp dailyResult
	if err := json.Unmarshal(dailyFirst, &dp); err != nil {
		return nil, fmt.Errorf("daily stage: %w: %v", weather.ErrInvalidFormat, err)
	}

	merged, err := json.Marshal(mergedDocument{
		Location: np.Location,
		Now:      np.Now,
		Daily:    dp.Daily,
	})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	log.Debug("fetch cycle completed", zap.Int("document_bytes", len(merged)))
	return merged, nil
}

// endpoint builds a v3 API URL with the shared key/location/language/unit
// parameters plus any stage-specific extras.
func (f *SeniverseFetcher) endpoint(resource, cityID string, extra url.Values) string {
	values := url.Values{}
	values.Set("key", f.apiKey)
	values.Set("location", cityID)
	values.Set("language", "zh-Hans")
	values.Set("unit", "c")
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/v3/weather/%s?%s", f.baseURL, resource, values.Encode())
}

// requestStage issues one GET through the circuit breaker and returns the
// first element of the response's results array.
func (f *SeniverseFetcher) requestStage(ctx context.Context, u string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	result, err := f.circuit.Execute(func() (interface{}, error) {
		resp, execErr := f.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
		}

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	var payload struct {
		Results *[]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Results == nil {
		return nil, weather.ErrInvalidFormat
	}
	if len(*payload.Results) == 0 {
		return nil, weather.ErrEmptyResult
	}

	return (*payload.Results)[0], nil
}
