// Package openweathermap implements weather.Provider against the OpenWeatherMap
// current weather and One Call APIs, in imperial units.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavecast/pavecast/internal/provider/resilience"
	"github.com/pavecast/pavecast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultOneCallURL is the OpenWeatherMap One Call API 3.0 URL.
	DefaultOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"

	// units requested from the provider; normalization assumes imperial.
	units = "imperial"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4 << 10
)

// Doer sends an HTTP request. *http.Client and *resilience.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// OneCallURL is the One Call API URL (optional, defaults to One Call 3.0).
	OneCallURL string

	// HTTPClient sends requests (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient Doer

	// Now is the clock used to stamp alerts relative to (optional).
	Now func() time.Time

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	oneCallURL string
	httpClient Doer
	now        func() time.Time
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	oneCallURL := cfg.OneCallURL
	if oneCallURL == "" {
		oneCallURL = DefaultOneCallURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		oneCallURL: oneCallURL,
		httpClient: httpClient,
		now:        now,
		logger:     cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchCurrent fetches current conditions for a location.
func (c *Client) FetchCurrent(ctx context.Context, lat, lng float64) (*weather.CurrentConditions, error) {
	const op = "current"

	var resp currentResponse
	if err := c.get(ctx, op, c.baseURL+"/weather", lat, lng, "", &resp); err != nil {
		return nil, err
	}
	if resp.Main == nil {
		return nil, c.malformed(op, errors.New("missing main block"))
	}

	current := normalizeCurrent(&resp, c.now())
	return &current, nil
}

// FetchForecast fetches the hourly and daily forecast, including alerts, in one call.
func (c *Client) FetchForecast(ctx context.Context, lat, lng float64) (*weather.Forecast, error) {
	const op = "forecast"

	var resp oneCallResponse
	if err := c.get(ctx, op, c.oneCallURL, lat, lng, "minutely", &resp); err != nil {
		return nil, err
	}
	if resp.Hourly == nil && resp.Daily == nil {
		return nil, c.malformed(op, errors.New("missing hourly and daily series"))
	}

	return normalizeForecast(&resp, lat, lng, c.now()), nil
}

// FetchAlerts fetches active alerts for a location.
func (c *Client) FetchAlerts(ctx context.Context, lat, lng float64) ([]weather.WeatherAlert, error) {
	const op = "alerts"

	var resp oneCallResponse
	if err := c.get(ctx, op, c.oneCallURL, lat, lng, "current,minutely,hourly,daily", &resp); err != nil {
		return nil, err
	}

	return normalizeAlerts(resp.Alerts), nil
}

// get issues a GET request and decodes a JSON body into dest.
func (c *Client) get(ctx context.Context, op, endpoint string, lat, lng float64, exclude string, dest any) error {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	query.Set("appid", c.apiKey)
	query.Set("units", units)
	if exclude != "" {
		query.Set("exclude", exclude)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return c.upstreamError(op, weather.KindTransport, 0, "creating request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.upstreamError(op, weather.KindTransport, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.upstreamError(op, weather.KindHTTP, resp.StatusCode, errorMessage(resp), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return c.malformed(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *Client) malformed(op string, err error) error {
	return c.upstreamError(op, weather.KindMalformed, 0, "unexpected response shape", err)
}

func (c *Client) upstreamError(op string, kind weather.UpstreamErrorKind, status int, msg string, err error) error {
	c.logger.Debug().
		Err(err).
		Str("operation", op).
		Str("kind", string(kind)).
		Int("status", status).
		Msg(msg)

	return &weather.UpstreamError{
		Provider:   ProviderName,
		Operation:  op,
		Kind:       kind,
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}

// errorMessage extracts the provider's error message, falling back to the status text.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return http.StatusText(resp.StatusCode)
}
