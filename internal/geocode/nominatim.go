// Package geocode turns coordinates into street addresses using a
// Nominatim-compatible service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"baches/internal/metrics"
	"baches/internal/models"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "baches-dashboard/1.0"
)

var ErrNoResult = errors.New("no address for location")

// Reverser is implemented by Client and Cached.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (models.Address, error)
}

type Options struct {
	BaseURL   string
	UserAgent string
	// Rate is requests per second; Nominatim's public policy allows one.
	Rate    float64
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.Rate), 1),
		log:        log.With().Str("component", "geocode").Logger(),
	}
}

type reverseResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road          string `json:"road"`
		Pedestrian    string `json:"pedestrian"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
	} `json:"address"`
}

func (c *Client) Reverse(ctx context.Context, lat, lng float64) (models.Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Address{}, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("zoom", "18")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return models.Address{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "es")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("upstream", "error").Inc()
		return models.Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		metrics.GeocodeLookupsTotal.WithLabelValues("upstream", "error").Inc()
		return models.Address{}, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("upstream", "error").Inc()
		return models.Address{}, fmt.Errorf("decode geocoder response: %w", err)
	}
	if out.Error != "" {
		metrics.GeocodeLookupsTotal.WithLabelValues("upstream", "miss").Inc()
		return models.Address{}, fmt.Errorf("%w: %s", ErrNoResult, out.Error)
	}

	a := out.Address
	addr := models.Address{
		Road:          firstNonEmpty(a.Road, a.Pedestrian),
		Neighbourhood: firstNonEmpty(a.Neighbourhood, a.Suburb),
		City:          firstNonEmpty(a.City, a.Town, a.Village),
		State:         a.State,
		Postcode:      a.Postcode,
	}
	metrics.GeocodeLookupsTotal.WithLabelValues("upstream", "ok").Inc()
	c.log.Debug().Float64("lat", lat).Float64("lng", lng).Str("road", addr.Road).Msg("reverse geocoded")
	return addr, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
