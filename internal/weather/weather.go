// Package weather fetches current conditions through the todo server's
// weather proxy.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todoboard/internal/auth"
)

// Report is the subset of the One Call "current" block the widget shows.
type Report struct {
	Temp        float64
	FeelsLike   float64
	Humidity    int
	Description string
	Icon        string
}

type currentResponse struct {
	Current struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Weather   []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"current"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Gate, when set, adds the held credential. Weather failures never
	// open the login prompt.
	Gate *auth.Gate
}

func NewClient(baseURL string, gate *auth.Gate) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Gate:    gate,
	}
}

// Current fetches the conditions at lat/lon.
func (c *Client) Current(ctx context.Context, lat, lon float64, units string) (Report, error) {
	if units == "" {
		units = "metric"
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/weather?"+q.Encode(), nil)
	if err != nil {
		return Report{}, err
	}
	if c.Gate != nil {
		c.Gate.Authorize(req.Header)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("weather: status %d", resp.StatusCode)
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, fmt.Errorf("weather: decode: %w", err)
	}
	if len(body.Current.Weather) == 0 {
		return Report{}, errors.New("weather: no conditions in response")
	}
	return Report{
		Temp:        body.Current.Temp,
		FeelsLike:   body.Current.FeelsLike,
		Humidity:    body.Current.Humidity,
		Description: body.Current.Weather[0].Description,
		Icon:        body.Current.Weather[0].Icon,
	}, nil
}

// Line renders a report on one line, e.g. "☀ 12°C (feels 10°C) 80% clear sky".
func (r Report) Line() (string, error) {
	icon, err := IconFor(r.Icon)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d°C (feels %d°C) %d%% %s",
		icon.Glyph, int(math.Round(r.Temp)), int(math.Round(r.FeelsLike)), r.Humidity, r.Description), nil
}
