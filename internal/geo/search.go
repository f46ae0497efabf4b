// Package geo talks to the French national address API for autocomplete and
// to an OSRM server for driving routes.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultGeocoderURL = "https://api-adresse.data.gouv.fr"
	DefaultRouterURL   = "https://router.project-osrm.org"

	MinQueryLength = 3
	DefaultLimit   = 5
)

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type AddressSearcher struct {
	BaseURL string
	Client  *http.Client
}

func NewAddressSearcher(baseURL string) AddressSearcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGeocoderURL
	}
	return AddressSearcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 8 * time.Second},
	}
}

func (s AddressSearcher) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Search returns up to limit suggestions for query. Queries shorter than
// MinQueryLength return an empty list without calling the API.
func (s AddressSearcher) Search(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", fmt.Sprint(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/search/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("address search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address search: status %d", resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("address search: decode: %w", err)
	}

	out := make([]Suggestion, 0, len(fc.Features))
	for i, f := range fc.Features {
		c := f.Geometry.Coordinates
		if len(c) < 2 {
			continue
		}
		id := f.Properties.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", f.Properties.Label, i)
		}
		// GeoJSON order is [lon, lat]
		out = append(out, Suggestion{ID: id, Label: f.Properties.Label, Lat: c[1], Lon: c[0]})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
