package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"frenchdriver/internal/domain/models"
)

var ErrNoRoute = errors.New("no route found")

// Route is a driving itinerary. Path holds [lat, lon] points when geometry
// was requested.
type Route struct {
	DistanceKm      float64      `json:"distance_km"`
	DurationMinutes int          `json:"duration_minutes"`
	Path            [][2]float64 `json:"path,omitempty"`
}

// Bounds returns the south-west and north-east corners of the path.
func (r Route) Bounds() (models.Coordinates, models.Coordinates, bool) {
	if len(r.Path) == 0 {
		return models.Coordinates{}, models.Coordinates{}, false
	}
	sw := models.Coordinates{Latitude: r.Path[0][0], Longitude: r.Path[0][1]}
	ne := sw
	for _, p := range r.Path[1:] {
		sw.Latitude = math.Min(sw.Latitude, p[0])
		sw.Longitude = math.Min(sw.Longitude, p[1])
		ne.Latitude = math.Max(ne.Latitude, p[0])
		ne.Longitude = math.Max(ne.Longitude, p[1])
	}
	return sw, ne, true
}

type Router struct {
	BaseURL string
	Client  *http.Client
}

func NewRouter(baseURL string) Router {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultRouterURL
	}
	return Router{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r Router) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry *struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route asks OSRM for the driving route from -> to. Distance is converted to
// kilometres and duration to minutes rounded up.
func (r Router) Route(ctx context.Context, from, to models.Coordinates, withGeometry bool) (Route, error) {
	overview := "overview=false"
	if withGeometry {
		overview = "overview=full&geometries=geojson"
	}
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		r.BaseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude, overview)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Route{}, err
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("route: %w", err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Route{}, fmt.Errorf("route: decode (status %d): %w", resp.StatusCode, err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		if body.Message != "" {
			return Route{}, fmt.Errorf("%w: %s", ErrNoRoute, body.Message)
		}
		return Route{}, ErrNoRoute
	}

	best := body.Routes[0]
	out := Route{
		DistanceKm:      best.Distance / 1000,
		DurationMinutes: int(math.Ceil(best.Duration / 60)),
	}
	if withGeometry && best.Geometry != nil {
		out.Path = make([][2]float64, 0, len(best.Geometry.Coordinates))
		for _, c := range best.Geometry.Coordinates {
			if len(c) < 2 {
				continue
			}
			out.Path = append(out.Path, [2]float64{c[1], c[0]})
		}
	}
	return out, nil
}
