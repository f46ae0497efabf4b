package handlers

import (
	"errors"
	"net/http"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/geo"

	"github.com/gin-gonic/gin"
)

// GET /api/geo/search?q=
func (h *Handlers) GeoSearch(c *gin.Context) {
	if h.Geo.Searcher == nil {
		respondError(c, http.StatusServiceUnavailable, "geo_unavailable", "Recherche d'adresse indisponible.", nil)
		return
	}
	out, err := h.Geo.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, http.StatusBadGateway, "geocoder_failed", "Le service d'adresses ne répond pas.", nil)
		return
	}
	respondOK(c, http.StatusOK, out)
}

// GET /api/geo/route?from_lat&from_lon&to_lat&to_lon[&geometry=false]
func (h *Handlers) GeoRoute(c *gin.Context) {
	if h.Geo.Router == nil {
		respondError(c, http.StatusServiceUnavailable, "geo_unavailable", "Calcul d'itinéraire indisponible.", nil)
		return
	}
	fromLat, ok1 := queryFloat(c, "from_lat")
	fromLon, ok2 := queryFloat(c, "from_lon")
	toLat, ok3 := queryFloat(c, "to_lat")
	toLon, ok4 := queryFloat(c, "to_lon")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		respondError(c, http.StatusBadRequest, "validation_error", "Coordonnées de départ et d'arrivée requises.", nil)
		return
	}
	withGeometry := c.DefaultQuery("geometry", "true") != "false"

	route, err := h.Geo.Route(c.Request.Context(),
		models.Coordinates{Latitude: fromLat, Longitude: fromLon},
		models.Coordinates{Latitude: toLat, Longitude: toLon},
		withGeometry)
	if err != nil {
		if errors.Is(err, geo.ErrNoRoute) {
			respondError(c, http.StatusNotFound, "no_route", "Aucun itinéraire trouvé.", nil)
			return
		}
		respondError(c, http.StatusBadGateway, "router_failed", "Le service d'itinéraire ne répond pas.", nil)
		return
	}
	body := gin.H{
		"distance_km":      route.DistanceKm,
		"duration_minutes": route.DurationMinutes,
		"path":             route.Path,
	}
	if sw, ne, ok := route.Bounds(); ok {
		body["bounds"] = []models.Coordinates{sw, ne}
	}
	respondOK(c, http.StatusOK, body)
}
