package pricing

import (
	"fmt"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/utils"
)

// Tariff is a per-vehicle price grid.
type Tariff struct {
	Base   float64
	PerKm  float64
	PerMin float64
}

var tariffs = map[models.VehicleType]Tariff{
	models.VehicleEco:      {Base: 5, PerKm: 1.5, PerMin: 0.40},
	models.VehicleBerline:  {Base: 7, PerKm: 1.8, PerMin: 0.45},
	models.VehicleVan:      {Base: 8, PerKm: 2.0, PerMin: 0.5},
	models.VehicleGoldwing: {Base: 8, PerKm: 2.0, PerMin: 0.5},
}

// TariffFor returns the grid of v; unknown types use the eco grid.
func TariffFor(v models.VehicleType) Tariff {
	if t, ok := tariffs[v]; ok {
		return t
	}
	return tariffs[models.VehicleEco]
}

// Price applies the grid to a distance and a duration, rounded to cents.
func (t Tariff) Price(km float64, minutes int) float64 {
	return utils.Round2(t.Base + km*t.PerKm + float64(minutes)*t.PerMin)
}

// LocalQuote prices a route for vehicle v with the visitor tariffs.
func LocalQuote(v models.VehicleType, km float64, minutes int) float64 {
	return TariffFor(v).Price(km, minutes)
}

// FormatPrice renders a price with two decimals.
func FormatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}
