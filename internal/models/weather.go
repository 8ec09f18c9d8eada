package models

// WeatherSnapshot carries the already-fetched weather signals. The provider
// is external and optional: a zero value means "no weather data", which the
// disaster scorer treats as a zero weather term.
type WeatherSnapshot struct {
	RainfallMM float64
	WindKPH    float64
}
