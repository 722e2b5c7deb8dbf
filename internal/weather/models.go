package weather

import "errors"

// ErrIncomplete is returned when the upstream response is missing fields the
// owie log requires.
var ErrIncomplete = errors.New("incomplete weather data received from the API")

// Conditions is the normalized current-weather view extracted from the
// One Call response. Temperature is in degrees Fahrenheit (imperial units),
// pressure in hPa, precipitation in mm over the last hour.
type Conditions struct {
	ObservedAt         int64   `json:"observedAt"` // unix seconds
	Temperature        float64 `json:"temperature"`
	Pressure           float64 `json:"pressure"`
	Humidity           float64 `json:"humidity"`
	Precipitation      float64 `json:"precipitation"`
	UVIndex            float64 `json:"uvIndex"`
	WeatherID          int64   `json:"weatherId"`
	WeatherMain        string  `json:"weatherMain"`
	WeatherDescription string  `json:"weatherDescription"`
}

// oneCallResponse mirrors the subset of the OpenWeatherMap One Call 3.0
// payload this service reads. Required fields are pointers so that absent
// keys are distinguishable from zero values.
type oneCallResponse struct {
	Current struct {
		Dt       *int64   `json:"dt"`
		Temp     *float64 `json:"temp"`
		Pressure *float64 `json:"pressure"`
		Humidity *float64 `json:"humidity"`
		UVI      *float64 `json:"uvi"`
		Rain     struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
		Snow struct {
			OneH float64 `json:"1h"`
		} `json:"snow"`
		Weather []struct {
			ID          *int64  `json:"id"`
			Main        *string `json:"main"`
			Description *string `json:"description"`
		} `json:"weather"`
	} `json:"current"`
}

// conditions validates completeness and flattens the payload. Precipitation
// is the only optional field: rain takes precedence over snow, both absent
// means 0.
func (r *oneCallResponse) conditions() (Conditions, error) {
	cur := r.Current
	if cur.Dt == nil || cur.Temp == nil || cur.Pressure == nil ||
		cur.Humidity == nil || cur.UVI == nil || len(cur.Weather) == 0 {
		return Conditions{}, ErrIncomplete
	}

	w := cur.Weather[0]
	if w.ID == nil || w.Main == nil || w.Description == nil {
		return Conditions{}, ErrIncomplete
	}

	precip := cur.Rain.OneH
	if precip == 0 {
		precip = cur.Snow.OneH
	}

	return Conditions{
		ObservedAt:         *cur.Dt,
		Temperature:        *cur.Temp,
		Pressure:           *cur.Pressure,
		Humidity:           *cur.Humidity,
		Precipitation:      precip,
		UVIndex:            *cur.UVI,
		WeatherID:          *w.ID,
		WeatherMain:        *w.Main,
		WeatherDescription: *w.Description,
	}, nil
}
