package owie

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bcosynot/ouch/internal/observability"
	"github.com/bcosynot/ouch/internal/weather"
)

var (
	// ErrWeatherFetch wraps any failure to obtain usable weather data.
	ErrWeatherFetch = errors.New("failed to fetch weather data")

	// ErrPersist wraps any failure to write the owie log row.
	ErrPersist = errors.New("failed to persist owie log")
)

// Entry is one logged owie event together with the weather in effect when it
// was reported.
type Entry struct {
	ID                 int64   `json:"id"`
	DateTime           int64   `json:"dateTime"` // unix seconds, from the weather observation
	BodyPart           string  `json:"bodyPart"`
	Temperature        float64 `json:"temperature"`
	Pressure           float64 `json:"pressure"`
	Humidity           float64 `json:"humidity"`
	Precipitation      float64 `json:"precipitation"`
	UVIndex            float64 `json:"uvIndex"`
	WeatherID          int64   `json:"weatherId"`
	WeatherMain        string  `json:"weatherMain"`
	WeatherDescription string  `json:"weatherDescription"`
}

// Fetcher abstracts the weather client.
type Fetcher interface {
	Current(ctx context.Context) (weather.Conditions, error)
}

// Store is the contract the SQLite store must satisfy.
type Store interface {
	Insert(ctx context.Context, entry Entry) (int64, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Service orchestrates fetching current conditions and persisting owie logs.
type Service struct {
	fetcher Fetcher
	store   Store
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, store Store, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		metrics: metrics,
		logger:  logger.With().Str("component", "owie").Logger(),
	}
}

// Log fetches current conditions and records an owie event for the given
// body part, returning the stored entry.
func (s *Service) Log(ctx context.Context, bodyPart string) (Entry, error) {
	cond, err := s.fetcher.Current(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("body_part", bodyPart).Msg("weather fetch failed")
		return Entry{}, fmt.Errorf("%w: %w", ErrWeatherFetch, err)
	}

	entry := Entry{
		DateTime:           cond.ObservedAt,
		BodyPart:           bodyPart,
		Temperature:        cond.Temperature,
		Pressure:           cond.Pressure,
		Humidity:           cond.Humidity,
		Precipitation:      cond.Precipitation,
		UVIndex:            cond.UVIndex,
		WeatherID:          cond.WeatherID,
		WeatherMain:        cond.WeatherMain,
		WeatherDescription: cond.WeatherDescription,
	}

	id, err := s.store.Insert(ctx, entry)
	if err != nil {
		s.metrics.InsertErrors.Inc()
		s.logger.Error().Err(err).Str("body_part", bodyPart).Msg("insert failed")
		return Entry{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	entry.ID = id

	s.metrics.OwiesLogged.Inc()
	s.logger.Info().
		Str("body_part", bodyPart).
		Float64("temperature", entry.Temperature).
		Float64("pressure", entry.Pressure).
		Msg("logged owie")

	return entry, nil
}

// Recent delegates to the underlying store.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.store.Recent(ctx, limit)
}
