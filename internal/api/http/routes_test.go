package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcosynot/ouch/internal/observability"
	"github.com/bcosynot/ouch/internal/owie"
	"github.com/bcosynot/ouch/internal/weather"
)

type stubFetcher struct {
	cond weather.Conditions
	err  error
}

func (f *stubFetcher) Current(context.Context) (weather.Conditions, error) {
	return f.cond, f.err
}

type stubStore struct {
	entries []owie.Entry
	err     error
}

func (s *stubStore) Insert(_ context.Context, entry owie.Entry) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *stubStore) Recent(context.Context, int) ([]owie.Entry, error) {
	return s.entries, nil
}

func testApp(fetcher owie.Fetcher, store owie.Store) *fiber.App {
	app := fiber.New()
	svc := owie.NewService(fetcher, store, observability.NewMetricsForTesting(), zerolog.Nop())
	RegisterRoutes(app, svc)
	return app
}

func goodConditions() weather.Conditions {
	return weather.Conditions{
		ObservedAt:         1700000000,
		Temperature:        41.5,
		Pressure:           1013,
		Humidity:           80,
		UVIndex:            2.5,
		WeatherID:          501,
		WeatherMain:        "Rain",
		WeatherDescription: "moderate rain",
	}
}

func TestHome(t *testing.T) {
	app := testApp(&stubFetcher{cond: goodConditions()}, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Hello World", body["message"])
}

func TestLogOwie(t *testing.T) {
	store := &stubStore{}
	app := testApp(&stubFetcher{cond: goodConditions()}, store)

	req := httptest.NewRequest(http.MethodPost, "/owie/left%20knee", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Message     string  `json:"message"`
		BodyPart    string  `json:"body_part"`
		Temperature float64 `json:"temperature"`
		Pressure    float64 `json:"pressure"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Logged owie details successfully", body.Message)
	assert.Equal(t, "left knee", body.BodyPart)
	assert.Equal(t, 41.5, body.Temperature)
	assert.Equal(t, 1013.0, body.Pressure)

	require.Len(t, store.entries, 1)
	assert.Equal(t, "left knee", store.entries[0].BodyPart)
	assert.Equal(t, int64(1700000000), store.entries[0].DateTime)
}

func TestLogOwie_BodyPartTooLong(t *testing.T) {
	app := testApp(&stubFetcher{cond: goodConditions()}, &stubStore{})

	part := strings.Repeat("x", 65)
	req := httptest.NewRequest(http.MethodPost, "/owie/"+part, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogOwie_MissingBodyPart(t *testing.T) {
	app := testApp(&stubFetcher{cond: goodConditions()}, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/owie/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogOwie_WeatherUnavailable(t *testing.T) {
	app := testApp(&stubFetcher{err: errors.New("upstream down")}, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/owie/knee", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLogOwie_IncompleteWeather(t *testing.T) {
	app := testApp(&stubFetcher{err: weather.ErrIncomplete}, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/owie/knee", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLogOwie_InsertFailure(t *testing.T) {
	app := testApp(&stubFetcher{cond: goodConditions()}, &stubStore{err: errors.New("disk full")})

	req := httptest.NewRequest(http.MethodPost, "/owie/knee", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
