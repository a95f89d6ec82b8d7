package fred

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/errors"
)

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Options{
		BaseURL:       server.URL,
		APIKey:        apiKey,
		RatePerSecond: 1000,
		Burst:         1000,
	}, zerolog.Nop())
}

func TestObservations(t *testing.T) {
	fixture := `{
	  "observations": [
	    {"date": "2024-05-01", "value": "4.41"},
	    {"date": "2024-05-02", "value": "."},
	    {"date": "2024-05-03", "value": "4.52"},
	    {"date": "2024-05-06", "value": ""}
	  ]
	}`
	client := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("series_id") != "DGS10" {
			t.Errorf("series_id = %s", q.Get("series_id"))
		}
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %s", q.Get("api_key"))
		}
		if q.Get("file_type") != "json" {
			t.Errorf("file_type = %s", q.Get("file_type"))
		}
		fmt.Fprint(w, fixture)
	})

	obs, err := client.Observations(context.Background(), "dgs10", time.Now().AddDate(0, -2, 0))
	if err != nil {
		t.Fatalf("Observations() = %v", err)
	}

	// Missing "." and empty markers are dropped.
	if len(obs) != 2 {
		t.Fatalf("got %d observations, want 2", len(obs))
	}
	if obs[0].Value != 4.41 || obs[1].Value != 4.52 {
		t.Errorf("values = %v, %v", obs[0].Value, obs[1].Value)
	}
	if !obs[0].Date.Before(obs[1].Date) {
		t.Error("observations not sorted oldest first")
	}
}

func TestObservationsMissingKey(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be made without an api key")
	})

	_, err := client.Observations(context.Background(), "DGS10", time.Now())
	if !errors.Is(err, errors.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestObservationsUnknownSeries(t *testing.T) {
	client := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error_code": 400, "error_message": "Bad Request. The series does not exist."}`)
	})

	_, err := client.Observations(context.Background(), "BOGUS", time.Now())
	if !errors.Is(err, errors.ErrSeriesNotFound) {
		t.Fatalf("err = %v, want ErrSeriesNotFound", err)
	}
}

func TestObservationsAllMissing(t *testing.T) {
	client := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"observations": [{"date": "2024-05-01", "value": "."}]}`)
	})

	_, err := client.Observations(context.Background(), "DGS10", time.Now())
	if !errors.Is(err, errors.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}
