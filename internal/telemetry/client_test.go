package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"sensor_dashboard/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", BreakerFailures: 3, BreakerOpenFor: time.Minute}), srv
}

func TestClient_FetchLatestAndHistory(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathLatest:
			_, _ = w.Write([]byte(`[{"id":9,"ldr":120,"date":"2024-05-01T10:00:00Z"}]`))
		case PathHistory:
			_, _ = w.Write([]byte(`[{"id":8,"ldr":100,"date":"2024-05-01T09:59:50Z"},{"id":9,"ldr":120,"date":"bad"}]`))
		default:
			http.NotFound(w, r)
		}
	})

	latest, err := c.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if latest == nil || latest.ID != 9 {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	hist, err := c.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(hist) != 1 || hist[0].ID != 8 {
		t.Fatalf("bad record should be dropped, got %+v", hist)
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind string
	}{
		{
			name: "non-2xx is protocol",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind: KindProtocol,
		},
		{
			name: "bad payload is schema",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":1,"date":"never"}`))
			},
			wantKind: KindSchema,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, tc.handler)
			_, err := c.FetchLatest(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Kind(err); got != tc.wantKind {
				t.Fatalf("kind: want %s, got %s (%v)", tc.wantKind, got, err)
			}
		})
	}

	t.Run("connection refused is transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c := New(Options{BaseURL: url})
		_, err := c.FetchHistory(context.Background())
		if Kind(err) != KindTransport {
			t.Fatalf("want transport error, got %v", err)
		}
	})
}

func TestClient_BreakerOpensPerEndpoint(t *testing.T) {
	var historyCalls, latestCalls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathHistory:
			atomic.AddInt32(&historyCalls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		case PathLatest:
			atomic.AddInt32(&latestCalls, 1)
			_, _ = w.Write([]byte(`{"id":1,"vr":1,"date":"2024-05-01T10:00:00Z"}`))
		}
	})

	for i := 0; i < 3; i++ {
		if _, err := c.FetchHistory(context.Background()); Kind(err) != KindProtocol {
			t.Fatalf("call %d: want protocol error, got %v", i, err)
		}
	}
	_, err := c.FetchHistory(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) || Kind(err) != KindTransport {
		t.Fatalf("open breaker should surface as transport error, got %v", err)
	}
	if got := atomic.LoadInt32(&historyCalls); got != 3 {
		t.Fatalf("open breaker must not reach the server, calls=%d", got)
	}

	if _, err := c.FetchLatest(context.Background()); err != nil {
		t.Fatalf("latest endpoint must be unaffected: %v", err)
	}
}

func TestClient_SendCommand(t *testing.T) {
	cases := []struct {
		name     string
		response string
		wantErr  bool
	}{
		{"accepted", `{"success":true}`, false},
		{"rejected", `{"success":false}`, true},
		{"missing flag", `{}`, true},
		{"malformed", `nope`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got commandRequest
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != PathCommand {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				_, _ = w.Write([]byte(tc.response))
			})
			err := c.SendCommand(context.Background(), models.CommandBuzzerOn)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if got.Command != models.CommandBuzzerOn {
				t.Fatalf("request body command: got %q", got.Command)
			}
		})
	}
}

func TestClient_FetchStatus(t *testing.T) {
	cases := []struct {
		name     string
		response string
		wantOn   bool
		wantKind string
	}{
		{"on", `{"success":true,"isOn":true}`, true, ""},
		{"off", `{"success":true,"isOn":false}`, false, ""},
		{"failure flag", `{"success":false,"isOn":true}`, false, KindProtocol},
		{"missing isOn", `{"success":true}`, false, KindSchema},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.response))
			})
			on, err := c.FetchStatus(context.Background())
			if tc.wantKind != "" {
				if Kind(err) != tc.wantKind {
					t.Fatalf("want %s error, got %v", tc.wantKind, err)
				}
				return
			}
			if err != nil || on != tc.wantOn {
				t.Fatalf("want isOn=%v, got %v (err=%v)", tc.wantOn, on, err)
			}
		})
	}
}
