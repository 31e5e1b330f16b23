package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/vrai/internal/adapters/http/api"
	"github.com/okian/vrai/internal/domain/analysis"
	"github.com/okian/vrai/internal/domain/model"
	"github.com/okian/vrai/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies runs a real engine and serves lookups from a map.
type mockDependencies struct {
	mu       sync.Mutex
	engine   *analysis.Engine
	requests []model.AnalysisRequest
	records  map[string]model.AnalysisRecord
	lookup   error
	health   model.Health
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		engine:  analysis.New(),
		records: map[string]model.AnalysisRecord{},
		health:  model.Health{Status: "ok", Persistence: "available"},
	}
}

func (m *mockDependencies) Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResponse {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return model.NewAnalysisResponse(m.engine.AnalyzeRecord(ctx, req))
}

func (m *mockDependencies) Analysis(_ context.Context, id string) (model.AnalysisRecord, error) {
	if m.lookup != nil {
		return model.AnalysisRecord{}, m.lookup
	}
	rec, ok := m.records[id]
	if !ok {
		return model.AnalysisRecord{}, fmt.Errorf("%w: %s", model.ErrAnalysisNotFound, id)
	}
	return rec, nil
}

func (m *mockDependencies) Health(context.Context) model.Health {
	return m.health
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newRouter(deps api.Dependencies, opts ...api.Option) http.Handler {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	return api.NewRouter(server)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const pilotBody = `{
	"trainee_id": "test-pilot",
	"simulation_log": [
		{"timestamp": 0.0, "altitude": 5000, "speed": 250, "event": "start"},
		{"timestamp": 2.5, "altitude": 4500, "speed": 280, "event": "turbulence"},
		{"timestamp": 5.0, "altitude": 4000, "speed": 310, "event": "overspeed"}
	]
}`

func TestServer_Routes(t *testing.T) {
	Convey("Given a router with all routes registered", t, func() {
		router := newRouter(newMockDependencies(), api.WithServiceName("VRAI Simulation Data Analyzer API"))

		Convey("Then root reports the service", func() {
			w := do(router, http.MethodGet, "/", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w), ShouldResemble, map[string]any{"status": "ok", "service": "VRAI Simulation Data Analyzer API"})
			So(w.Header().Get("X-Request-Id"), ShouldNotBeEmpty)
		})

		Convey("And health endpoint should be accessible", func() {
			w := do(router, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["persistence"], ShouldEqual, "available")
		})

		Convey("And stats endpoint should be accessible", func() {
			w := do(router, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("And metrics endpoint should expose analyzer families", func() {
			do(router, http.MethodGet, "/", "")
			w := do(router, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "vrai_analyzer_http_requests_total")
		})

		Convey("And unknown paths return a JSON 404", func() {
			w := do(router, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("And wrong methods are rejected", func() {
			w := do(router, http.MethodGet, "/analyze", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestAnalyzeHandler(t *testing.T) {
	Convey("Given an analyze endpoint", t, func() {
		deps := newMockDependencies()
		router := newRouter(deps)

		Convey("When posting a valid pilot log", func() {
			w := do(router, http.MethodPost, "/analyze", pilotBody)

			Convey("Then the envelope carries the analysis", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["trainee_id"], ShouldEqual, "test-pilot")
				So(body["id"], ShouldNotBeEmpty)
				So(body["simulation_timestamp_utc"], ShouldNotBeEmpty)
				So(body["input_data"].(map[string]any)["simulation_log"], ShouldHaveLength, 3)

				summary := body["analysis_summary"].(map[string]any)
				So(summary["performance_score"], ShouldEqual, 80.0)
				So(summary["total_duration_seconds"], ShouldEqual, 5.0)
				So(summary["average_speed"], ShouldEqual, 280.0)
				So(summary["critical_events"], ShouldResemble, map[string]any{"overspeed_incidents": 1.0, "unstable_approach_events": 0.0})
				So(summary["save_status"], ShouldResemble, map[string]any{"saved": false, "reason": analysis.ReasonNotConfigured})
				So(summary, ShouldNotContainKey, "error")
			})
		})

		Convey("When a sample has a fractional altitude", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[
				{"timestamp": 0, "altitude": 4000.5, "speed": 250, "event": "x"},
				{"timestamp": 1, "altitude": 4000, "speed": 250, "event": "y"}]}`)

			Convey("Then the request is answered with a degraded summary", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				summary := decode(w)["analysis_summary"].(map[string]any)
				So(summary["error"], ShouldEqual, analysis.DegradedMessage)
				So(summary["performance_score"], ShouldEqual, 0.0)
				So(deps.requests[0].Malformed, ShouldHaveLength, 1)
				So(deps.requests[0].SimulationLog, ShouldHaveLength, 1)
				So(deps.requests[0].Malformed[0].Error(), ShouldContainSubstring, "altitude 4000.5 is not a whole number")
			})

			Convey("And only the decoded sample is echoed", func() {
				So(decode(w)["input_data"].(map[string]any)["simulation_log"], ShouldHaveLength, 1)
			})
		})

		Convey("When altitude and speed are whole-valued floats", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[
				{"timestamp": 0, "altitude": 5000.0, "speed": 250.0},
				{"timestamp": 4, "altitude": 800, "speed": 350.0}]}`)

			Convey("Then they are analysed as integers", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				summary := decode(w)["analysis_summary"].(map[string]any)
				So(summary, ShouldNotContainKey, "error")
				So(summary["average_speed"], ShouldEqual, 300.0)
				So(summary["critical_events"], ShouldResemble, map[string]any{"overspeed_incidents": 1.0, "unstable_approach_events": 1.0})
				So(deps.requests[0].Malformed, ShouldBeEmpty)
				So(deps.requests[0].SimulationLog[0].Altitude, ShouldEqual, 5000)
			})
		})

		Convey("When speed does not fit an integer", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[{"timestamp": 0, "altitude": 5000, "speed": 1e30}]}`)

			Convey("Then the analysis degrades", func() {
				So(decode(w)["analysis_summary"].(map[string]any)["error"], ShouldEqual, analysis.DegradedMessage)
				So(deps.requests[0].Malformed[0].Error(), ShouldContainSubstring, "out of range")
			})
		})

		Convey("When a sample carries a long event label", func() {
			label := strings.Repeat("e", 300)
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[{"timestamp": 2, "altitude": 5000, "speed": 250, "event": "`+label+`"}]}`)

			Convey("Then the label is kept and the analysis succeeds", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["analysis_summary"].(map[string]any), ShouldNotContainKey, "error")
				So(body["analysis_summary"].(map[string]any)["performance_score"], ShouldEqual, 80.0)
				echoed := body["input_data"].(map[string]any)["simulation_log"].([]any)
				So(echoed[0].(map[string]any)["event"], ShouldEqual, label)
			})
		})

		Convey("When a sample misses a required field", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[{"timestamp": 0, "speed": 250}]}`)

			Convey("Then the analysis degrades", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["analysis_summary"].(map[string]any)["error"], ShouldEqual, analysis.DegradedMessage)
			})
		})

		Convey("When a sample has no event", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[{"timestamp": 3, "altitude": 900, "speed": 160}]}`)

			Convey("Then it is analysed normally", func() {
				summary := decode(w)["analysis_summary"].(map[string]any)
				So(summary["total_duration_seconds"], ShouldEqual, 3.0)
				So(summary["critical_events"].(map[string]any)["unstable_approach_events"], ShouldEqual, 1.0)
			})
		})

		Convey("When the log is empty", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":[]}`)

			Convey("Then the defaults are returned with an error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["input_data"].(map[string]any)["simulation_log"], ShouldResemble, []any{})
				So(body["analysis_summary"].(map[string]any)["error"], ShouldEqual, analysis.DegradedMessage)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(router, http.MethodPost, "/analyze", `{not json`)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
				So(deps.requests, ShouldBeEmpty)
			})
		})

		Convey("When trainee_id is missing", func() {
			w := do(router, http.MethodPost, "/analyze", `{"simulation_log":[]}`)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "trainee_id")
			})
		})

		Convey("When trainee_id is an empty string", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"","simulation_log":[{"timestamp": 1, "altitude": 5000, "speed": 250}]}`)

			Convey("Then it is accepted as an opaque id", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["trainee_id"], ShouldEqual, "")
				So(body["analysis_summary"].(map[string]any), ShouldNotContainKey, "error")
			})
		})

		Convey("When trainee_id is null", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":null,"simulation_log":[]}`)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When simulation_log is not a list", func() {
			w := do(router, http.MethodPost, "/analyze", `{"trainee_id":"p","simulation_log":"oops"}`)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given an analyze endpoint limited to one request per minute", t, func() {
		router := newRouter(newMockDependencies(), api.WithRateLimit(1))

		Convey("When posting twice", func() {
			first := do(router, http.MethodPost, "/analyze", pilotBody)
			second := do(router, http.MethodPost, "/analyze", pilotBody)

			Convey("Then the second request is rejected", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(second)["code"], ShouldEqual, "rate_limited")
			})
		})
	})
}

func TestAnalysesHandler(t *testing.T) {
	Convey("Given a stored analysis", t, func() {
		deps := newMockDependencies()
		deps.records["abc"] = model.AnalysisRecord{ID: "abc", TraineeID: "test-pilot"}
		router := newRouter(deps)

		Convey("When requesting it", func() {
			w := do(router, http.MethodGet, "/analyses/abc", "")

			Convey("Then the record is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["trainee_id"], ShouldEqual, "test-pilot")
			})
		})

		Convey("When requesting an unknown id", func() {
			w := do(router, http.MethodGet, "/analyses/nope", "")

			Convey("Then it should return not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When persistence is unavailable", func() {
			deps.lookup = model.ErrPersistenceUnavailable
			w := do(router, http.MethodGet, "/analyses/abc", "")

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["code"], ShouldEqual, "persistence_unavailable")
			})
		})

		Convey("When the lookup fails otherwise", func() {
			deps.lookup = errors.New("disk error")
			w := do(router, http.MethodGet, "/analyses/abc", "")

			Convey("Then it should return internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestKindError(t *testing.T) {
	Convey("Given a wrapped kind error", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.analyze", api.ErrBadRequest, cause)

		Convey("Then both kind and cause match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.analyze: bad request: unexpected EOF")
		})

		Convey("And a kind without cause formats compactly", func() {
			So(api.NewKind("api.get_analysis", api.ErrNotFound).Error(), ShouldEqual, "api.get_analysis: not found")
		})
	})
}
