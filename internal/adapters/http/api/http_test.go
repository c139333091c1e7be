package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/codrutul/roster/internal/adapters/http/api"
	service "github.com/codrutul/roster/internal/app"
	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/pkg/logger"
)

const eldric = `{"name":"Eldric","class":"Warrior","level":25,"hp":2500,"damage":180,"armor":75,
"magicResistance":40,"criticalChance":15,"imageUrl":"https://example.test/e.jpg","description":"Brave."}`

func newRouter(deps api.Dependencies, stats api.StatsProvider) chi.Router {
	r := api.NewRouter([]string{"http://localhost:5173"})
	api.NewServer(deps, stats, api.WithLogger(logger.Nop())).Register(context.Background(), r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestCharacterRoutes(t *testing.T) {
	Convey("Given an API server over an in-memory roster", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		r := newRouter(svc, svc)

		Convey("When a valid character is posted", func() {
			w := do(r, http.MethodPost, "/api/characters", eldric)

			var created model.Character
			So(json.Unmarshal(w.Body.Bytes(), &created), ShouldBeNil)

			Convey("Then it is created with an id", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(created.ID, ShouldNotBeEmpty)
				So(created.Class, ShouldEqual, model.ClassWarrior)
			})

			Convey("And it is listed and fetchable", func() {
				list := do(r, http.MethodGet, "/api/characters", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				var chars []model.Character
				So(json.Unmarshal(list.Body.Bytes(), &chars), ShouldBeNil)
				So(chars, ShouldHaveLength, 1)

				got := do(r, http.MethodGet, "/api/characters/"+created.ID, "")
				So(got.Code, ShouldEqual, http.StatusOK)
				So(got.Body.String(), ShouldContainSubstring, `"name":"Eldric"`)
			})

			Convey("And it can be updated", func() {
				upd := do(r, http.MethodPut, "/api/characters/"+created.ID, strings.Replace(eldric, `"level":25`, `"level":30`, 1))
				So(upd.Code, ShouldEqual, http.StatusOK)
				So(upd.Body.String(), ShouldContainSubstring, `"level":30`)
			})

			Convey("And it is reflected in the class stats", func() {
				st := do(r, http.MethodGet, "/api/stats", "")
				So(st.Code, ShouldEqual, http.StatusOK)
				var summaries []model.ClassSummary
				So(json.Unmarshal(st.Body.Bytes(), &summaries), ShouldBeNil)
				So(summaries, ShouldHaveLength, 1)
				So(summaries[0].Count, ShouldEqual, 1)
				So(summaries[0].AvgLevel, ShouldEqual, 25)
			})

			Convey("And deleting it twice yields 204 then 404", func() {
				So(do(r, http.MethodDelete, "/api/characters/"+created.ID, "").Code, ShouldEqual, http.StatusNoContent)
				again := do(r, http.MethodDelete, "/api/characters/"+created.ID, "")
				So(again.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(again)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the roster is empty", func() {
			Convey("Then list and stats return empty arrays", func() {
				So(strings.TrimSpace(do(r, http.MethodGet, "/api/characters", "").Body.String()), ShouldEqual, "[]")
				So(strings.TrimSpace(do(r, http.MethodGet, "/api/stats", "").Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When an unknown id is requested", func() {
			Convey("Then get and update answer 404", func() {
				So(do(r, http.MethodGet, "/api/characters/missing", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodPut, "/api/characters/missing", eldric).Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When invalid bodies are posted", func() {
			missing := do(r, http.MethodPost, "/api/characters", strings.Replace(eldric, `"level":25,`, "", 1))
			bard := do(r, http.MethodPost, "/api/characters", strings.Replace(eldric, "Warrior", "Bard", 1))
			garbage := do(r, http.MethodPost, "/api/characters", "{not json")

			Convey("Then each is a bad request and nothing is stored", func() {
				So(missing.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(missing)["message"], ShouldContainSubstring, "missing level")
				So(bard.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(bard)["message"], ShouldContainSubstring, "unknown class")
				So(garbage.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(garbage)["code"], ShouldEqual, "bad_request")

				chars, err := svc.ListCharacters(context.Background())
				So(err, ShouldBeNil)
				So(chars, ShouldBeEmpty)
			})
		})
	})
}

func TestGameSessionRoutes(t *testing.T) {
	Convey("Given an API server with one character", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()), service.WithGridSize(5))
		r := newRouter(svc, svc)
		c, err := svc.CreateCharacter(context.Background(), model.CharacterInput{
			Name: "Lyra", Class: model.ClassMage, Level: 1, HP: 1, ImageURL: "u", Description: "d",
		})
		So(err, ShouldBeNil)

		Convey("When a session is started for it", func() {
			w := do(r, http.MethodPost, "/api/game-sessions", `{"characterId":"`+c.ID+`"}`)
			var gs model.GameSession
			So(json.Unmarshal(w.Body.Bytes(), &gs), ShouldBeNil)

			Convey("Then it is placed on the grid and can be fetched", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(gs.CharacterName, ShouldEqual, "Lyra")
				So(gs.Position.X, ShouldBeBetweenOrEqual, 0, 4)
				So(gs.Position.Y, ShouldBeBetweenOrEqual, 0, 4)

				got := do(r, http.MethodGet, "/api/game-sessions/"+gs.ID, "")
				So(got.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the character is unknown or missing", func() {
			Convey("Then the request is rejected", func() {
				So(do(r, http.MethodPost, "/api/game-sessions", `{"characterId":"nope"}`).Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodPost, "/api/game-sessions", `{}`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(r, http.MethodGet, "/api/game-sessions/nope", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

type brokenRoster struct{ *service.Service }

var errDisk = errors.New("disk on fire")

func (brokenRoster) ListCharacters(context.Context) ([]model.Character, error) { return nil, errDisk }
func (brokenRoster) Stats(context.Context) ([]model.ClassSummary, error)      { return nil, errDisk }
func (brokenRoster) CreateCharacter(context.Context, model.CharacterInput) (model.Character, error) {
	return model.Character{}, errDisk
}

type staticStats map[string]interface{}

func (s staticStats) GetStats() map[string]interface{} { return s }

func TestServerFailures(t *testing.T) {
	Convey("Given a roster whose store fails", t, func() {
		r := newRouter(brokenRoster{}, staticStats{"backend": "broken"})

		Convey("When reading or writing", func() {
			list := do(r, http.MethodGet, "/api/characters", "")
			stats := do(r, http.MethodGet, "/api/stats", "")
			create := do(r, http.MethodPost, "/api/characters", eldric)

			Convey("Then it answers 500 without leaking the cause", func() {
				So(list.Code, ShouldEqual, http.StatusInternalServerError)
				So(stats.Code, ShouldEqual, http.StatusInternalServerError)
				So(create.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(create)["code"], ShouldEqual, "internal_error")
				So(create.Body.String(), ShouldNotContainSubstring, "disk on fire")
			})
		})

		Convey("When the status summary is requested", func() {
			w := do(r, http.MethodGet, "/status", "")

			Convey("Then the provider's map is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"backend":"broken"`)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a registered server", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		r := newRouter(svc, svc)

		Convey("Then /healthz serves the Prometheus exposition", func() {
			_ = do(r, http.MethodGet, "/api/characters", "")
			w := do(r, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "roster_http_requests_total")
		})

		Convey("And unknown routes are not found", func() {
			So(do(r, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And registering on a nil router panics", func() {
			So(func() { api.NewServer(svc, svc).Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given the router middleware stack", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		r := newRouter(svc, svc)

		Convey("When an allowed origin sends a preflight", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/characters", http.NoBody)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then it is answered with the allowed methods", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:5173")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "GET, POST, PUT, DELETE")
			})
		})

		Convey("When another origin calls the API", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/characters", http.NoBody)
			req.Header.Set("Origin", "http://evil.test")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then no CORS headers are granted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})

		Convey("And the wildcard allows everything", func() {
			So(api.OriginAllowed([]string{"*"}, "http://any.test"), ShouldBeTrue)
			So(api.OriginAllowed(nil, "http://any.test"), ShouldBeFalse)
		})
	})
}
