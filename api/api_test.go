package api

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/eventstream/hub"
	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/logger"
	"github.com/papercomputeco/innerself/pkg/mind"
	"github.com/papercomputeco/innerself/pkg/sse"
	"github.com/papercomputeco/innerself/pkg/storage/inmemory"
	"github.com/papercomputeco/innerself/pkg/thought"
)

func decode[T any](resp *http.Response) T {
	GinkgoHelper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	var out T
	Expect(json.Unmarshal(body, &out)).To(Succeed(), string(body))
	return out
}

var _ = Describe("Server", func() {
	var (
		server *Server
		engine *innerself.Engine
	)

	do := func(method, path, body string) *http.Response {
		GinkgoHelper()
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, r)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		settings := innerself.DefaultSettings()
		settings.ThoughtFormationChance = 100

		var err error
		engine, err = innerself.New(innerself.Options{
			Settings: settings,
			Generator: thought.GeneratorFunc(func(_ context.Context, character, _ string) (string, error) {
				return character + " is suspicious", nil
			}),
			Rand: rand.New(rand.NewPCG(7, 7)),
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, engine, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires an engine and a logger", func() {
		_, err := NewServer(Config{}, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
		_, err = NewServer(Config{}, engine, nil)
		Expect(err).To(HaveOccurred())
	})

	It("answers pings", func() {
		resp := do(http.MethodGet, "/ping", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(decode[string](resp)).To(Equal("pong"))
	})

	Describe("POST /events", func() {
		It("handles a chat event", func() {
			resp := do(http.MethodPost, "/events",
				`{"messages":[{"name":"Narrator","text":"night falls"},{"name":"Alice","text":"who goes there?","is_user":false}]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			res := decode[innerself.Result](resp)
			Expect(res.Handled).To(BeTrue())
			Expect(res.Thought).To(Equal("Alice is suspicious"))
			Expect(engine.Context("Alice")).To(Equal("[Inner Thoughts] Alice is suspicious"))
		})

		It("reports ignored events", func() {
			resp := do(http.MethodPost, "/events", `{"messages":[{"name":"Alice","text":"hi"}]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			res := decode[innerself.Result](resp)
			Expect(res.Handled).To(BeFalse())
			Expect(res.Reason).To(Equal(innerself.ReasonTooFewMessages))
		})

		It("rejects malformed bodies", func() {
			resp := do(http.MethodPost, "/events", `{"messages":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /context/:name", func() {
		It("renders known and unknown characters", func() {
			engine.Store().AddSecret("Mary Ann", "afraid of the dark")

			ctxResp := decode[ContextResponse](do(http.MethodGet, "/context/Mary%20Ann", ""))
			Expect(ctxResp.Name).To(Equal("Mary Ann"))
			Expect(ctxResp.Context).To(Equal("[Secrets] afraid of the dark"))

			empty := decode[ContextResponse](do(http.MethodGet, "/context/Nobody", ""))
			Expect(empty.Context).To(BeEmpty())
		})

		It("routes names containing an escaped slash", func() {
			resp := do(http.MethodPost, "/brains/A%2FB/secrets", `{"text":"two people in a coat"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(engine.Store().Names()).To(Equal([]string{"A/B"}))

			ctxResp := decode[ContextResponse](do(http.MethodGet, "/context/A%2FB", ""))
			Expect(ctxResp.Name).To(Equal("A/B"))
			Expect(ctxResp.Context).To(Equal("[Secrets] two people in a coat"))

			Expect(do(http.MethodDelete, "/brains/A%2FB", "").StatusCode).To(Equal(http.StatusNoContent))
			Expect(engine.Store().Len()).To(BeZero())
		})
	})

	Describe("settings", func() {
		It("returns the current settings", func() {
			s := decode[innerself.Settings](do(http.MethodGet, "/settings", ""))
			Expect(s.ThoughtFormationChance).To(Equal(100))
		})

		It("applies valid updates", func() {
			resp := do(http.MethodPut, "/settings", `{"thought_formation_chance":15,"characters":["Alice"]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(engine.Settings().ThoughtFormationChance).To(Equal(15))
			Expect(engine.Settings().Characters).To(Equal([]string{"Alice"}))
			Expect(engine.Settings().Enabled).To(BeTrue())
		})

		It("rejects invalid updates and keeps the previous settings", func() {
			resp := do(http.MethodPut, "/settings", `{"thought_formation_chance":250}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(engine.Settings().ThoughtFormationChance).To(Equal(100))
		})
	})

	Describe("brains", func() {
		BeforeEach(func() {
			engine.Store().RecordThought("Bob", "she knows")
			engine.Store().RecordMemory("Bob", "we met at the docks")
		})

		It("lists brains", func() {
			out := decode[BrainsResponse](do(http.MethodGet, "/brains", ""))
			Expect(out.Count).To(Equal(1))
			Expect(out.Brains[0].Name).To(Equal("Bob"))
			Expect(out.Brains[0].LatestThought).To(Equal("she knows"))
		})

		It("returns one brain or 404", func() {
			r := decode[mind.Record](do(http.MethodGet, "/brains/Bob", ""))
			Expect(r.Memories).To(HaveLen(1))

			Expect(do(http.MethodGet, "/brains/Nobody", "").StatusCode).To(Equal(http.StatusNotFound))
		})

		It("adds and resolves goals", func() {
			resp := do(http.MethodPost, "/brains/Bob/goals", `{"text":"find the ledger"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			g := decode[mind.Record](resp)
			Expect(g.ActiveGoals()).To(HaveLen(1))

			resp = do(http.MethodPost, "/brains/Bob/goals/resolve", `{"text":"find the ledger"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			r := decode[mind.Record](resp)
			Expect(r.ActiveGoals()).To(BeEmpty())
			Expect(r.Goals[0].Status).To(Equal(mind.GoalResolved))

			Expect(do(http.MethodPost, "/brains/Bob/goals/resolve", `{"text":"find the ledger"}`).StatusCode).
				To(Equal(http.StatusNotFound))
			Expect(do(http.MethodPost, "/brains/Nobody/goals/resolve", `{"text":"x"}`).StatusCode).
				To(Equal(http.StatusNotFound))
			Expect(engine.Store().Names()).To(Equal([]string{"Bob"}))
		})

		It("adds secrets", func() {
			resp := do(http.MethodPost, "/brains/Bob/secrets", `{"text":"owes money"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(engine.Context("Bob")).To(ContainSubstring("[Secrets] owes money"))
		})

		It("rejects blank text", func() {
			Expect(do(http.MethodPost, "/brains/Bob/secrets", `{"text":"  "}`).StatusCode).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodPost, "/brains/Bob/goals", `nope`).StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("sets opinions", func() {
			resp := do(http.MethodPut, "/brains/Bob/opinions", `{"key":"Alice","value":"untrustworthy"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[mind.Record](resp).Opinions).To(HaveKeyWithValue("Alice", "untrustworthy"))

			Expect(do(http.MethodPut, "/brains/Bob/opinions", `{"value":"x"}`).StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("deletes brains", func() {
			Expect(do(http.MethodDelete, "/brains/Bob", "").StatusCode).To(Equal(http.StatusNoContent))
			Expect(do(http.MethodDelete, "/brains/Bob", "").StatusCode).To(Equal(http.StatusNotFound))
			Expect(engine.Store().Len()).To(BeZero())
		})
	})
})

var _ = Describe("POST /snapshot", func() {
	It("persists the store immediately", func() {
		driver := inmemory.NewDriver()
		engine, err := innerself.New(innerself.Options{
			Settings:        innerself.DefaultSettings(),
			Storage:         driver,
			PersistInterval: time.Hour,
		})
		Expect(err).NotTo(HaveOccurred())
		server, err := NewServer(Config{}, engine, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		engine.Store().AddGoal("Alice", "find the key")
		_, err = driver.Load(context.Background(), innerself.DefaultSnapshotKey)
		Expect(err).To(HaveOccurred())

		resp, err := server.app.Test(httptest.NewRequest(http.MethodPost, "/snapshot", nil), -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		data, err := driver.Load(context.Background(), innerself.DefaultSnapshotKey)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("find the key"))
	})

	It("is a no-op without storage", func() {
		engine, err := innerself.New(innerself.Options{Settings: innerself.DefaultSettings()})
		Expect(err).NotTo(HaveOccurred())
		server, err := NewServer(Config{}, engine, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(httptest.NewRequest(http.MethodPost, "/snapshot", nil), -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
	})
})

var _ = Describe("GET /stream", func() {
	It("is not mounted without a hub", func() {
		engine, err := innerself.New(innerself.Options{Settings: innerself.DefaultSettings()})
		Expect(err).NotTo(HaveOccurred())
		server, err := NewServer(Config{}, engine, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/stream", nil), -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("streams events for the requested character until the hub closes", func() {
		events := hub.New(nil)
		engine, err := innerself.New(innerself.Options{
			Settings:  innerself.DefaultSettings(),
			Publisher: events,
		})
		Expect(err).NotTo(HaveOccurred())
		server, err := NewServer(Config{Events: events}, engine, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		now := time.Now()
		go func() {
			defer GinkgoRecover()
			Eventually(events.Subscribers).Should(Equal(1))
			Expect(events.Publish(context.Background(),
				eventstream.NewThoughtFormedEvent("Bob", eventstream.ThoughtFormed{Text: "not for you"}, now))).To(Succeed())
			Expect(events.Publish(context.Background(),
				eventstream.NewThoughtFormedEvent("Alice", eventstream.ThoughtFormed{Text: "for you"}, now))).To(Succeed())
			Expect(events.Close()).To(Succeed())
		}()

		resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/stream?character=Alice", nil), -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
		defer resp.Body.Close()

		r := sse.NewReader(resp.Body)
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).NotTo(BeNil())
		Expect(ev.Type).To(Equal(eventstream.EventTypeThoughtFormed))

		var decoded eventstream.Event
		Expect(json.Unmarshal([]byte(ev.Data), &decoded)).To(Succeed())
		Expect(decoded.Character).To(Equal("Alice"))
		Expect(decoded.Thought.Text).To(Equal("for you"))
		Expect(decoded.EventID).To(Equal(ev.ID))

		ev, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(BeNil())
	})
})
