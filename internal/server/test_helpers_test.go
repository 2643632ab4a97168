package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"hackathon-portal/internal/config"
	"hackathon-portal/internal/generator"
	"hackathon-portal/internal/model"
	"hackathon-portal/internal/store"

	"github.com/jonboulle/clockwork"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, req generator.Request) (generator.Result, error) {
	return g.result("deck")
}

func (g *fakeGenerator) GenerateExpertPitch(ctx context.Context, req generator.Request) (generator.Result, error) {
	return g.result("pitch")
}

func (g *fakeGenerator) result(kind string) (generator.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return generator.Result{}, g.err
	}
	return generator.Result{
		URL:      fmt.Sprintf("http://generator.test/outputs/%s-%d.pptx", kind, g.calls),
		Endpoint: "http://generator.test",
	}, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGenerator) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

type testEnv struct {
	srv   *Server
	store *store.Memory
	gen   *fakeGenerator
	clock *clockwork.FakeClock
	ts    *httptest.Server
}

func newTestEnv(t *testing.T, mutate ...func(cfg *config.Config)) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.AdminEmail = testAdminEmail
	cfg.AdminPassword = testAdminPassword
	for _, fn := range mutate {
		fn(&cfg)
	}
	st := store.NewMemory()
	ctx := context.Background()
	if _, err := st.EnsureConfig(ctx, model.Config{DurationMinutes: 60}); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	gen := &fakeGenerator{}
	clock := clockwork.NewFakeClock()
	srv := New(st, cfg, WithGenerator(gen), WithClock(clock))
	if err := srv.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, store: st, gen: gen, clock: clock, ts: ts}
}

func (e *testEnv) createTeam(t *testing.T, name, college string) model.Team {
	t.Helper()
	team, err := e.store.CreateTeam(context.Background(), model.Team{Name: name, College: college})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}
