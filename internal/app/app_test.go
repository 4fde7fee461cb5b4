package app

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/minhngo-dev/readalign/internal/config"
	"github.com/minhngo-dev/readalign/internal/history"
	"github.com/minhngo-dev/readalign/pkg/types"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.ApplyDefaults()
	return cfg
}

// waitForServer polls the given URL until it answers or the deadline passes.
func waitForServer(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s did not come up", url)
}

func TestAppServesAndShutsDown(t *testing.T) {
	cfg := testConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, cfg, WithStore(history.NewMemStore()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()

	base := "http://" + waitForAddr(t, a)
	waitForServer(t, base+"/healthz")

	resp, err := http.Get(base + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /readyz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := `{"user_id":"u1","original_text":"con mèo","spoken_text":"con mèo",` +
		`"difficulty":"grade1","attempts":1,"completion_time_seconds":30}`
	post, err := http.Post(base+"/v1/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/sessions error = %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusCreated {
		t.Errorf("POST /v1/sessions status = %d, want %d", post.StatusCode, http.StatusCreated)
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on clean shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

// waitForAddr waits until Run has bound a concrete port.
func waitForAddr(t *testing.T, a *App) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		addr := a.Addr()
		if !strings.HasSuffix(addr, ":0") {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("listener never bound")
	return ""
}

func TestNewComparerAppliesOverrides(t *testing.T) {
	t.Parallel()

	dist := 0
	threshold := 2.0
	cmp := newComparer(config.ComparisonConfig{
		MaxEditDistance:     &dist,
		SimilarityThreshold: &threshold,
		ConfusionPairs:      []config.ConfusionPair{{A: "ph", B: "f"}},
	})

	// With edit distance and similarity disabled, only the configured cluster
	// pair can turn a near miss into a mispronunciation.
	res := cmp.Compare("phở ngon", "fở ngon")
	if len(res.Mistakes) != 1 || res.Mistakes[0].Type != types.MistakeMispronunciation {
		t.Errorf("Mistakes = %+v, want one mispronunciation via configured pair ph/f", res.Mistakes)
	}

	res = cmp.Compare("mèo con", "mào con")
	if len(res.Mistakes) != 1 || res.Mistakes[0].Type != types.MistakeSubstitution {
		t.Errorf("Mistakes = %+v, want one substitution with edit distance disabled", res.Mistakes)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	a, err := New(context.Background(), cfg, WithStore(history.NewMemStore()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := a.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() call %d error = %v", i+1, err)
		}
	}
}
