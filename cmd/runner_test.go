package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
	tu "github.com/desertthunder/ytstream/internal/testing"
)

// syncBuffer guards a bytes.Buffer for commands that write from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	runner     *Runner
	mock       *tu.MockService
	out        *syncBuffer
	configPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = ":memory:"
	config.Provider.FetchKeys = false

	mock := &tu.MockService{
		SearchFn: func(ctx context.Context, query, continuation string) (*models.SearchResponse, error) {
			return &models.SearchResponse{
				Results:      []models.SearchResult{{ID: "a", Title: "Song " + query, Author: "Band", Duration: "3:00"}},
				Continuation: "tok",
			}, nil
		},
		GetByQueryFn: func(ctx context.Context, q models.Query) (*models.MediaAsset, error) {
			if q.Primary == "nothing" {
				return nil, shared.ErrNoMatchFound
			}
			return &models.MediaAsset{ID: "m", Title: q.Primary, Author: q.Secondary, StreamURL: "https://stream/m"}, nil
		},
	}
	exp := time.Now().Add(time.Hour).UnixMilli()
	for _, id := range []string{"a", "b"} {
		mock.SetAsset(models.MediaAsset{ID: id, Title: "Title " + id, Author: "Band", StreamURL: "https://stream/" + id, ExpiresAtMs: exp})
	}

	out := &syncBuffer{}
	r := NewRunner(RunnerOpts{
		Config:  config,
		Service: mock,
		Logger:  shared.NopLogger(),
		Output:  out,
	})
	t.Cleanup(r.Close)

	return &fixture{
		runner:     r,
		mock:       mock,
		out:        out,
		configPath: filepath.Join(t.TempDir(), "config.toml"),
	}
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	argv := append([]string{"ytstream", "--config", f.configPath}, args...)
	return newApp(f.runner).Run(ctx, argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NopLogger()
			output := &bytes.Buffer{}
			svc := &tu.MockService{}

			runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output, Service: svc})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.svc != svc {
				t.Error("expected service to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil || runner.logger == nil || runner.httpClient == nil || runner.now == nil {
				t.Error("expected defaults to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default config path, got %q", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"k": "v"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\n  \"k\": \"v\"\n}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, 0, &bytes.Buffer{})})
			err := runner.writeJSON("x", false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		if err := runner.writePlain("hello %s", "world"); err != nil || output.String() != "hello world" {
			t.Errorf("unexpected result %q, %v", output.String(), err)
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("register", func(t *testing.T) {
		names := map[string]bool{}
		for _, cmd := range NewRunner(RunnerOpts{}).register() {
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "search", "get", "match", "play", "serve", "cache", "tui"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})
}

func TestBefore(t *testing.T) {
	t.Run("loads the config file", func(t *testing.T) {
		f := newFixture(t)
		os.WriteFile(f.configPath, []byte("[server]\nport = 4100\n\n[log]\nlevel = \"debug\"\n"), 0644)

		if err := f.run(t, "search", "x"); err != nil {
			t.Fatal(err)
		}
		if f.runner.config.Server.Port != 4100 {
			t.Errorf("expected port from file, got %d", f.runner.config.Server.Port)
		}
	})

	t.Run("rejects an invalid config file", func(t *testing.T) {
		f := newFixture(t)
		os.WriteFile(f.configPath, []byte("[cache]\nbackend = \"memcached\"\n"), 0644)

		if err := f.run(t, "search", "x"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected invalid config, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "setup", "config"); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, f.configPath)
		if err := f.run(t, "setup", "config"); err == nil {
			t.Error("expected error when the file already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		f := newFixture(t)
		f.runner.config.Database.Path = filepath.Join(t.TempDir(), "test.db")
		if err := f.run(t, "setup", "database"); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, f.runner.config.Database.Path)
	})

	t.Run("provider", func(t *testing.T) {
		f := newFixture(t)
		curl := `curl 'https://youtubei.googleapis.com/youtubei/v1/search?key=KEY123' -H 'X-Goog-Visitor-Id: VISITOR'`
		if err := f.run(t, "setup", "provider", "--curl", curl); err != nil {
			t.Fatal(err)
		}

		saved, err := shared.LoadConfig(f.configPath)
		if err != nil {
			t.Fatal(err)
		}
		if saved.Provider.APIKey != "KEY123" || saved.Provider.VisitorData != "VISITOR" {
			t.Errorf("unexpected provider config %+v", saved.Provider)
		}
		if saved.Provider.FetchKeys {
			t.Error("expected key scraping to be disabled")
		}
	})

	t.Run("provider requires input", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "setup", "provider"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})
}

func TestResolveCommands(t *testing.T) {
	t.Run("search text", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "search", "lofi"); err != nil {
			t.Fatal(err)
		}
		out := f.out.String()
		if !strings.Contains(out, "a  Band - Song lofi (3:00)") || !strings.Contains(out, "next: tok") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("search continuation and csv file", func(t *testing.T) {
		f := newFixture(t)
		var gotNext string
		next := f.mock.SearchFn
		f.mock.SearchFn = func(ctx context.Context, query, continuation string) (*models.SearchResponse, error) {
			gotNext = continuation
			return next(ctx, query, continuation)
		}
		path := filepath.Join(t.TempDir(), "page.csv")

		if err := f.run(t, "search", "--next", "tok", "--format", "csv", "--output", path, "lofi"); err != nil {
			t.Fatal(err)
		}
		if gotNext != "tok" {
			t.Errorf("expected continuation tok, got %q", gotNext)
		}
		if !strings.HasPrefix(tu.MustReadFile(t, path), "ID,Title,Author,Duration,Thumbnail") {
			t.Error("expected CSV header in file")
		}
	})

	t.Run("search requires a query", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})

	t.Run("get json", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "get", "--json", "a"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(f.out.String(), `"streamUrl": "https://stream/a"`) {
			t.Errorf("unexpected output:\n%s", f.out.String())
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "get", "zzz"); !errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected asset not found, got %v", err)
		}
	})

	t.Run("match", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "match", "--title", "Song", "--artist", "Band"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(f.out.String(), "Stream:   https://stream/m") {
			t.Errorf("unexpected output:\n%s", f.out.String())
		}
		if err := f.run(t, "match", "--title", "nothing"); !errors.Is(err, shared.ErrNoMatchFound) {
			t.Errorf("expected no match, got %v", err)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.run(t, "cache", "list"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), "cache is empty") {
		t.Errorf("expected empty cache, got:\n%s", f.out.String())
	}

	store := f.runner.stores.Assets
	now := time.Now()
	store.Upsert(ctx, &models.CachedAsset{Asset: models.MediaAsset{ID: "live", Title: "Live", StreamURL: "u", ExpiresAtMs: now.Add(time.Hour).UnixMilli()}})
	store.Upsert(ctx, &models.CachedAsset{Asset: models.MediaAsset{ID: "dead", Title: "Dead", StreamURL: "u", ExpiresAtMs: now.Add(-time.Hour).UnixMilli()}})

	if err := f.run(t, "cache", "list"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), "2 cached") {
		t.Errorf("expected 2 cached, got:\n%s", f.out.String())
	}

	if err := f.run(t, "cache", "purge"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), "Purged 1 expired assets") {
		t.Errorf("expected one purge, got:\n%s", f.out.String())
	}

	if err := f.run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if left, _ := store.List(ctx); len(left) != 0 {
		t.Errorf("expected empty cache, got %d", len(left))
	}
}

func TestCacheDisabled(t *testing.T) {
	f := newFixture(t)
	f.runner.config.Cache.Backend = "none"
	if err := f.run(t, "cache", "list"); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected service unavailable, got %v", err)
	}
}

func TestPlay(t *testing.T) {
	t.Run("advances to the end of the queue", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "play", "--advance", "20ms", "--check", "5ms", "a", "missing", "b"); err != nil {
			t.Fatal(err)
		}
		out := f.out.String()
		for _, want := range []string{"✗ missing", "▶ 0 Title a", "▶ 1 Title b", "■ end of queue"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("requires ids", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "play"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})

	t.Run("nothing playable", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "play", "missing"); !errors.Is(err, shared.ErrNoPlayableAsset) {
			t.Errorf("expected no playable asset, got %v", err)
		}
	})
}
