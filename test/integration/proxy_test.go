package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/searx-proxy/internal/cache/memory"
	"github.com/kitbuilder587/searx-proxy/internal/httpapi"
	"github.com/kitbuilder587/searx-proxy/internal/metrics"
	"github.com/kitbuilder587/searx-proxy/internal/preferences"
	"github.com/kitbuilder587/searx-proxy/internal/searx/space"
	"github.com/kitbuilder587/searx-proxy/internal/service"
)

func TestMain(m *testing.M) {
	if os.Getenv("SHORT_TESTS") == "1" {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type upstream struct {
	directory    *httptest.Server
	instance     *httptest.Server
	dirCalls     atomic.Int32
	lastQuery    atomic.Value
	instancesDoc atomic.Value
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}

	u.instance = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		u.lastQuery.Store(r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<link href="/x"><img src="/logo.png"><form action="/search">`)
	}))
	t.Cleanup(u.instance.Close)

	u.directory = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/instances.json" {
			http.NotFound(w, r)
			return
		}
		u.dirCalls.Add(1)
		doc, _ := u.instancesDoc.Load().(string)
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(u.directory.Close)

	return u
}

func (u *upstream) instanceURL() string {
	return u.instance.URL + "/"
}

func (u *upstream) serveInstances(doc string) {
	u.instancesDoc.Store(doc)
}

func newProxy(t *testing.T, u *upstream) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.New()

	client, err := space.New(space.Config{
		BaseURL:          u.directory.URL,
		DirectoryTimeout: 5 * time.Second,
		InstanceTimeout:  5 * time.Second,
	}, logger)
	if err != nil {
		t.Fatalf("space.New() error = %v", err)
	}

	store := preferences.NewFileStore(filepath.Join(t.TempDir(), "rsearx.json"))
	svc := service.NewProxyService(service.ProxyServiceDeps{
		Client:  client,
		Cache:   memory.New(time.Hour),
		Store:   store,
		Logger:  logger,
		Metrics: m,
	})

	srv := httptest.NewServer(httpapi.New(httpapi.Deps{Service: svc, Metrics: m, Logger: logger}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestProxy_SearchThroughEligibleInstance(t *testing.T) {
	u := newUpstream(t)
	good := u.instanceURL()
	u.serveInstances(fmt.Sprintf(`{"instances": {
		%q: {"html": {"grade": "C"}, "network_type": "normal", "timing": {}},
		"https://b/": {"html": {"grade": "F"}, "network_type": "normal"}
	}}`, good))

	proxy := newProxy(t, u)

	status, body := get(t, proxy.URL+"/search?q=cats+%26+dogs")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %q", status, body)
	}

	want := fmt.Sprintf(`<link href="%sx"><img src="%slogo.png"><form action="%ssearch">`, good, good, good)
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	if q, _ := u.lastQuery.Load().(string); q != "cats & dogs" {
		t.Errorf("instance got q = %q, want %q", q, "cats & dogs")
	}

	// кеш свежий, каталог второй раз не запрашивается
	get(t, proxy.URL+"/search?q=cats")
	if n := u.dirCalls.Load(); n != 1 {
		t.Errorf("directory calls = %d, want 1", n)
	}
}

func TestProxy_EmptyDirectory(t *testing.T) {
	u := newUpstream(t)
	u.serveInstances(`{"instances": {}}`)

	proxy := newProxy(t, u)

	status, body := get(t, proxy.URL+"/search?q=cats")
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %q", status, body)
	}
	if !strings.Contains(body, "no eligible instance") {
		t.Errorf("body = %q, want no eligible instance", body)
	}

	_, body = get(t, proxy.URL+"/instances")
	var snap struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode /instances: %v", err)
	}
	if snap.Count != 0 {
		t.Errorf("candidates = %d, want 0", snap.Count)
	}

	get(t, proxy.URL+"/search?q=cats")
	if n := u.dirCalls.Load(); n != 2 {
		t.Errorf("directory calls = %d, want 2", n)
	}
}

func TestProxy_BrokenDirectory(t *testing.T) {
	u := newUpstream(t)
	u.serveInstances(`{"not_instances": 1}`)

	proxy := newProxy(t, u)

	status, _ := get(t, proxy.URL+"/search?q=cats")
	if status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", status)
	}
}

func TestProxy_SavePreferences(t *testing.T) {
	u := newUpstream(t)
	good := u.instanceURL()
	u.serveInstances(fmt.Sprintf(`{"instances": {
		%q: {"html": {"grade": "A+"}, "network_type": "normal",
			"timing": {"search": {"all": {"mean": 0.3}}}},
		"https://slow/": {"html": {"grade": "A+"}, "network_type": "normal",
			"timing": {"search": {"all": {"mean": 4.1}}}},
		"https://c/": {"html": {"grade": "C"}, "network_type": "normal"}
	}}`, good))

	proxy := newProxy(t, u)

	resp, err := http.Post(proxy.URL+"/save", "application/json",
		strings.NewReader(`{"grades": ["A+"], "search": "1.0"}`))
	if err != nil {
		t.Fatalf("POST /save: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d, want 200", resp.StatusCode)
	}

	_, body := get(t, proxy.URL+"/instances")
	var snap struct {
		Instances []string `json:"instances"`
	}
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode /instances: %v", err)
	}
	if len(snap.Instances) != 1 || snap.Instances[0] != good {
		t.Errorf("candidates = %v, want [%s]", snap.Instances, good)
	}

	status, _ := get(t, proxy.URL+"/search?q=cats")
	if status != http.StatusOK {
		t.Errorf("search status = %d, want 200", status)
	}
}
