package widget

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeLoader struct{ inits int }

func (l *fakeLoader) Init() { l.inits++ }

type fakeRuntime struct{ loader *fakeLoader }

func (r fakeRuntime) Loader() (Loader, bool) {
	if r.loader == nil {
		return nil, false
	}
	return r.loader, true
}

type fakeDoc struct {
	cfg     *Config
	scripts []Script
}

func (d *fakeDoc) HasLoader() bool {
	for _, s := range d.scripts {
		if s.Marker == LoaderMarker {
			return true
		}
	}
	return false
}

func (d *fakeDoc) SetConfiguration(c Config) { d.cfg = &c }
func (d *fakeDoc) AppendScript(s Script)     { d.scripts = append(d.scripts, s) }

func TestMount_InjectsOnce(t *testing.T) {
	b := NewBridge(DefaultConfig())
	doc := &fakeDoc{}

	if !b.Mount(doc) {
		t.Fatal("first Mount injected nothing")
	}
	if b.Mount(doc) {
		t.Fatal("second Mount injected again")
	}
	b.Unmount(doc)
	if b.Mount(doc) {
		t.Fatal("Mount after Unmount injected again")
	}

	if len(doc.scripts) != 1 {
		t.Fatalf("scripts = %d, want 1", len(doc.scripts))
	}
	s := doc.scripts[0]
	if s.Src != "https://dl.watson-orchestrate.ibm.com/wxochat/wxoLoader.js?embed=true" {
		t.Errorf("src = %q", s.Src)
	}
	if !s.Async || s.Marker != LoaderMarker {
		t.Errorf("script = %+v", s)
	}
	if doc.cfg == nil || doc.cfg.ChatOptions.AgentID != DefaultAgentID {
		t.Errorf("config = %+v", doc.cfg)
	}
}

// blindDoc never reports a loader, so only the bridge can stop a re-inject.
type blindDoc struct{ fakeDoc }

func (d *blindDoc) HasLoader() bool { return false }

func TestMount_GuardedByBridge(t *testing.T) {
	b := NewBridge(DefaultConfig())
	doc := &blindDoc{}

	if b.Mounted(doc) {
		t.Fatal("fresh document reported as mounted")
	}
	if !b.Mount(doc) {
		t.Fatal("first Mount injected nothing")
	}
	if b.Mount(doc) {
		t.Fatal("second Mount injected again")
	}
	if !b.Mounted(doc) {
		t.Fatal("document not recorded as mounted")
	}
	if len(doc.scripts) != 1 {
		t.Fatalf("scripts = %d, want 1", len(doc.scripts))
	}

	other := &blindDoc{}
	if !b.Mount(other) {
		t.Fatal("a second document was not mounted")
	}
}

func TestMount_ForeignLoaderRespected(t *testing.T) {
	doc := &fakeDoc{scripts: []Script{{Src: "elsewhere.js", Marker: LoaderMarker}}}
	if NewBridge(DefaultConfig()).Mount(doc) {
		t.Fatal("Mount injected next to an existing loader")
	}
	if doc.cfg != nil || len(doc.scripts) != 1 {
		t.Fatalf("document changed: cfg=%v scripts=%d", doc.cfg, len(doc.scripts))
	}
}

func TestMount_OnLoadInitWhenPresent(t *testing.T) {
	doc := &fakeDoc{}
	NewBridge(DefaultConfig()).Mount(doc)
	onload := doc.scripts[0].OnLoad

	loader := &fakeLoader{}
	onload(fakeRuntime{loader: loader})
	if loader.inits != 1 {
		t.Fatalf("inits = %d, want 1", loader.inits)
	}

	// No loader installed: nothing to call, nothing panics.
	onload(fakeRuntime{})
	onload(nil)
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("empty config validated")
	}
}

func TestLoaderURL_TrailingSlash(t *testing.T) {
	c := Config{HostURL: "https://example.test/"}
	if got := c.LoaderURL(); got != "https://example.test/wxochat/wxoLoader.js?embed=true" {
		t.Fatalf("loader url = %q", got)
	}
}

func TestPage_Render(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RootElementID = "coach-root"
	page := NewPage("Coach")
	NewBridge(cfg).Mount(page)

	var sb strings.Builder
	if err := page.Render(&sb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := sb.String()

	for _, want := range []string{
		`<div id="coach-root"></div>`,
		`data-wxo-loader="true"`,
		`src="https://dl.watson-orchestrate.ibm.com/wxochat/wxoLoader.js?embed=true"`,
		`"orchestrationID":"` + DefaultOrchestrationID + `"`,
		`"agentEnvironmentId":"` + DefaultAgentEnvironmentID + `"`,
		`window.wxoLoader.init()`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q\n%s", want, html)
		}
	}
	if n := strings.Count(html, "<script src="); n != 1 {
		t.Errorf("loader scripts = %d, want 1", n)
	}
}

func TestPage_ConfigEscaped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OrchestrationID = "</script><script>alert(1)</script>"
	page := NewPage("Coach")
	NewBridge(cfg).Mount(page)

	var sb strings.Builder
	if err := page.Render(&sb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(sb.String(), "<script>alert(1)") {
		t.Fatal("configuration was not escaped")
	}
}

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(NewBridge(DefaultConfig()).Handler("Coach"))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(string(body), `id="wxo-chat-root"`) {
		t.Errorf("body missing mount point:\n%s", body)
	}
}

func TestHandler_ServesOneMountedPage(t *testing.T) {
	srv := httptest.NewServer(NewBridge(DefaultConfig()).Handler("Coach"))
	defer srv.Close()

	var bodies []string
	for range 2 {
		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		bodies = append(bodies, string(body))
	}

	if bodies[0] != bodies[1] {
		t.Error("second request served a different page")
	}
	if n := strings.Count(bodies[1], "data-wxo-loader"); n != 1 {
		t.Errorf("loader scripts = %d, want 1", n)
	}
}
