// Package widget embeds the hosted assistant chat widget into a document.
//
// The widget is a third-party script served from the assistant host. Mounting
// publishes the widget configuration on the document and appends the loader
// script exactly once per document; the loader is initialized when it has
// finished loading, if it exposes an init hook.
package widget

import (
	"errors"
	"strings"
	"sync"
)

// LoaderMarker tags the loader script so a document can tell it is present.
const LoaderMarker = "data-wxo-loader"

// Defaults for the hosted assistant.
const (
	DefaultOrchestrationID    = "20260227-0352-4110-909f-3ff27511395b_20260227-0352-4788-2043-49cd45ae3997"
	DefaultHostURL            = "https://dl.watson-orchestrate.ibm.com"
	DefaultRootElementID      = "wxo-chat-root"
	DefaultAgentID            = "37784f02-4177-44f4-bcba-6787bc243fee"
	DefaultAgentEnvironmentID = "a0f497c7-c69b-4715-9e6e-8b827ae2125d"
)

// ChatOptions selects the agent the widget talks to.
type ChatOptions struct {
	AgentID            string `json:"agentId"`
	AgentEnvironmentID string `json:"agentEnvironmentId"`
}

// Config is published to the document as the widget configuration object.
type Config struct {
	OrchestrationID string      `json:"orchestrationID"`
	HostURL         string      `json:"hostURL"`
	RootElementID   string      `json:"rootElementID"`
	ChatOptions     ChatOptions `json:"chatOptions"`
}

// DefaultConfig returns the configuration of the hosted coaching assistant.
func DefaultConfig() Config {
	return Config{
		OrchestrationID: DefaultOrchestrationID,
		HostURL:         DefaultHostURL,
		RootElementID:   DefaultRootElementID,
		ChatOptions: ChatOptions{
			AgentID:            DefaultAgentID,
			AgentEnvironmentID: DefaultAgentEnvironmentID,
		},
	}
}

// LoaderURL returns the address of the loader script.
func (c Config) LoaderURL() string {
	return strings.TrimRight(c.HostURL, "/") + "/wxochat/wxoLoader.js?embed=true"
}

// Validate reports a configuration the loader cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.HostURL == "" {
		errs = append(errs, errors.New("widget: host url is empty"))
	}
	if c.OrchestrationID == "" {
		errs = append(errs, errors.New("widget: orchestration id is empty"))
	}
	if c.RootElementID == "" {
		errs = append(errs, errors.New("widget: root element id is empty"))
	}
	return errors.Join(errs...)
}

// Loader is the global object the loader script installs.
type Loader interface {
	Init()
}

// Runtime exposes what the loader script left behind once it has loaded.
type Runtime interface {
	// Loader returns the installed loader, if any.
	Loader() (Loader, bool)
}

// Script is an external script to append to the document head.
type Script struct {
	Src    string
	Async  bool
	Marker string
	// OnLoad runs after the script has loaded.
	OnLoad func(Runtime)
}

// Document is the host the widget is mounted into.
type Document interface {
	// HasLoader reports whether a script carrying LoaderMarker is present.
	HasLoader() bool
	SetConfiguration(Config)
	AppendScript(Script)
}

// Bridge mounts the widget with a fixed configuration. It remembers every
// document it has handled and never injects into one twice.
type Bridge struct {
	cfg Config

	mu       sync.Mutex
	injected map[Document]struct{}
}

// NewBridge returns a bridge for cfg.
func NewBridge(cfg Config) *Bridge {
	return &Bridge{cfg: cfg, injected: make(map[Document]struct{})}
}

// Config returns the configuration the bridge publishes.
func (b *Bridge) Config() Config {
	return b.cfg
}

// Mount injects the widget into doc unless this bridge already handled doc
// or doc carries a loader from elsewhere. It reports whether anything was
// injected. Documents must be comparable, typically pointers.
func (b *Bridge) Mount(doc Document) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.injected[doc]; ok {
		return false
	}
	b.injected[doc] = struct{}{}
	if doc.HasLoader() {
		return false
	}
	doc.SetConfiguration(b.cfg)
	doc.AppendScript(Script{
		Src:    b.cfg.LoaderURL(),
		Async:  true,
		Marker: LoaderMarker,
		OnLoad: InitLoader,
	})
	return true
}

// Mounted reports whether Mount has handled doc.
func (b *Bridge) Mounted(doc Document) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.injected[doc]
	return ok
}

// Unmount leaves the widget resident so a later Mount finds it loaded.
func (b *Bridge) Unmount(Document) {}

// InitLoader calls the loader's init hook if the loader and hook exist.
func InitLoader(rt Runtime) {
	if rt == nil {
		return
	}
	if l, ok := rt.Loader(); ok && l != nil {
		l.Init()
	}
}
