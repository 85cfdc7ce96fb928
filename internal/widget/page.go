package widget

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
	"slices"
	"sync"
)

var pageTmpl = template.Must(template.New("assistant").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>html,body{margin:0;height:100%;background:#0b1220;color:#e2e8f0;font-family:system-ui,sans-serif}#{{.RootID}}{height:100%;width:100%}</style>
{{- if .Config}}
<script>window.wxOConfiguration = {{.Config}};</script>
{{- end}}
{{- range .Scripts}}
<script src="{{.Src}}"{{if .Async}} async{{end}}{{if .Loader}} data-wxo-loader="true" onload="window.wxoLoader &amp;&amp; window.wxoLoader.init &amp;&amp; window.wxoLoader.init()"{{end}}></script>
{{- end}}
</head>
<body>
<div id="{{.RootID}}"></div>
</body>
</html>
`))

// Page is a server-rendered HTML document that hosts the widget.
// A script's OnLoad hook is rendered as a guarded call to the loader's init.
type Page struct {
	Title   string
	cfg     *Config
	scripts []Script
}

// NewPage returns an empty page.
func NewPage(title string) *Page {
	return &Page{Title: title}
}

// HasLoader implements Document.
func (p *Page) HasLoader() bool {
	return slices.ContainsFunc(p.scripts, func(s Script) bool {
		return s.Marker == LoaderMarker
	})
}

// SetConfiguration implements Document.
func (p *Page) SetConfiguration(cfg Config) {
	p.cfg = &cfg
}

// AppendScript implements Document.
func (p *Page) AppendScript(s Script) {
	p.scripts = append(slices.Clip(p.scripts), s)
}

// Configuration returns the published configuration, if any.
func (p *Page) Configuration() (Config, bool) {
	if p.cfg == nil {
		return Config{}, false
	}
	return *p.cfg, true
}

type pageScript struct {
	Src    string
	Async  bool
	Loader bool
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	rootID := DefaultRootElementID
	if p.cfg != nil && p.cfg.RootElementID != "" {
		rootID = p.cfg.RootElementID
	}
	scripts := make([]pageScript, len(p.scripts))
	for i, s := range p.scripts {
		scripts[i] = pageScript{Src: s.Src, Async: s.Async, Loader: s.Marker == LoaderMarker}
	}
	return pageTmpl.Execute(w, struct {
		Title   string
		RootID  string
		Config  *Config
		Scripts []pageScript
	}{p.Title, rootID, p.cfg, scripts})
}

// Handler serves one host page, mounted and rendered on the first request.
func (b *Bridge) Handler(title string) http.Handler {
	var (
		once      sync.Once
		body      []byte
		renderErr error
	)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			page := NewPage(title)
			b.Mount(page)
			var buf bytes.Buffer
			renderErr = page.Render(&buf)
			body = buf.Bytes()
		})
		if renderErr != nil {
			http.Error(w, renderErr.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	})
}
