package contract

import (
	"html/template"
	"net/http"
)

// docsPage is the data the docs template renders.
type docsPage struct {
	Title   string
	SpecURL string
}

// ServeDocs mounts an interactive documentation UI at pattern, rendered
// with Stoplight Elements against the spec served at specURL. The UI is a
// read-only consumer of the API descriptor via the spec endpoint.
func (s *Server) ServeDocs(pattern, specURL string) {
	page := docsPage{
		Title:   s.dispatcher.api.Name(),
		SpecURL: specURL,
	}

	tmpl := template.Must(template.New("docs").Parse(docsHTML))

	s.mux.HandleFunc("GET "+pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck,gosec // best-effort template render
		tmpl.Execute(w, page)
	})
}

const docsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</head>
<body>
  <elements-api
    apiDescriptionUrl="{{.SpecURL}}"
    router="hash"
    layout="sidebar"
  />
</body>
</html>`
