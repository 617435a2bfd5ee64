package handlers

import (
	"html/template"
	"net/http"
)

const (
	docsSpecPath   = "/api/docs/openapi.json"
	swaggerVersion = "5.10.0"
)

type docsLink struct {
	Href  string
	Label string
}

type docsPage struct {
	Title          string
	Summary        string
	SpecURL        string
	SwaggerVersion string
	Links          []docsLink
}

var docsTemplate = template.Must(template.New("docs").Parse(docsHTML))

// SwaggerUI serves the interactive API reference for the CO2 endpoints
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	page := docsPage{
		Title:          "Keeling Curve API",
		Summary:        "Monthly Mauna Loa CO₂ record, seasonal decomposition, annual growth and decade statistics produced by the pipeline.",
		SpecURL:        docsSpecPath,
		SwaggerVersion: swaggerVersion,
		Links: []docsLink{
			{Href: "/dashboard", Label: "Dashboard"},
			{Href: docsSpecPath, Label: "OpenAPI JSON"},
			{Href: "/health", Label: "Health"},
			{Href: "/metrics", Label: "Metrics"},
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := docsTemplate.Execute(w, page); err != nil {
		http.Error(w, "failed to render docs", http.StatusInternalServerError)
	}
}

const docsHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}} Reference</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.SwaggerVersion}}/swagger-ui.css">
<style>
body { margin: 0; font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; }
header { background: #1f4e79; color: #fff; padding: 18px 32px; }
header h1 { margin: 0 0 6px; font-size: 22px; }
header p { margin: 0 0 10px; opacity: .85; }
header nav a { color: #cfe3f5; margin-right: 18px; text-decoration: none; font-size: 14px; }
#reference { max-width: 1200px; margin: 0 auto; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p>{{.Summary}}</p>
<nav>{{range .Links}}<a href="{{.Href}}">{{.Label}}</a>{{end}}</nav>
</header>
<div id="reference"></div>
<script src="https://unpkg.com/swagger-ui-dist@{{.SwaggerVersion}}/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({
  url: "{{.SpecURL}}",
  dom_id: "#reference",
  layout: "BaseLayout",
  docExpansion: "list",
  defaultModelsExpandDepth: 0,
  tryItOutEnabled: true
});
</script>
</body>
</html>`
