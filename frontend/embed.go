package frontend

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

// FS embeds the dashboard assets
//
//go:embed static templates
var FS embed.FS

// GetHTTPFS returns the static assets for HTTP serving, rooted at static/
func GetHTTPFS() (http.FileSystem, error) {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		return nil, err
	}
	return http.FS(sub), nil
}

// IndexTemplate parses the dashboard page template
func IndexTemplate() (*template.Template, error) {
	return template.ParseFS(FS, "templates/index.html")
}
