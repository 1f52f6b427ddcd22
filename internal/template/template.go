package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/stackvity/fexplore/internal/filesystem"
)

// Executor renders listings through a user-supplied text/template.
type Executor struct {
	template *template.Template
	filePath string
}

// Funcs are available to every listing template.
var Funcs = template.FuncMap{
	"bytes": func(n int64) string {
		if n < 0 {
			return "0 B"
		}
		return humanize.IBytes(uint64(n))
	},
	"ago":   humanize.Time,
	"date":  func(layout string, t time.Time) string { return t.Format(layout) },
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"pad": func(width int, s string) string {
		if len(s) >= width {
			return s
		}
		return s + strings.Repeat(" ", width-len(s))
	},
}

// NewExecutor parses the template at templateFilePath, read through fs.
// Returns nil, nil if templateFilePath is empty so the caller can fall back
// to the built-in renderers.
func NewExecutor(templateFilePath string, fs filesystem.FileSystem) (*Executor, error) {
	if templateFilePath == "" {
		return nil, nil
	}

	templateContent, err := fs.ReadFile(templateFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file '%s': %w", templateFilePath, err)
	}

	tmpl, err := template.New(templateFilePath).Funcs(Funcs).Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template file '%s': %w", templateFilePath, err)
	}

	return &Executor{
		template: tmpl,
		filePath: templateFilePath,
	}, nil
}

// Execute applies the template to data.
func (e *Executor) Execute(data interface{}) (string, error) {
	var rendered bytes.Buffer
	if err := e.template.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", e.filePath, err)
	}
	return rendered.String(), nil
}
