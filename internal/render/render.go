package render

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	perrors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/fexplore/internal/explorer"
	"github.com/stackvity/fexplore/internal/template"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// DefaultTimeFormat is used for modification times when none is configured.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text, json, yaml or toml)", s)
	}
}

// Record is the serialisable form of an explorer.Entry.
type Record struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Path        string `json:"path" yaml:"path" toml:"path"`
	Type        string `json:"type" yaml:"type" toml:"type"`
	IsDir       bool   `json:"is_dir" yaml:"is_dir" toml:"is_dir"`
	Permissions string `json:"permissions" yaml:"permissions" toml:"permissions"`
	Owner       string `json:"owner,omitempty" yaml:"owner,omitempty" toml:"owner,omitempty"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	UID         uint32 `json:"uid" yaml:"uid" toml:"uid"`
	GID         uint32 `json:"gid" yaml:"gid" toml:"gid"`
	Size        int64  `json:"size" yaml:"size" toml:"size"`
	SizeHuman   string `json:"size_human" yaml:"size_human" toml:"size_human"`
	Modified    string `json:"modified" yaml:"modified" toml:"modified"`
	Executable  bool   `json:"executable" yaml:"executable" toml:"executable"`
	LinkTarget  string `json:"link_target,omitempty" yaml:"link_target,omitempty" toml:"link_target,omitempty"`
	MIMEType    string `json:"mime_type,omitempty" yaml:"mime_type,omitempty" toml:"mime_type,omitempty"`
}

// Listing is the document produced for ls.
type Listing struct {
	Dir     string   `json:"dir" yaml:"dir" toml:"dir"`
	Entries []Record `json:"entries" yaml:"entries" toml:"entries"`
	Total   int      `json:"total" yaml:"total" toml:"total"`
}

// SearchDocument is the document produced for search.
type SearchDocument struct {
	Term    string   `json:"term" yaml:"term" toml:"term"`
	Base    string   `json:"base" yaml:"base" toml:"base"`
	Mode    string   `json:"mode" yaml:"mode" toml:"mode"`
	Matches []string `json:"matches" yaml:"matches" toml:"matches"`
	Total   int      `json:"total" yaml:"total" toml:"total"`
}

// Result reports the outcome of a mutating command.
type Result struct {
	Operation   string `json:"operation" yaml:"operation" toml:"operation"`
	Path        string `json:"path" yaml:"path" toml:"path"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty" toml:"destination,omitempty"`
	Method      string `json:"method,omitempty" yaml:"method,omitempty" toml:"method,omitempty"`
	Message     string `json:"message" yaml:"message" toml:"message"`
}

// Renderer writes command output in the configured format.
type Renderer struct {
	out        io.Writer
	format     Format
	timeFormat string
	tmpl       *template.Executor
}

// New creates a Renderer. tmpl may be nil; when set it replaces the text
// rendering of listings.
func New(out io.Writer, format Format, timeFormat string, tmpl *template.Executor) *Renderer {
	if timeFormat == "" {
		timeFormat = DefaultTimeFormat
	}
	if format == "" {
		format = FormatText
	}
	return &Renderer{out: out, format: format, timeFormat: timeFormat, tmpl: tmpl}
}

// Permissions renders a mode as ls does, e.g. drwxr-xr-x.
func Permissions(m fs.FileMode) string {
	kind := "-"
	switch {
	case m.IsDir():
		kind = "d"
	case m&fs.ModeSymlink != 0:
		kind = "l"
	case m&fs.ModeCharDevice != 0:
		kind = "c"
	case m&fs.ModeDevice != 0:
		kind = "b"
	case m&fs.ModeNamedPipe != 0:
		kind = "p"
	case m&fs.ModeSocket != 0:
		kind = "s"
	}
	return kind + m.Perm().String()[1:]
}

// Size renders a byte count in binary units.
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Marker returns the suffix that classifies a name in short listings.
func Marker(e explorer.Entry) string {
	switch {
	case e.Type == explorer.EntrySymlink:
		return "@"
	case e.IsDir:
		return "/"
	case e.Executable:
		return "*"
	default:
		return ""
	}
}

// NewRecord converts an entry for structured output.
func (r *Renderer) NewRecord(e explorer.Entry) Record {
	return Record{
		Name:        e.Name,
		Path:        e.Path,
		Type:        string(e.Type),
		IsDir:       e.IsDir,
		Permissions: Permissions(e.Mode),
		Owner:       e.Owner,
		Group:       e.Group,
		UID:         e.UID,
		GID:         e.GID,
		Size:        e.Size,
		SizeHuman:   Size(e.Size),
		Modified:    e.ModTime.Format(r.timeFormat),
		Executable:  e.Executable,
		LinkTarget:  e.LinkTarget,
		MIMEType:    e.MIMEType,
	}
}

func (r *Renderer) listing(dir string, entries []explorer.Entry) Listing {
	doc := Listing{Dir: dir, Entries: make([]Record, 0, len(entries)), Total: len(entries)}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, r.NewRecord(e))
	}
	return doc
}

// Listing writes a directory listing. detailed selects the long format in
// text mode.
func (r *Renderer) Listing(dir string, entries []explorer.Entry, detailed bool) error {
	doc := r.listing(dir, entries)
	if r.tmpl != nil {
		out, err := r.tmpl.Execute(doc)
		if err != nil {
			return err
		}
		_, err = io.WriteString(r.out, out)
		return err
	}
	if r.format != FormatText {
		return r.encode(doc)
	}

	fmt.Fprintf(r.out, "Current Directory: %s\n", dir)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))
	if detailed {
		tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Permissions\tOwner\tGroup\tSize\tModified\tName")
		for _, e := range entries {
			name := e.Name + Marker(e)
			if e.LinkTarget != "" {
				name += " -> " + e.LinkTarget
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				Permissions(e.Mode), orDash(e.Owner), orDash(e.Group), Size(e.Size), e.ModTime.Format(r.timeFormat), name)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else {
		for _, e := range entries {
			fmt.Fprintln(r.out, e.Name+Marker(e))
		}
	}
	_, err := fmt.Fprintf(r.out, "\nTotal items: %d\n", len(entries))
	return err
}

// Entry writes the details of a single item.
func (r *Renderer) Entry(e explorer.Entry) error {
	rec := r.NewRecord(e)
	if r.format != FormatText {
		return r.encode(rec)
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", rec.Name)
	fmt.Fprintf(tw, "Path:\t%s\n", rec.Path)
	fmt.Fprintf(tw, "Type:\t%s\n", rec.Type)
	if rec.LinkTarget != "" {
		fmt.Fprintf(tw, "Target:\t%s\n", rec.LinkTarget)
	}
	fmt.Fprintf(tw, "Permissions:\t%s\n", rec.Permissions)
	fmt.Fprintf(tw, "Owner:\t%s (%d)\n", orDash(rec.Owner), rec.UID)
	fmt.Fprintf(tw, "Group:\t%s (%d)\n", orDash(rec.Group), rec.GID)
	fmt.Fprintf(tw, "Size:\t%s (%d bytes)\n", rec.SizeHuman, rec.Size)
	fmt.Fprintf(tw, "Modified:\t%s\n", rec.Modified)
	if rec.MIMEType != "" {
		fmt.Fprintf(tw, "MIME type:\t%s\n", rec.MIMEType)
	}
	return tw.Flush()
}

// Search writes search matches followed by the match count.
func (r *Renderer) Search(res explorer.SearchResult) error {
	if r.format != FormatText {
		matches := res.Matches
		if matches == nil {
			matches = []string{}
		}
		return r.encode(SearchDocument{
			Term: res.Term, Base: res.Base, Mode: res.Mode.String(),
			Matches: matches, Total: res.Count(),
		})
	}

	if res.Count() == 0 {
		_, err := fmt.Fprintf(r.out, "No files found matching: %s\n", res.Term)
		return err
	}
	fmt.Fprintf(r.out, "Search results for '%s':\n", res.Term)
	fmt.Fprintln(r.out, strings.Repeat("-", 80))
	for _, m := range res.Matches {
		fmt.Fprintln(r.out, m)
	}
	_, err := fmt.Fprintf(r.out, "\nTotal matches: %d\n", res.Count())
	return err
}

// Result writes the outcome of a mutating command.
func (r *Renderer) Result(res Result) error {
	if r.format != FormatText {
		return r.encode(res)
	}
	_, err := fmt.Fprintln(r.out, res.Message)
	return err
}

// Path writes a bare directory path, as cd and pwd do.
func (r *Renderer) Path(p string) error {
	if r.format != FormatText {
		return r.encode(struct {
			Dir string `json:"dir" yaml:"dir" toml:"dir"`
		}{p})
	}
	_, err := fmt.Fprintln(r.out, p)
	return err
}

// Error writes err in the configured format. Text output is the one-line
// description; structured formats carry the code and context.
func (r *Renderer) Error(w io.Writer, err error) error {
	if r.format == FormatText {
		_, werr := fmt.Fprintf(w, "Error: %s\n", explorer.Describe(err))
		return werr
	}
	resp := perrors.ToJSON(err)
	resp.Message = explorer.Describe(err)
	return encodeTo(w, r.format, struct {
		Error *perrors.ErrorResponse `json:"error" yaml:"error" toml:"error"`
	}{resp})
}

func (r *Renderer) encode(v interface{}) error {
	return encodeTo(r.out, r.format, v)
}

func encodeTo(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("failed to encode toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
