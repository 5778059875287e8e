package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toasty/internal/model"
)

// PlainFormatter formats toasts as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
// An invalid custom template falls back to the default layout.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes toasts as plain text, one per line.
func (f *PlainFormatter) Format(w io.Writer, toasts model.Snapshot) error {
	now := f.opts.now()
	for i := range toasts {
		if err := f.formatToast(w, i+1, &toasts[i], now); err != nil {
			return err
		}
	}
	return nil
}

// templateData provides data for custom templates.
type templateData struct {
	Index int
	*model.Toast
	RelativeTime string
}

func (f *PlainFormatter) formatToast(w io.Writer, index int, t *model.Toast, now time.Time) error {
	if f.template != nil {
		data := templateData{
			Index:        index,
			Toast:        t,
			RelativeTime: relativeTime(t.CreatedAt, now),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	fmt.Fprintf(&sb, "%-7s ", strings.ToUpper(t.Kind.String()))

	msg := strings.Join(strings.Fields(t.Message), " ")
	if f.opts.MessageMaxLen > 0 {
		msg = t.MessageTruncated(f.opts.MessageMaxLen)
	}
	sb.WriteString(msg)

	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s)", relativeTime(t.CreatedAt, now))
	}

	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatField outputs a specific field from a toast.
func FormatField(t *model.Toast, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return t.ID
	case "kind":
		return t.Kind.String()
	case "title":
		return t.Title()
	case "created", "created_at":
		return t.CreatedAt.Format(time.RFC3339)
	case "all", "full":
		return fmt.Sprintf("%s\n%s", t.Title(), t.Message)
	default:
		return t.Message
	}
}

// templateFuncs returns template helper functions.
func templateFuncs(opts FormatterOptions) template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			return model.Toast{Message: s}.MessageTruncated(maxLen)
		},
		"upper": strings.ToUpper,
		"reltime": func(t time.Time) string {
			return relativeTime(t, opts.now())
		},
		"kindIcon": kindIcon,
	}
}

// kindIcon returns a single-character marker for a kind.
func kindIcon(k model.Kind) string {
	switch k {
	case model.KindSuccess:
		return "+"
	case model.KindError:
		return "!"
	case model.KindWarning:
		return "~"
	default:
		return "i"
	}
}

// relativeTime returns a human-readable age such as "3 seconds ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if now.Sub(t) < time.Second {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
