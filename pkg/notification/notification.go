// Package notification renders confirmation emails for the registration
// pipeline. Rendering is pure: templates are embedded at build time and the
// only input that varies between calls with the same notification is the
// footer year taken from the supplied clock value.
package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"registration/pkg/domain"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates
var templatesFS embed.FS

const (
	// DefaultMembershipID is shown when neither the request nor the patron API supplies one.
	DefaultMembershipID = "N/A"
	// DefaultConfirmationSubject is used for notification-only requests.
	DefaultConfirmationSubject = "Library Registration Confirmation"
)

// Options configures the library branding used by the templates.
type Options struct {
	// LibraryName appears in greetings, the signature and the footer.
	LibraryName string
	// AccountURL is linked from the welcome email when non-empty.
	AccountURL string
}

// Rendered is a notification ready to be handed to a mail transport.
type Rendered struct {
	Subject string
	HTML    string
}

// Renderer turns an EmailNotification into a subject and HTML body.
// It is safe for concurrent use.
type Renderer struct {
	opts   Options
	md     goldmark.Markdown
	bodies *texttemplate.Template
	layout *template.Template
}

// NewRenderer parses the embedded templates. It fails only if the embedded
// templates are malformed.
func NewRenderer(opts Options) (*Renderer, error) {
	bodies, err := texttemplate.New("bodies").
		Funcs(texttemplate.FuncMap{"md": EscapeMarkdown}).
		ParseFS(templatesFS, "templates/*.md")
	if err != nil {
		return nil, fmt.Errorf("could not parse body templates: %w", err)
	}
	layout, err := template.ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse layout template: %w", err)
	}

	return &Renderer{
		opts: opts,
		// raw HTML in the markdown source is escaped since WithUnsafe is not set
		md: goldmark.New(
			goldmark.WithRendererOptions(
				goldmarkHTML.WithHardWraps(),
			),
		),
		bodies: bodies,
		layout: layout,
	}, nil
}

// markdownPunct lists the ASCII punctuation characters CommonMark allows to be backslash escaped.
const markdownPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// EscapeMarkdown makes s safe to embed inline in a markdown document: line
// breaks become spaces and every ASCII punctuation character is backslash
// escaped, so links, images, headings and emphasis render as literal text.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.Join(strings.Fields(s), " ") {
		if strings.ContainsRune(markdownPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Subject returns the subject line for n, applying the defaults when n has none.
func (r *Renderer) Subject(n domain.EmailNotification) string {
	if s := strings.TrimSpace(n.Subject); s != "" {
		return s
	}
	if n.Registered {
		return fmt.Sprintf("Welcome to %s - Registration Confirmation", r.opts.LibraryName)
	}

	return DefaultConfirmationSubject
}

// Render builds the subject and HTML body for n. now only feeds the footer year.
func (r *Renderer) Render(n domain.EmailNotification, now time.Time) (*Rendered, error) {
	name := "confirmation.md"
	if n.Registered {
		name = "registration.md"
	}

	membershipID := n.MembershipID
	if membershipID == "" {
		membershipID = DefaultMembershipID
	}
	displayName := n.Name
	if displayName == "" {
		displayName = "New Member"
	}

	var src bytes.Buffer
	if err := r.bodies.ExecuteTemplate(&src, name, map[string]string{
		"Name":         displayName,
		"Email":        n.Email,
		"MembershipID": membershipID,
		"Library":      r.opts.LibraryName,
		"AccountURL":   r.opts.AccountURL,
	}); err != nil {
		return nil, fmt.Errorf("could not execute %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := r.md.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("could not convert markdown: %w", err)
	}

	subject := r.Subject(n)
	var out bytes.Buffer
	if err := r.layout.ExecuteTemplate(&out, "layout.html", map[string]any{
		"Subject": subject,
		"Body":    template.HTML(body.String()), //nolint: gosec
		"Year":    now.Year(),
		"Library": r.opts.LibraryName,
	}); err != nil {
		return nil, fmt.Errorf("could not execute layout: %w", err)
	}

	return &Rendered{Subject: subject, HTML: out.String()}, nil
}
