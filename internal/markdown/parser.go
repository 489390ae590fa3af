package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/templui/tutordesk/internal/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

var ErrMissingTitle = errors.New("goal document has no title")

// Parser renders goal descriptions and reads goal documents.
// Raw HTML in the source is never passed through.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{md: md}
}

// Render converts a markdown description to HTML.
func (p *Parser) Render(source string) (string, error) {
	var buf bytes.Buffer
	err := p.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GoalDocument is a goal written as markdown with YAML front matter.
// The body becomes the description.
type GoalDocument struct {
	Title       string
	Target      string
	Priority    string
	Progress    int
	DueDate     *time.Time
	Description string
}

type goalMeta struct {
	Title    string `yaml:"title"`
	Target   string `yaml:"target"`
	Due      string `yaml:"due"`
	Priority string `yaml:"priority"`
	Progress int    `yaml:"progress"`
}

// ParseGoal reads a goal document. Due dates may be YYYY-MM-DD or RFC 3339.
func (p *Parser) ParseGoal(source []byte) (*GoalDocument, error) {
	ctx := parser.NewContext()
	p.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	var meta goalMeta
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(&meta); err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	if strings.TrimSpace(meta.Title) == "" {
		return nil, ErrMissingTitle
	}

	doc := &GoalDocument{
		Title:       strings.TrimSpace(meta.Title),
		Target:      meta.Target,
		Priority:    meta.Priority,
		Progress:    meta.Progress,
		Description: strings.TrimSpace(body(source)),
	}

	if meta.Due != "" {
		due, err := model.ParseDueDate(meta.Due)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		doc.DueDate = &due
	}

	return doc, nil
}

// body returns the source after a leading "---" delimited block.
func body(source []byte) string {
	s := strings.ReplaceAll(string(source), "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	rest := s[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return s
	}
	rest = rest[end+len("\n---"):]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}
