package docstore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"
)

// parsed is the text of one file plus any title the file declares itself.
type parsed struct {
	title string
	text  string
}

type parser func(content []byte, proseOnly bool) (parsed, error)

var parsers = map[string]parser{
	".md":       parseMarkdown,
	".markdown": parseMarkdown,
	".txt":      parsePlain,
	".html":     parseHTML,
	".htm":      parseHTML,
	".pdf":      parsePDF,
	".eml":      parseEML,
}

// Supported reports whether a loader exists for the file's extension.
func Supported(path string) bool {
	_, ok := parsers[strings.ToLower(filepath.Ext(path))]
	return ok
}

func parseFile(path string, content []byte, proseOnly bool) (parsed, error) {
	p, ok := parsers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return parsed{}, fmt.Errorf("no loader for %s", filepath.Ext(path))
	}
	return p(content, proseOnly)
}

func parsePlain(content []byte, _ bool) (parsed, error) {
	return parsed{text: string(content)}, nil
}

// parseMarkdown keeps the source text intact and takes the title from YAML
// frontmatter or the first level-one heading.
func parseMarkdown(content []byte, _ bool) (parsed, error) {
	text := string(content)
	out := parsed{text: text}
	if fm, ok := frontmatter(text); ok {
		if title, ok := fm["title"].(string); ok {
			out.title = strings.TrimSpace(title)
		}
	}
	if out.title == "" {
		out.title = firstHeading(text)
	}
	return out, nil
}

func frontmatter(text string) (map[string]any, bool) {
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return nil, false
	}
	rest := text[strings.Index(text, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, false
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return nil, false
	}
	return fm, true
}

func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

func parseHTML(content []byte, proseOnly bool) (parsed, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return parsed{}, err
	}
	doc.Find("script, style, noscript").Remove()
	if proseOnly {
		doc.Find("pre, code").Remove()
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	lines := []string{}
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li, td, th, pre").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		lines = append(lines, strings.TrimSpace(doc.Find("body").Text()))
	}
	return parsed{title: title, text: strings.Join(lines, "\n")}, nil
}

func parsePDF(content []byte, _ bool) (parsed, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return parsed{}, err
	}

	pages := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return parsed{text: strings.Join(pages, "\n")}, nil
}

// parseEML reads archived comment threads; the subject becomes the title.
func parseEML(content []byte, _ bool) (parsed, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(content))
	if err != nil {
		return parsed{}, err
	}
	return parsed{title: strings.TrimSpace(env.GetHeader("Subject")), text: env.Text}, nil
}
