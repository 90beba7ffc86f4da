package utils

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(
			goldhtml.WithHardWraps(),
			goldhtml.WithXHTML(),
		),
	)
	previewPolicy = bluemonday.UGCPolicy()
	strictPolicy  = bluemonday.StrictPolicy()

	hashtagRe = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_]+)`)
)

func init() {
	previewPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	previewPolicy.RequireNoReferrerOnLinks(true)
}

// Preview is the operator-facing rendering of a post body.
type Preview struct {
	HTML       template.HTML `json:"html"`
	Characters int           `json:"characters"`
	Links      []string      `json:"links"`
	Hashtags   []string      `json:"hashtags"`
	OverLimit  bool          `json:"over_limit"`
	CharLimit  int           `json:"char_limit"`
}

// RenderPreview renders body as sanitized HTML and counts the characters
// the reader will actually see.
func RenderPreview(body string, limit int) Preview {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(body), &buf); err != nil {
		buf.Reset()
		buf.WriteString("<p>" + html.EscapeString(body) + "</p>")
	}
	sanitized := previewPolicy.Sanitize(buf.String())

	p := Preview{
		HTML:      template.HTML(sanitized),
		Links:     []string{},
		Hashtags:  []string{},
		CharLimit: limit,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err == nil {
		doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				p.Links = append(p.Links, href)
			}
		})
	}

	p.Characters = utf8.RuneCountInString(strings.TrimSpace(body))
	p.OverLimit = limit > 0 && p.Characters > limit

	seen := map[string]bool{}
	for _, m := range hashtagRe.FindAllStringSubmatch(body, -1) {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			p.Hashtags = append(p.Hashtags, tag)
		}
	}
	return p
}

// SanitizeText strips any markup from operator-supplied text before it is
// stored or published. LinkedIn takes plain text only.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
