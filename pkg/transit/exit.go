package transit

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// exitPattern matches station exit mentions such as "出口 3", "M8出口",
// "2號出口" or "Exit A".
var exitPattern = regexp.MustCompile(`(?i)(出口\s*[A-Za-z0-9]+|[A-Za-z0-9]+\s*號?出口|Exit\s*[A-Za-z0-9]+)`)

// ExtractExit returns the first exit mention in plain text.
func ExtractExit(text string) (string, bool) {
	m := exitPattern.FindString(text)
	return m, m != ""
}

// PlainText strips markup from a provider instruction string.
// Block-level tags become a single space; runs of whitespace collapse.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return strings.Join(strings.Fields(markup), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.Join(strings.Fields(markup), " ")
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "div", "br", "p", "li":
				b.WriteByte(' ')
			}
		}
	}
}
