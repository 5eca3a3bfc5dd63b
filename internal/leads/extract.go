package leads

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// ExtractEmail returns the first contact address on a page: the target of the
// first usable mailto link, otherwise the first address-shaped text anywhere in
// the markup. It returns "" when there is none.
func ExtractEmail(html string) string {
	if html == "" {
		return ""
	}
	if addr := firstMailto(html); addr != "" {
		return addr
	}
	return emailPattern.FindString(html)
}

func firstMailto(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if len(href) < 7 || !strings.EqualFold(href[:7], "mailto:") {
			return true
		}
		addr := href[7:]
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if unescaped, err := url.PathUnescape(addr); err == nil {
			addr = unescaped
		}
		if m := emailPattern.FindString(addr); m != "" {
			found = m
			return false
		}
		return true
	})
	return found
}
