package tracking

import (
	"net/url"
	"strings"
)

// ClickIDParam is the query parameter carrying the click id to destinations.
const ClickIDParam = "afl_click_id"

var clickIDPlaceholders = []string{"{click_id}", "{clickid}", "{afl_click_id}"}

// AppendClickID adds afl_click_id (and external_id when set) to dest, using
// "&" when dest already has a query string and "?" otherwise. A fragment
// stays at the end of the URL.
func AppendClickID(dest, clickID, externalID string) string {
	fragment := ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		dest, fragment = dest[:i], dest[i:]
	}

	sep := "?"
	if strings.Contains(dest, "?") {
		sep = "&"
	}

	var b strings.Builder
	b.WriteString(dest)
	b.WriteString(sep)
	b.WriteString(ClickIDParam + "=" + url.QueryEscape(clickID))
	if externalID != "" {
		b.WriteString("&external_id=" + url.QueryEscape(externalID))
	}
	b.WriteString(fragment)
	return b.String()
}

// ExpandOfferURL fills click id placeholders of an offer URL template.
func ExpandOfferURL(template, clickID string) string {
	for _, p := range clickIDPlaceholders {
		template = strings.ReplaceAll(template, p, clickID)
	}
	return template
}
