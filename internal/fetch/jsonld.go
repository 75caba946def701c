package fetch

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JobPosting is the schema.org JobPosting a page declares in JSON-LD
type JobPosting struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

var blockEnd = regexp.MustCompile(`(?i)<br\s*/?>|</(p|li|div|ul|ol|h[1-6])>`)

// ExtractJobPosting returns the first JobPosting found in the page's ld+json scripts.
// The description is reduced to plain text.
func ExtractJobPosting(html string) (*JobPosting, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}

	var found *JobPosting
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
			return true
		}
		for _, node := range ldNodes(data) {
			if posting := postingFrom(node); posting != nil {
				found = posting
				return false
			}
		}
		return true
	})
	return found, found != nil
}

// ldNodes flattens arrays and @graph containers into their objects
func ldNodes(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var out []map[string]any
		for _, item := range v {
			out = append(out, ldNodes(item)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{v}
		if graph, ok := v["@graph"]; ok {
			out = append(out, ldNodes(graph)...)
		}
		return out
	}
	return nil
}

func postingFrom(node map[string]any) *JobPosting {
	if !hasType(node["@type"], "JobPosting") {
		return nil
	}
	posting := &JobPosting{
		Title:       ldString(node["title"]),
		Company:     ldName(node["hiringOrganization"]),
		Location:    ldPlace(node["jobLocation"]),
		Description: htmlToText(ldString(node["description"])),
	}
	if posting.Title == "" && posting.Description == "" {
		return nil
	}
	return posting
}

func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func ldString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func ldName(v any) string {
	if m, ok := v.(map[string]any); ok {
		return ldString(m["name"])
	}
	return ldString(v)
}

// ldPlace renders a Place (or the first of several) as "City, Region, Country"
func ldPlace(v any) string {
	switch p := v.(type) {
	case []any:
		for _, item := range p {
			if place := ldPlace(item); place != "" {
				return place
			}
		}
	case map[string]any:
		address, ok := p["address"].(map[string]any)
		if !ok {
			return ldString(p["address"])
		}
		var parts []string
		for _, part := range []string{
			ldString(address["addressLocality"]),
			ldString(address["addressRegion"]),
			ldName(address["addressCountry"]),
		} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	fragment = blockEnd.ReplaceAllString(fragment, "$0\n")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanWhitespace(fragment)
	}
	return cleanWhitespace(doc.Text())
}
