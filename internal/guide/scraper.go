package guide

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var whitespace = regexp.MustCompile(`\s+`)

// Scraper converts a teaching-guide web page into a structured
// Document. It understands the common layout: a page title, a
// basic-data table, and titled sections holding bulleted lists.
type Scraper struct {
	http *http.Client
}

// NewScraper builds a scraper with a default HTTP client.
func NewScraper() *Scraper {
	return &Scraper{http: &http.Client{Timeout: 15 * time.Second}}
}

// ScrapeURL fetches and parses the guide page at url.
func (s *Scraper) ScrapeURL(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("guide: build request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("guide: fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("guide: page returned %d", resp.StatusCode)
	}
	return s.Parse(resp.Body, url)
}

// Parse extracts a Document from guide-page HTML.
func (s *Scraper) Parse(r io.Reader, url string) (Document, error) {
	page, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("guide: parse html: %w", err)
	}

	doc := Document{
		"url":               url,
		"subject":           cleanText(page.Find("h1.page-title").First().Text()),
		"degree":            "",
		"course":            "",
		"semester":          "",
		"credits":           "",
		"type":              "",
		"teaching_staff":    []any{},
		"prerequisites":     []any{},
		"brief_description": []any{},
		"learning_outcomes": []any{},
		"contents": Document{
			"theory":   []any{},
			"practice": []any{},
		},
		"methodology": []any{},
		"bibliography": Document{
			"core":          []any{},
			"supplementary": []any{},
		},
		"evaluation": Document{
			"ordinary":      []any{},
			"extraordinary": []any{},
			"single_final":  []any{},
		},
		"links": []any{},
	}

	s.extractBasicInfo(page, doc)
	s.extractStaff(page, doc)
	s.extractSections(page, doc)
	return doc, nil
}

// extractBasicInfo reads the subject-data table of header/value rows.
func (s *Scraper) extractBasicInfo(page *goquery.Document, doc Document) {
	page.Find("table.subject-data tr").Each(func(_ int, row *goquery.Selection) {
		header := cleanText(row.Find("th").First().Text())
		value := cleanText(row.Find("td").First().Text())
		if header == "" || value == "" {
			return
		}
		switch {
		case containsFold(header, "degree"), containsFold(header, "qualification"):
			doc["degree"] = value
		case containsFold(header, "course"), containsFold(header, "year"):
			doc["course"] = value
		case containsFold(header, "semester"):
			doc["semester"] = value
		case containsFold(header, "credits"):
			doc["credits"] = value
		case containsFold(header, "type"):
			doc["type"] = value
		}
	})
}

// extractStaff collects lecturer names with their office hours.
func (s *Scraper) extractStaff(page *goquery.Document, doc Document) {
	var staff []any
	seen := map[string]bool{}

	page.Find("div.lecturer").Each(func(_ int, div *goquery.Selection) {
		name := cleanText(div.Find("a").First().Text())
		if name == "" {
			name = cleanText(div.Text())
		}
		if name == "" || seen[name] {
			return
		}
		seen[name] = true

		hours := ""
		page.Find("h3.name").EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if !strings.Contains(name, cleanText(h.Text())) {
				return true
			}
			hours = cleanText(h.NextAllFiltered("div.office-hours").First().Text())
			return false
		})

		staff = append(staff, Document{"name": name, "office_hours": hours})
	})

	if staff != nil {
		doc["teaching_staff"] = staff
	}
}

// sectionTargets maps section-heading keywords to dotted document
// paths. Matched against lowercased h2 text.
var sectionTargets = []struct {
	keyword string
	path    string
}{
	{"prerequisites", "prerequisites"},
	{"recommendations", "prerequisites"},
	{"brief description", "brief_description"},
	{"learning outcomes", "learning_outcomes"},
	{"theory programme", "contents.theory"},
	{"practical programme", "contents.practice"},
	{"methodology", "methodology"},
	{"core bibliography", "bibliography.core"},
	{"supplementary bibliography", "bibliography.supplementary"},
	{"ordinary assessment", "evaluation.ordinary"},
	{"extraordinary assessment", "evaluation.extraordinary"},
	{"single final assessment", "evaluation.single_final"},
	{"recommended links", "links"},
}

// extractSections reads every titled section and files its list items
// under the matching document path.
func (s *Scraper) extractSections(page *goquery.Document, doc Document) {
	page.Find("div.guide-section").Each(func(_ int, section *goquery.Selection) {
		title := strings.ToLower(cleanText(section.Find("h2").First().Text()))
		if title == "" {
			return
		}

		var items []any
		section.Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := cleanText(li.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) == 0 {
			if text := cleanText(section.Find("p").Text()); text != "" {
				items = append(items, text)
			}
		}
		if len(items) == 0 {
			return
		}

		for _, target := range sectionTargets {
			if strings.Contains(title, target.keyword) {
				setField(doc, target.path, items)
				return
			}
		}
	})
}

// setField writes a value at a dotted path, assuming intermediate
// objects already exist (the Document skeleton guarantees this).
func setField(doc Document, path string, value []any) {
	parts := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(Document)
		if !ok {
			return
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
