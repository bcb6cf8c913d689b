package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Outline lists the headings of a rendered fragment in document order.
// The fragment is only read, never rewritten.
func Outline(fragment string) ([]Heading, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	headings := make([]Heading, 0)
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		h := Heading{
			Level: int(goquery.NodeName(s)[1] - '0'),
			Text:  text,
		}
		// GitHub emits the anchor inside the heading or right after it
		if id, ok := s.Attr("id"); ok {
			h.ID = id
		} else if id, ok := s.Find("a[id]").First().Attr("id"); ok {
			h.ID = id
		} else if id, ok := s.NextFiltered("a.anchor[id]").Attr("id"); ok {
			h.ID = id
		}
		headings = append(headings, h)
	})
	return headings, nil
}
