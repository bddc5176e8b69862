package lookup

import (
	"encoding/xml"
	"errors"
	"html"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type valueAttr struct {
	Value string `xml:"value,attr"`
}

type nameElem struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type searchDoc struct {
	Items []struct {
		ID    string     `xml:"id,attr"`
		Names []nameElem `xml:"name"`
		Year  valueAttr  `xml:"yearpublished"`
	} `xml:"item"`
}

type thingDoc struct {
	Items []struct {
		ID          string     `xml:"id,attr"`
		Thumbnail   string     `xml:"thumbnail"`
		Image       string     `xml:"image"`
		Names       []nameElem `xml:"name"`
		Description string     `xml:"description"`
		Year        valueAttr  `xml:"yearpublished"`
		MinPlayers  valueAttr  `xml:"minplayers"`
		MaxPlayers  valueAttr  `xml:"maxplayers"`
		PlayingTime valueAttr  `xml:"playingtime"`
		MinAge      valueAttr  `xml:"minage"`
		Ratings     struct {
			Average       valueAttr `xml:"average"`
			AverageWeight valueAttr `xml:"averageweight"`
		} `xml:"statistics>ratings"`
	} `xml:"item"`
}

func decodeSearch(body []byte) ([]models.SearchResult, error) {
	var doc searchDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(doc.Items))
	out := make([]models.SearchResult, 0, len(doc.Items))
	for _, it := range doc.Items {
		if it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, models.SearchResult{
			ExternalID:    it.ID,
			Name:          primaryName(it.Names),
			YearPublished: positiveInt(it.Year.Value),
		})
	}
	return out, nil
}

func decodeThing(body []byte, externalID string) (*models.GameDetails, error) {
	var doc thingDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if len(doc.Items) == 0 {
		return nil, errors.New("details: empty document")
	}

	it := doc.Items[0]
	id := it.ID
	if id == "" {
		id = externalID
	}
	return &models.GameDetails{
		ExternalID:    id,
		Name:          primaryName(it.Names),
		ThumbnailURL:  httpsURL(it.Thumbnail),
		ImageURL:      httpsURL(it.Image),
		Description:   html.UnescapeString(strings.TrimSpace(it.Description)),
		YearPublished: positiveInt(it.Year.Value),
		MinPlayers:    positiveInt(it.MinPlayers.Value),
		MaxPlayers:    positiveInt(it.MaxPlayers.Value),
		MinAge:        positiveInt(it.MinAge.Value),
		PlayingTime:   positiveInt(it.PlayingTime.Value),
		Rating:        positiveFloat(it.Ratings.Average.Value),
		Complexity:    positiveFloat(it.Ratings.AverageWeight.Value),
	}, nil
}

func primaryName(names []nameElem) string {
	for _, n := range names {
		if n.Type == "primary" {
			return html.UnescapeString(n.Value)
		}
	}
	if len(names) > 0 {
		return html.UnescapeString(names[0].Value)
	}
	return ""
}

// httpsURL turns protocol-relative and plain http image links into https.
func httpsURL(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}

// The service reports unknown numbers as 0, which is never a real value
// for these fields.
func positiveInt(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func positiveFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
