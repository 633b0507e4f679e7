// Package infer suggests classification metadata for a posting draft:
// client, product, category and source site. The results are best-effort
// hints for the operator, never ground truth.
package infer

import (
	"github.com/hyperifyio/jobscrape/internal/extract"
	"github.com/hyperifyio/jobscrape/internal/posting"
	"github.com/hyperifyio/jobscrape/internal/sites"
)

// NotIdentified is returned when a heuristic finds nothing.
const NotIdentified = "Não identificado"

// Labels are the suggested classification values for one draft.
type Labels struct {
	Client   string     `json:"client"`
	Product  string     `json:"product"`
	Category CategoryID `json:"category"`
	Site     string     `json:"site"`
}

// All computes every suggestion for d. A non-empty organization, as declared
// by the page's structured data, is preferred over the URL-derived client.
func All(d posting.Draft, organization string) Labels {
	client := extract.NormalizeLine(organization)
	if client == "" {
		client = Client(d.SourceURL)
	}
	return Labels{
		Client:   client,
		Product:  Product(d.Title),
		Category: Category(d.Title, d.Description),
		Site:     SourceSite(d.SourceURL),
	}
}

// SourceSite returns the display label of the board rawURL belongs to.
func SourceSite(rawURL string) string {
	return sites.Classify(rawURL).Label()
}
