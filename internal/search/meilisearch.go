package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

// Document is the search representation of a listing
type Document struct {
	ListingID   int     `json:"listing_id"`
	Address     string  `json:"address"`
	MonthlyRent float64 `json:"monthly_rent"`
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   float64 `json:"bathrooms"`
	SquareFeet  int     `json:"square_feet"`
	Source      string  `json:"source"`
	ListingURL  string  `json:"listing_url,omitempty"`
}

// NewDocument converts a stored listing into a search document
func NewDocument(l *models.Listing) Document {
	doc := Document{
		ListingID:   l.ID,
		Address:     l.Address,
		MonthlyRent: l.MonthlyRent.InexactFloat64(),
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms.InexactFloat64(),
		SquareFeet:  l.SquareFeet,
		Source:      l.Source,
	}
	if l.ListingURL != nil {
		doc.ListingURL = *l.ListingURL
	}
	return doc
}

// Client wraps Meilisearch with listing-specific operations
type Client struct {
	client *meilisearch.Client
	index  string
}

// NewClient creates a Meilisearch client for index
func NewClient(host, apiKey, index string) *Client {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &Client{
		client: client,
		index:  index,
	}
}

// InitIndex creates the index and configures its attributes
func (c *Client) InitIndex() error {
	_, err := c.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        c.index,
		PrimaryKey: "listing_id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create index %s: %w", c.index, err)
	}

	idx := c.client.Index(c.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{"address", "source"}); err != nil {
		return fmt.Errorf("failed to update searchable attributes: %w", err)
	}
	if _, err := idx.UpdateFilterableAttributes(&[]string{"bedrooms", "monthly_rent", "source"}); err != nil {
		return fmt.Errorf("failed to update filterable attributes: %w", err)
	}
	if _, err := idx.UpdateSortableAttributes(&[]string{"monthly_rent", "square_feet"}); err != nil {
		return fmt.Errorf("failed to update sortable attributes: %w", err)
	}
	return nil
}

// IndexListings replaces the indexed documents with listings
func (c *Client) IndexListings(listings []*models.Listing) error {
	idx := c.client.Index(c.index)
	if _, err := idx.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("failed to clear index %s: %w", c.index, err)
	}
	if len(listings) == 0 {
		return nil
	}

	docs := make([]Document, 0, len(listings))
	for _, l := range listings {
		docs = append(docs, NewDocument(l))
	}
	if _, err := idx.AddDocuments(docs, "listing_id"); err != nil {
		return fmt.Errorf("failed to index %d listings: %w", len(docs), err)
	}
	return nil
}

// Query holds the parameters of a listing search
type Query struct {
	Text     string
	Bedrooms *int
	MinRent  *float64
	MaxRent  *float64
	Source   string
	Limit    int64
}

// Search runs a full-text query with optional filters, cheapest first
func (c *Client) Search(q Query) ([]Document, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	req := &meilisearch.SearchRequest{
		Limit: q.Limit,
		Sort:  []string{"monthly_rent:asc"},
	}
	if filter := BuildFilter(q); filter != "" {
		req.Filter = filter
	}

	res, err := c.client.Index(c.index).Search(q.Text, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return decodeHits(res.Hits)
}

var filterQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// BuildFilter renders the query filters as a Meilisearch filter expression
func BuildFilter(q Query) string {
	var filters []string
	if q.Bedrooms != nil {
		filters = append(filters, fmt.Sprintf("bedrooms = %d", *q.Bedrooms))
	}
	if q.MinRent != nil {
		filters = append(filters, fmt.Sprintf("monthly_rent >= %g", *q.MinRent))
	}
	if q.MaxRent != nil {
		filters = append(filters, fmt.Sprintf("monthly_rent <= %g", *q.MaxRent))
	}
	if q.Source != "" {
		filters = append(filters, fmt.Sprintf("source = '%s'", filterQuoter.Replace(q.Source)))
	}
	return strings.Join(filters, " AND ")
}

func decodeHits(hits []interface{}) ([]Document, error) {
	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("failed to encode hit: %w", err)
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode hit: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
