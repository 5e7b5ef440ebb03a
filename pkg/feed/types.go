package feed

import "encoding/json"

// Envelope is the response wrapper every feed endpoint uses.
type Envelope struct {
	Results json.RawMessage `json:"results"`
}

// Group is one set (expansion) as published by the feed.
type Group struct {
	GroupID      int64  `json:"groupId"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	PublishedOn  string `json:"publishedOn"`
}

// PriceRow is one market-price observation for a product variant.
// MarketPrice is a pointer because the feed publishes rows with no price.
type PriceRow struct {
	ProductID    int64    `json:"productId"`
	SubTypeName  string   `json:"subTypeName"`
	MarketPrice  *float64 `json:"marketPrice"`
	LowPrice     *float64 `json:"lowPrice"`
	MidPrice     *float64 `json:"midPrice"`
	HighPrice    *float64 `json:"highPrice"`
	DirectLowPrice *float64 `json:"directLowPrice"`
}

// Product is one catalog entry within a group.
type Product struct {
	ProductID    int64           `json:"productId"`
	Name         string          `json:"name"`
	ImageURL     string          `json:"imageUrl"`
	URL          string          `json:"url"`
	ExtendedData []ExtendedField `json:"extendedData"`
}

type ExtendedField struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Value       string `json:"value"`
}

// extended returns the named extendedData value, or "".
func (p Product) extended(name string) string {
	for _, f := range p.ExtendedData {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// CardNumber returns the collector number from extendedData. A non-empty
// number is the discriminator for single cards: sealed products do not
// carry one.
func (p Product) CardNumber() string {
	return p.extended("Number")
}

func (p Product) Rarity() string {
	return p.extended("Rarity")
}
