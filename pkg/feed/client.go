package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a tcgcsv-style marketplace feed: static JSON documents per
// category and group, each wrapped in a results envelope.
type Client struct {
	baseURL    string
	categoryID int
	http       *resty.Client
}

func NewClient(baseURL string, categoryID int, timeout time.Duration, retries int) *Client {
	http := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(750 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second)

	return &Client{
		baseURL:    baseURL,
		categoryID: categoryID,
		http:       http,
	}
}

// GetGroups fetches every set in the category.
func (c *Client) GetGroups(ctx context.Context) ([]Group, error) {
	url := fmt.Sprintf("%s/%d/groups", c.baseURL, c.categoryID)

	var groups []Group
	if err := c.getResults(ctx, url, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroupPrices fetches the current price rows for every product in a group.
func (c *Client) GetGroupPrices(ctx context.Context, groupID int64) ([]PriceRow, error) {
	url := fmt.Sprintf("%s/%d/%d/prices", c.baseURL, c.categoryID, groupID)

	var rows []PriceRow
	if err := c.getResults(ctx, url, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetGroupProducts fetches the catalog products of a group.
func (c *Client) GetGroupProducts(ctx context.Context, groupID int64) ([]Product, error) {
	url := fmt.Sprintf("%s/%d/%d/products", c.baseURL, c.categoryID, groupID)

	var products []Product
	if err := c.getResults(ctx, url, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// getResults performs the GET, checks the status and unwraps the results
// envelope into out.
func (c *Client) getResults(ctx context.Context, url string, out interface{}) error {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("feed request %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("feed error %s: status %d", url, resp.StatusCode())
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode feed envelope %s: %w", url, err)
	}
	if env.Results == nil {
		return fmt.Errorf("feed response %s missing results", url)
	}
	if err := json.Unmarshal(env.Results, out); err != nil {
		return fmt.Errorf("decode feed results %s: %w", url, err)
	}
	return nil
}
