package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider is the identifier recorded on OCR attempts made through this
// client.
const Provider = "google_vision"

// Client wraps the Google Vision images:annotate REST endpoint. Only document
// text detection is used; everything past "give me the text" lives in the
// resolver.
type Client struct {
	endpoint string
	apiKey   string
	http     *resty.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     resty.New().SetTimeout(timeout),
	}
}

type annotateRequest struct {
	Requests []annotateItem `json:"requests"`
}

type annotateItem struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// DetectText runs document text detection on one image and returns the full
// extracted text. An empty string without error means the provider saw no
// text at all.
func (c *Client) DetectText(ctx context.Context, image []byte) (string, error) {
	req := annotateRequest{
		Requests: []annotateItem{{
			Image:    imageContent{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("vision error: status %d", resp.StatusCode())
	}

	var out annotateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(out.Responses) == 0 {
		return "", fmt.Errorf("vision response empty")
	}

	r := out.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("vision: %s", r.Error.Message)
	}
	if r.FullTextAnnotation != nil && r.FullTextAnnotation.Text != "" {
		return r.FullTextAnnotation.Text, nil
	}
	if len(r.TextAnnotations) > 0 {
		return r.TextAnnotations[0].Description, nil
	}
	return "", nil
}
