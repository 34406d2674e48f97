package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries the provider endpoints and the application credential.
// Loaded once at process start and immutable afterwards.
type Config struct {
	FindingURL  string
	ShoppingURL string
	AppID       string
	TrackingID  string
}

// Client executes the two provider calls behind the listing flow:
// findItemsAdvanced against the Finding service and GetMultipleItems
// against the Shopping service. Both go through the file cache.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *FileCache
	logger     *logrus.Logger
}

func NewClient(cfg Config, cache *FileCache, logger *logrus.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}
}

// FindItems runs one findItemsAdvanced page. slug keys the cache entry
// alongside the request's page number.
func (c *Client) FindItems(ctx context.Context, slug string, req *FindRequest) (*FindResponse, error) {
	req.TrackingID = c.cfg.TrackingID

	body := c.cache.Get(slug, req.Page, KindFind)
	fetched := body == nil
	if fetched {
		var err error
		body, err = c.get(ctx, c.cfg.FindingURL, req.Values(c.cfg.AppID))
		if err != nil {
			return nil, err
		}
	}

	var resp FindResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal finding response: %w", err)
	}

	if resp.Ack != "Success" {
		return nil, &APIError{Message: resp.errText()}
	}

	// Only successful responses are worth keeping for an hour.
	if fetched {
		c.cache.Put(slug, req.Page, KindFind, body)
	}

	return &resp, nil
}

// GetMultipleItems batch-fetches extended details for all item ids in a
// single call. The page number keys the cache next to the search that
// produced the ids.
func (c *Client) GetMultipleItems(ctx context.Context, slug string, page int, itemIDs []string) (*ShoppingResponse, error) {
	body := c.cache.Get(slug, page, KindShop)
	fetched := body == nil
	if fetched {
		var err error
		body, err = c.get(ctx, c.cfg.ShoppingURL, shoppingValues(c.cfg.AppID, itemIDs))
		if err != nil {
			return nil, err
		}
	}

	var resp ShoppingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping response: %w", err)
	}

	if resp.Ack == "Failure" {
		return nil, &APIError{Message: resp.errText()}
	}

	if fetched {
		c.cache.Put(slug, page, KindShop, body)
	}

	return &resp, nil
}

func (c *Client) get(ctx context.Context, baseURL string, params url.Values) ([]byte, error) {
	reqURL := baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":       baseURL,
		"operation": params.Get("OPERATION-NAME") + params.Get("callname"),
	}).Debug("Calling ebay API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"response_size": len(body),
	}).Debug("ebay API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Message: fmt.Sprintf("provider returned status %d", resp.StatusCode)}
	}

	return body, nil
}
