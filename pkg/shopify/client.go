package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

const (
	defaultPageSize    = 250
	maxPageSize        = 250
	inventoryChunkSize = 100
	requestTimeout     = 30 * time.Second
)

var (
	errShopDomainRequired  = errors.New("shopify shop domain is required")
	errAccessTokenRequired = errors.New("shopify access token is required")
	errLoggerRequired      = errors.New("shopify logger is required")

	nextLinkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)
)

// Client reads orders and product variants from the Shopify Admin REST API.
type Client struct {
	baseURL     string
	accessToken string
	pageSize    int
	http        *http.Client
	logger      *logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient swaps the transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient validates credentials and builds a client for the configured shop.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	domain := normalizeDomain(cfg.ShopDomain)
	if domain == "" {
		return nil, errShopDomainRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	c := &Client{
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", domain, cfg.APIVersion),
		accessToken: token,
		pageSize:    pageSize,
		http:        &http.Client{Timeout: requestTimeout},
		logger:      logg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func normalizeDomain(raw string) string {
	domain := strings.TrimSpace(raw)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}

// ListOrders walks every order updated at or after since, one page at a time.
// fn is called once per page; returning an error stops the walk.
func (c *Client) ListOrders(ctx context.Context, since time.Time, fn func([]Order) error) error {
	q := url.Values{}
	q.Set("status", "any")
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("updated_at_min", since.UTC().Format(time.RFC3339))
	q.Set("fields", "id,name,processed_at,currency,total_price,shipping_address,shipping_lines,fulfillments,line_items,cancelled_at")
	next := c.baseURL + "/orders.json?" + q.Encode()

	for next != "" {
		var page struct {
			Orders []Order `json:"orders"`
		}
		link, err := c.get(ctx, "list orders", next, &page)
		if err != nil {
			return err
		}
		if err := fn(page.Orders); err != nil {
			return err
		}
		next = link
	}
	return nil
}

// ListVariants returns every product variant along with its inventory item cost.
func (c *Client) ListVariants(ctx context.Context) ([]Variant, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("fields", "id,title,variants")
	next := c.baseURL + "/products.json?" + q.Encode()

	var variants []Variant
	for next != "" {
		var page struct {
			Products []Product `json:"products"`
		}
		link, err := c.get(ctx, "list products", next, &page)
		if err != nil {
			return nil, err
		}
		for _, product := range page.Products {
			for _, v := range product.Variants {
				v.ProductTitle = product.Title
				variants = append(variants, v)
			}
		}
		next = link
	}

	costs, err := c.inventoryCosts(ctx, variants)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		if cost, ok := costs[variants[i].InventoryItemID]; ok {
			variants[i].Cost = cost
		}
	}
	return variants, nil
}

func (c *Client) inventoryCosts(ctx context.Context, variants []Variant) (map[int64]*string, error) {
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		if v.InventoryItemID != 0 {
			ids = append(ids, strconv.FormatInt(v.InventoryItemID, 10))
		}
	}
	costs := make(map[int64]*string, len(ids))
	for start := 0; start < len(ids); start += inventoryChunkSize {
		end := min(start+inventoryChunkSize, len(ids))
		q := url.Values{}
		q.Set("ids", strings.Join(ids[start:end], ","))
		q.Set("limit", strconv.Itoa(inventoryChunkSize))
		var page struct {
			InventoryItems []InventoryItem `json:"inventory_items"`
		}
		if _, err := c.get(ctx, "list inventory items", c.baseURL+"/inventory_items.json?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		for _, item := range page.InventoryItems {
			costs[item.ID] = item.Cost
		}
	}
	return costs, nil
}

// get fetches target into out and returns the rel="next" page URL, if any.
func (c *Client) get(ctx context.Context, op, target string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("shopify %s: build request", op))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s failed", op))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s: read body", op))
	}
	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "duration_ms": time.Since(start).Milliseconds()})
		return "", pkgerrors.New(domainCodeForStatus(resp.StatusCode), fmt.Sprintf("shopify %s failed", op)).WithDetails(map[string]any{
			"status": resp.StatusCode,
			"body":   truncate(string(body), 512),
		})
	}
	if err := json.Unmarshal(body, out); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s: decode response", op))
	}
	c.log(ctx, "page", op, map[string]any{"status": resp.StatusCode, "duration_ms": time.Since(start).Milliseconds()})
	return nextLink(resp.Header.Get("Link")), nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	if phase == "error" {
		c.logger.Warn(ctx, fmt.Sprintf("shopify %s failed", op))
		return
	}
	c.logger.Debug(ctx, fmt.Sprintf("shopify %s", phase))
}

// nextLink extracts the rel="next" URL from a Link header.
func nextLink(header string) string {
	if header == "" {
		return ""
	}
	match := nextLinkPattern.FindStringSubmatch(header)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeDependency
	case status >= 400 && status < 500:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
