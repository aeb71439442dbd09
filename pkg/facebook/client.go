package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

const (
	dayLayout      = "2006-01-02"
	requestTimeout = 30 * time.Second
)

var (
	errAccountRequired     = errors.New("facebook ad account id is required")
	errAccessTokenRequired = errors.New("facebook access token is required")
	errLoggerRequired      = errors.New("facebook logger is required")
)

// Client reads daily ad account spend from the Graph API insights edge.
type Client struct {
	baseURL     string
	accountID   string
	accessToken string
	http        *http.Client
	logger      *logger.Logger
}

// DailySpend is one day of spend for the configured account.
type DailySpend struct {
	AccountID string
	Day       string
	Spend     decimal.Decimal
	Currency  string
}

type insightsPage struct {
	Data []struct {
		DateStart       string `json:"date_start"`
		Spend           string `json:"spend"`
		AccountCurrency string `json:"account_currency"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *graphError `json:"error"`
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func NewClient(cfg config.FacebookConfig, logg *logger.Logger, httpClient *http.Client) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	account := strings.TrimPrefix(strings.TrimSpace(cfg.AdAccountID), "act_")
	if account == "" {
		return nil, errAccountRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.GraphBaseURL, "/") + "/" + cfg.APIVersion,
		accountID:   account,
		accessToken: token,
		http:        httpClient,
		logger:      logg,
	}, nil
}

// AccountID returns the numeric ad account id without the act_ prefix.
func (c *Client) AccountID() string {
	return c.accountID
}

// DailySpend returns account level spend per day for since..until inclusive.
func (c *Client) DailySpend(ctx context.Context, since, until time.Time) ([]DailySpend, error) {
	timeRange, err := json.Marshal(map[string]string{
		"since": since.UTC().Format(dayLayout),
		"until": until.UTC().Format(dayLayout),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode time range")
	}
	q := url.Values{}
	q.Set("level", "account")
	q.Set("time_increment", "1")
	q.Set("fields", "spend,account_currency")
	q.Set("time_range", string(timeRange))
	q.Set("access_token", c.accessToken)
	next := fmt.Sprintf("%s/act_%s/insights?%s", c.baseURL, c.accountID, q.Encode())

	var out []DailySpend
	for next != "" {
		page, err := c.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, row := range page.Data {
			spend, err := decimal.NewFromString(row.Spend)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "facebook insights: invalid spend").WithDetails(map[string]any{"day": row.DateStart})
			}
			out = append(out, DailySpend{
				AccountID: c.accountID,
				Day:       row.DateStart,
				Spend:     spend,
				Currency:  row.AccountCurrency,
			})
		}
		next = page.Paging.Next
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, target string) (*insightsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "facebook insights: build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "facebook insights failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "facebook insights: read body")
	}
	var page insightsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "facebook insights: decode response")
	}
	if resp.StatusCode != http.StatusOK || page.Error != nil {
		details := map[string]any{"status": resp.StatusCode}
		if page.Error != nil {
			details["graph_code"] = page.Error.Code
			details["graph_message"] = page.Error.Message
		}
		ctx = c.logger.WithFields(ctx, details)
		c.logger.Warn(ctx, "facebook insights failed")
		return nil, pkgerrors.New(codeForGraphError(resp.StatusCode, page.Error), "facebook insights failed").WithDetails(details)
	}
	return &page, nil
}

// codeForGraphError maps Graph API failures. Code 190 is an expired or
// invalid access token.
func codeForGraphError(status int, gerr *graphError) pkgerrors.Code {
	if gerr != nil && gerr.Code == 190 {
		return pkgerrors.CodeUnauthorized
	}
	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case status == http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}
