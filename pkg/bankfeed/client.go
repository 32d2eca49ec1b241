// Package bankfeed talks to a SimpleFIN bridge: it claims setup tokens,
// fetches accounts with their recent transactions and feeds them to the importer.
package bankfeed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds every call to the bridge.
const DefaultTimeout = 30 * time.Second

// ErrBadSetupToken is returned when a setup token is neither a URL nor base64 of one.
var ErrBadSetupToken = errors.New("setup token is not a valid claim URL")

// StatusError carries a non-200 answer from the bridge.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("simplefin %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Transaction struct {
	ID          string          `json:"id"`
	Posted      int64           `json:"posted"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Payee       string          `json:"payee,omitempty"`
	Memo        string          `json:"memo,omitempty"`
}

type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	BalanceDate  int64           `json:"balance-date"`
	Transactions []Transaction   `json:"transactions"`
}

// AccountSet is the body of GET /accounts.
type AccountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []Account `json:"accounts"`
}

type Client struct {
	http *http.Client
}

// NewClient wraps hc; nil gets a client with DefaultTimeout.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{http: hc}
}

// IsSetupToken reports whether key looks like an unclaimed setup token rather
// than an access URL.
func IsSetupToken(key string) bool {
	if strings.Contains(key, "/create/") {
		return true
	}
	return !strings.HasPrefix(key, "https://") && len(key) > 50
}

// Claim exchanges a setup token (base64 claim URL, or the URL itself) for an access URL.
func (c *Client) Claim(ctx context.Context, setupToken string) (string, error) {
	claimURL := strings.TrimSpace(setupToken)
	if !strings.HasPrefix(claimURL, "http") {
		raw, err := base64.StdEncoding.DecodeString(claimURL)
		if err != nil {
			return "", ErrBadSetupToken
		}
		claimURL = strings.TrimSpace(string(raw))
	}
	if _, err := url.ParseRequestURI(claimURL); err != nil {
		return "", ErrBadSetupToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", err
	}
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &StatusError{Op: "claim", Status: status, Body: body}
	}
	return strings.TrimSpace(body), nil
}

// Accounts fetches accounts with transactions posted between start and end.
// Credentials embedded in accessURL are sent as basic auth.
func (c *Client) Accounts(ctx context.Context, accessURL string, start, end time.Time) (AccountSet, error) {
	u, err := url.Parse(strings.TrimRight(accessURL, "/") + "/accounts")
	if err != nil {
		return AccountSet{}, fmt.Errorf("access url: %w", err)
	}
	q := u.Query()
	q.Set("start-date", strconv.FormatInt(start.Unix(), 10))
	q.Set("end-date", strconv.FormatInt(end.Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return AccountSet{}, err
	}
	body, status, err := c.do(req)
	if err != nil {
		return AccountSet{}, err
	}
	if status != http.StatusOK {
		return AccountSet{}, &StatusError{Op: "accounts", Status: status, Body: truncate(body, 500)}
	}
	var set AccountSet
	if err := json.Unmarshal([]byte(body), &set); err != nil {
		return AccountSet{}, fmt.Errorf("decode accounts: %w", err)
	}
	return set, nil
}

func (c *Client) do(req *http.Request) (string, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("simplefin request: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read simplefin response: %w", err)
	}
	return string(b), resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
