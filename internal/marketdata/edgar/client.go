// Package edgar implements the insider filing source backed by the
// SEC EDGAR full-text site. Transactions come from Form 4 ownership
// documents referenced by the company browse page.
package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"stockwatch/internal/errors"
	"stockwatch/internal/logging"
	"stockwatch/internal/marketdata"
	"stockwatch/internal/models"
)

const (
	defaultBaseURL   = "https://www.sec.gov"
	defaultUserAgent = "stockwatch/1.0 (contact unset)"

	source = "edgar"
)

// Options configures the client.
type Options struct {
	BaseURL string
	// UserAgent must identify the operator; the SEC rejects anonymous
	// automated clients.
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	// MaxFilings caps how many ownership documents one call fetches.
	MaxFilings int
}

// Client talks to EDGAR. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	baseURL    string
	userAgent  string
	maxFilings int
}

var _ marketdata.InsiderSource = (*Client)(nil)

// New creates a new EDGAR client.
func New(opts Options, logger zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		// SEC fair-access guidance allows 10 req/s; stay under it.
		opts.RatePerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.MaxFilings <= 0 {
		opts.MaxFilings = 10
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		logger:     logger.With().Str("source", source).Logger(),
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		maxFilings: opts.MaxFilings,
	}
}

// filingRef is one Form 4 row of the company browse page.
type filingRef struct {
	indexURL    string
	accessionNo string
	filedAt     time.Time
}

// RecentTransactions returns insider trades reported within the
// trailing window, newest first. One ownership document per filing is
// fetched, capped at MaxFilings.
func (c *Client) RecentTransactions(ctx context.Context, symbol string, windowDays int) ([]models.InsiderTransaction, error) {
	symbol = models.NormalizeSymbol(symbol)
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	filings, err := c.recentFilings(ctx, symbol, cutoff)
	if err != nil {
		return nil, err
	}

	var transactions []models.InsiderTransaction
	for _, filing := range filings {
		docURL, err := c.ownershipDocURL(ctx, symbol, filing.indexURL)
		if err != nil {
			// A single unreadable filing should not sink the batch.
			c.logger.Warn().Err(err).Str("symbol", symbol).
				Str("accession_no", filing.accessionNo).
				Msg("Skipping unreadable filing")
			continue
		}

		txns, err := c.fetchOwnershipDoc(ctx, symbol, docURL, filing.accessionNo)
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).
				Str("accession_no", filing.accessionNo).
				Msg("Skipping unparseable ownership document")
			continue
		}
		for _, t := range txns {
			if t.Date.Before(cutoff) {
				continue
			}
			transactions = append(transactions, t)
		}
	}

	c.logger.Debug().Str("symbol", symbol).
		Int("filings", len(filings)).
		Int("transactions", len(transactions)).
		Msg("Fetched insider transactions")
	return transactions, nil
}

var accessionRe = regexp.MustCompile(`Acc-no:\s*(\S+)`)

// recentFilings parses the company browse page for Form 4 rows.
func (c *Client) recentFilings(ctx context.Context, symbol string, cutoff time.Time) ([]filingRef, error) {
	params := url.Values{}
	params.Set("action", "getcompany")
	params.Set("CIK", symbol)
	params.Set("type", "4")
	params.Set("owner", "include")
	params.Set("count", "40")

	endpoint := "/cgi-bin/browse-edgar"
	body, err := c.get(ctx, symbol, endpoint, params)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.NewParseError(source, symbol, "parsing browse page", err)
	}

	if doc.Find("table.tableFile2").Length() == 0 {
		if strings.Contains(string(body), "No matching") {
			return nil, errors.Wrapf(errors.ErrSymbolNotFound, "%s", symbol)
		}
		return nil, errors.NewParseError(source, symbol, "filing table missing", nil)
	}

	var filings []filingRef
	doc.Find("table.tableFile2 tr").Each(func(i int, row *goquery.Selection) {
		if len(filings) >= c.maxFilings {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		if strings.TrimSpace(cells.Eq(0).Text()) != "4" {
			return
		}

		href, ok := cells.Eq(1).Find("a#documentsbutton").Attr("href")
		if !ok {
			return
		}
		filedAt, err := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(3).Text()))
		if err != nil || filedAt.Before(cutoff) {
			return
		}

		accessionNo := ""
		if m := accessionRe.FindStringSubmatch(cells.Eq(2).Text()); m != nil {
			accessionNo = m[1]
		}

		filings = append(filings, filingRef{
			indexURL:    c.absoluteURL(href),
			accessionNo: accessionNo,
			filedAt:     filedAt,
		})
	})

	return filings, nil
}

// ownershipDocURL finds the raw ownership XML inside a filing index page.
func (c *Client) ownershipDocURL(ctx context.Context, symbol, indexURL string) (string, error) {
	body, err := c.getURL(ctx, symbol, indexURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", errors.NewParseError(source, symbol, "parsing filing index", err)
	}

	var docURL string
	doc.Find("table.tableFile a").EachWithBreak(func(i int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		// The rendered xslF345 variant duplicates the raw document.
		if !strings.HasSuffix(href, ".xml") || strings.Contains(href, "xslF345") {
			return true
		}
		docURL = c.absoluteURL(href)
		return false
	})
	if docURL == "" {
		return "", errors.NewParseError(source, symbol, "no ownership document in filing index", nil)
	}
	return docURL, nil
}

func (c *Client) fetchOwnershipDoc(ctx context.Context, symbol, docURL, accessionNo string) ([]models.InsiderTransaction, error) {
	body, err := c.getURL(ctx, symbol, docURL)
	if err != nil {
		return nil, err
	}
	return parseOwnershipDocument(symbol, body, accessionNo)
}

func (c *Client) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + href
}

func (c *Client) get(ctx context.Context, symbol, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.getURL(ctx, symbol, u)
}

func (c *Client) getURL(ctx context.Context, symbol, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewFetchError(source, symbol, fullURL, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.NewFetchError(source, symbol, fullURL, 0, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logging.LogAPICall(c.logger, http.MethodGet, fullURL, time.Since(start), err)
	if err != nil {
		return nil, errors.NewFetchError(source, symbol, fullURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchError(source, symbol, fullURL, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewFetchError(source, symbol, fullURL, 0, fmt.Errorf("reading body: %w", err))
	}
	return body, nil
}
