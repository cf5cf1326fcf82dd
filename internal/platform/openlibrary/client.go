package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when a lookup matches no records.
var ErrNotFound = errors.New("openlibrary: not found")

const searchFields = "key,title,author_name,first_publish_year,subject,cover_i,edition_count,publisher,ratings_average"

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
}

func NewClient(userAgent string, rps int, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    "https://openlibrary.org",
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
		retryBase:  time.Second,
	}
}

// SearchResponse matches search.json
type SearchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []SearchDoc `json:"docs"`
}

type SearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subjects         []string `json:"subject"`
	CoverID          int      `json:"cover_i"`
	EditionCount     int      `json:"edition_count"`
	Publishers       []string `json:"publisher"`
	RatingsAverage   float64  `json:"ratings_average"`
}

// WorkID strips the "/works/" prefix from the doc key.
func (d SearchDoc) WorkID() string {
	return strings.TrimPrefix(d.Key, "/works/")
}

// Work matches works/{id}.json. Subjects here are usually richer than the
// search doc's, and first_publish_date is free-form text.
type Work struct {
	Title            string   `json:"title"`
	Subjects         []string `json:"subjects"`
	FirstPublishDate string   `json:"first_publish_date"`

	// Filled from a follow-up edition search, not part of the work record.
	NumberOfPages int `json:"-"`
}

// FindBook returns the best search match for a free-text title.
func (c *Client) FindBook(ctx context.Context, title string) (*SearchDoc, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&fields=%s&limit=1",
		c.baseURL, url.QueryEscape(title), searchFields)

	var res SearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	if len(res.Docs) == 0 {
		return nil, ErrNotFound
	}
	return &res.Docs[0], nil
}

// SearchSubject returns up to limit works tagged with the given subject.
func (c *Client) SearchSubject(ctx context.Context, subject string, limit int) ([]SearchDoc, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&fields=%s&limit=%d",
		c.baseURL, url.QueryEscape("subject:"+subject), searchFields, limit)

	var res SearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return res.Docs, nil
}

// GetWork fetches the work record and, best-effort, a page count from the
// first matching edition.
func (c *Client) GetWork(ctx context.Context, workID string) (*Work, error) {
	u := fmt.Sprintf("%s/works/%s.json", c.baseURL, url.PathEscape(workID))

	var work Work
	if err := c.get(ctx, u, &work); err != nil {
		return nil, err
	}

	// Page count lives on editions, not works. A missing count is not an
	// error; scoring treats it as unknown.
	eu := fmt.Sprintf("%s/search.json?q=%s&fields=number_of_pages,key&limit=1",
		c.baseURL, url.QueryEscape("key:/works/"+workID))

	var editions struct {
		Docs []struct {
			NumberOfPages int `json:"number_of_pages"`
		} `json:"docs"`
	}
	if err := c.get(ctx, eu, &editions); err == nil && len(editions.Docs) > 0 {
		work.NumberOfPages = editions.Docs[0].NumberOfPages
	}

	return &work, nil
}

// CoverURL builds the large cover image URL for a cover ID, or "" when the
// record has no cover.
func CoverURL(coverID int) string {
	if coverID == 0 {
		return ""
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", coverID)
}

func (c *Client) get(ctx context.Context, url string, target interface{}) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * c.retryBase
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return ErrNotFound
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}
