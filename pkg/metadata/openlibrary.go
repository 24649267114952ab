package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/shelfmark/shelfmark/pkg/config"
	"github.com/shelfmark/shelfmark/pkg/isbn"
)

// OpenLibrary is the shipped Provider implementation, backed by the Open
// Library search API.
type OpenLibrary struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenLibrary(cfg *config.Config) *OpenLibrary {
	return &OpenLibrary{
		baseURL:    cfg.ProviderBaseURL,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
	}
}

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	ISBN             []string `json:"isbn"`
	Publisher        []string `json:"publisher"`
	Subject          []string `json:"subject"`
	FirstPublishYear int      `json:"first_publish_year"`
	NumberOfPages    int      `json:"number_of_pages_median"`
	CoverID          int      `json:"cover_i"`
	FirstSentence    []string `json:"first_sentence"`
}

func (ol *OpenLibrary) SearchByAuthor(ctx context.Context, author string) ([]Work, error) {
	q := url.Values{}
	q.Set("author", author)
	return ol.search(ctx, q)
}

func (ol *OpenLibrary) SearchBySeriesName(ctx context.Context, name string, author *string) ([]Work, error) {
	q := url.Values{}
	q.Set("q", name)
	if author != nil && *author != "" {
		q.Set("author", *author)
	}
	return ol.search(ctx, q)
}

func (ol *OpenLibrary) search(ctx context.Context, q url.Values) ([]Work, error) {
	q.Set("limit", "200")
	endpoint := fmt.Sprintf("%s/search.json?%s", ol.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resp, err := ol.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "openlibrary request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUnavailable, "openlibrary returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "openlibrary response decode failed: %v", err)
	}

	works := make([]Work, 0, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		works = append(works, doc.toWork())
	}
	return works, nil
}

func (doc searchDoc) toWork() Work {
	w := Work{
		Title:      doc.Title,
		Authors:    doc.AuthorName,
		Categories: doc.Subject,
	}

	for _, raw := range doc.ISBN {
		n := isbn.Normalize(raw)
		switch {
		case len(n) == 13 && w.ISBN13 == nil && isbn.Valid13(n):
			w.ISBN13 = &n
		case len(n) == 10 && w.ISBN10 == nil && isbn.Valid10(n):
			isbn10 := n
			w.ISBN10 = &isbn10
		}
	}

	if len(doc.Publisher) > 0 {
		w.Publisher = &doc.Publisher[0]
	}
	if doc.FirstPublishYear > 0 {
		published := time.Date(doc.FirstPublishYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		w.Published = &published
	}
	if doc.NumberOfPages > 0 {
		pages := doc.NumberOfPages
		w.PageCount = &pages
	}
	if doc.CoverID > 0 {
		coverURL := fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverID)
		w.CoverURL = &coverURL
	}
	if len(doc.FirstSentence) > 0 {
		w.Description = &doc.FirstSentence[0]
	}

	return w
}
