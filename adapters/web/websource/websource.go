package websource

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/docingest/adapters/pdf"
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/logger"
)

const sourceName = "web"

// WebSource downloads PDFs from a fixed list of URLs.
type WebSource struct {
	urls    []string
	client  *http.Client
	timeout time.Duration
}

var _ datasource.DataSource = (*WebSource)(nil)

func NewWebSource(urls []string, timeout time.Duration) *WebSource {
	return &WebSource{
		urls:    urls,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithClient replaces the HTTP client used for downloads.
func (w *WebSource) WithClient(client *http.Client) *WebSource {
	w.client = client
	return w
}

// Load fetches every URL in order and returns the pages of each PDF. The URL
// is recorded as the page source.
func (w *WebSource) Load(ctx context.Context, opts ...datasource.Option) ([]document.Document, error) {
	options := datasource.Apply(opts...)
	log := logger.FromContext(ctx)

	documents := []document.Document{}
	for i, url := range w.urls {
		if options.MaxItems > 0 && i >= options.MaxItems {
			break
		}

		content, err := w.fetchURL(ctx, url)
		if err != nil {
			return nil, err
		}
		pages, err := pdf.ReadBytes(content, url)
		if err != nil {
			return nil, err
		}
		log.Debug("Fetched PDF", "url", url, "pages", len(pages))

		for _, page := range pages {
			if options.Keep(page.Metadata) {
				documents = append(documents, page)
			}
		}
	}

	return documents, nil
}

func (w *WebSource) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, datasource.NewError(sourceName, "fetch_url", datasource.ErrCodeInvalidSource, "invalid URL", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, datasource.NewError(sourceName, "fetch_url", datasource.ErrCodeInternal, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, datasource.NewError(sourceName, "fetch_url", datasource.ErrCodeAccessDenied,
			"failed to fetch URL: "+resp.Status, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, datasource.NewError(sourceName, "fetch_url", datasource.ErrCodeRateLimitExceeded,
			"failed to fetch URL: "+resp.Status, nil)
	default:
		return nil, datasource.NewError(sourceName, "fetch_url", datasource.ErrCodeNotFound,
			"failed to fetch URL: "+resp.Status, nil)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, datasource.NewError(sourceName, "fetch_url", datasource.ErrCodeInternal, "failed to read response body", err)
	}

	return content, nil
}
