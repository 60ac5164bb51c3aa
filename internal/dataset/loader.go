package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"croptrends/domain/core"
	"croptrends/internal"
)

// Loader fetches delimited tables from remote URLs or local paths and
// normalizes their column names. Fetches are idempotent reads; transient
// HTTP failures are retried with backoff.
type Loader struct {
	client     *http.Client
	maxRetries int
	logger     *internal.Logger
}

// NewLoader creates a loader with a bounded retry policy.
func NewLoader(maxRetries int, logger *internal.Logger) *Loader {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{
		client:     &http.Client{Timeout: 60 * time.Second},
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Load reads a CSV table from a URL (http/https) or a local file path.
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if isRemote(source) {
		rc, err = l.fetch(ctx, source)
	} else {
		rc, err = os.Open(source)
		if err != nil {
			err = core.NewDataSourceError(source, err)
		}
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return parseCSV(source, rc)
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, core.NewDataSourceError(url, err)
		}

		resp, err := l.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("unexpected status %s", resp.Status)
		}
		lastErr = err
		l.logger.Warn("fetch attempt %d/%d failed for %s: %v", attempt, l.maxRetries, url, err)

		if attempt < l.maxRetries {
			select {
			case <-ctx.Done():
				return nil, core.NewDataSourceError(url, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return nil, core.NewDataSourceError(url, lastErr)
}

func parseCSV(source string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows read as missing cells

	records, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewDataSourceError(source, err)
	}
	if len(records) == 0 {
		return nil, core.NewDataSourceError(source, core.ErrParse)
	}

	return NewTable(records[0], records[1:]), nil
}
