package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// DefaultTimeout bounds a single collector request.
const DefaultTimeout = 5 * time.Second

// HTTPReporter PUTs status to {base}/api/machine/{id}.
type HTTPReporter struct {
	base   string
	client *http.Client
}

// NewHTTPReporter creates a reporter for the collector at baseURL.
// A zero timeout uses DefaultTimeout.
func NewHTTPReporter(baseURL string, timeout time.Duration) *HTTPReporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPReporter{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint for machineID.
func (h *HTTPReporter) URL(machineID int) string {
	return fmt.Sprintf("%s/api/machine/%d", h.base, machineID)
}

// Report sends the status. Any non-2xx response is an error.
func (h *HTTPReporter) Report(ctx context.Context, machineID int, status logic.Status) error {
	body, err := FormatPayload(status)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.URL(machineID), bytes.NewReader(body))
	if err != nil {
		return &ReportingError{MachineID: machineID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return &ReportingError{MachineID: machineID, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ReportingError{MachineID: machineID, StatusCode: resp.StatusCode}
	}
	return nil
}

// Close drops idle collector connections.
func (h *HTTPReporter) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
