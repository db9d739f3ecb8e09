package webhook

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kvistad/shotpipe/internal/platform/logging"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
	Retries int
}

// Notifier posts end-of-run reports to an operator-configured URL so
// scheduled pipeline runs can be monitored without scraping logs.
type Notifier struct {
	client  *http.Client
	url     string
	token   string
	retries int
	logger  *logging.Logger
}

func NewNotifier(cfg Config, logger *logging.Logger) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Notifier{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		url:     strings.TrimSpace(cfg.URL),
		token:   strings.TrimSpace(cfg.Token),
		retries: cfg.Retries,
		logger:  logger,
	}
}

// Report is the envelope around a run summary. Payload carries the
// service-specific result struct verbatim.
type Report struct {
	RunID      string `json:"run_id"`
	Pipeline   string `json:"pipeline"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	FinishedAt string `json:"finished_at"`
	Payload    any    `json:"payload,omitempty"`
}

// Notify posts the report, retrying transient failures (network errors and
// retryable statuses) up to the configured count. Non-retryable statuses
// fail immediately.
func (n *Notifier) Notify(ctx context.Context, report Report) error {
	targetURL, err := validateHTTPURL(n.url)
	if err != nil {
		return crerr.Wrap(err, "invalid WEBHOOK_URL")
	}

	body, err := sonic.Marshal(report)
	if err != nil {
		return crerr.Wrap(err, "marshal run report")
	}
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildCurlPreview(targetURL, bodyText, n.token != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", targetURL),
			attribute.String("webhook.run_id", report.RunID),
			attribute.String("webhook.pipeline", report.Pipeline),
			attribute.String("webhook.request_body", bodyText),
			attribute.String("webhook.request_curl_preview", curlPreview),
		)
	}
	n.logger.InfoContext(ctx, "run report request",
		"url", targetURL,
		"run_id", report.RunID,
		"pipeline", report.Pipeline,
		"curl_preview", curlPreview,
	)

	attempts := n.retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = n.post(ctx, targetURL, body)
		if lastErr == nil {
			n.logger.InfoContext(ctx, "run report delivered",
				"run_id", report.RunID,
				"pipeline", report.Pipeline,
				"attempt", attempt,
			)
			return nil
		}
		if !stderrors.Is(lastErr, errWebhookTransient) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		n.logger.WarnContext(ctx, "run report attempt failed, retrying",
			"run_id", report.RunID,
			"attempt", attempt,
			"error", lastErr,
		)
		if err := sleepContext(ctx, time.Duration(attempt)*500*time.Millisecond); err != nil {
			return err
		}
	}

	return fmt.Errorf("deliver run report after %d attempt(s): %w", attempts, lastErr)
}

func (n *Notifier) post(ctx context.Context, targetURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post run report url=%s: %v", errWebhookTransient, targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isRetryableStatus(resp.StatusCode) {
		return fmt.Errorf(
			"%w: post run report status=%d url=%s body=%s",
			errWebhookTransient,
			resp.StatusCode,
			targetURL,
			strings.TrimSpace(string(raw)),
		)
	}

	return fmt.Errorf(
		"post run report status=%d url=%s body=%s",
		resp.StatusCode,
		targetURL,
		strings.TrimSpace(string(raw)),
	)
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func buildCurlPreview(targetURL, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(targetURL))
	appendPart("-H")
	appendPart(shellQuote("Content-Type: application/json"))
	if withToken {
		appendPart("-H")
		appendPart(shellQuote("Authorization: Bearer ***"))
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
