package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/core"
)

// Executor performs a single reachability/SSL probe against a hostname
// and classifies the outcome. The offload worker fleet ships the same
// classification, so a result looks identical to the applier no matter
// where the probe ran.
//
// A probe is one HEAD-equivalent HTTPS request following redirects. No
// retries happen here; retry policy belongs to the dispatch layer.
type Executor struct {
	client   *http.Client
	fallback *http.Client
	logger   *zap.Logger
}

const maxRedirects = 10

func NewExecutor(cfg config.CheckerConfig, logger *zap.Logger) *Executor {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &Executor{
		client: &http.Client{
			Timeout:       cfg.Timeout,
			CheckRedirect: checkRedirect,
		},
		fallback: &http.Client{
			Timeout:       cfg.FallbackTimeout,
			CheckRedirect: checkRedirect,
		},
		logger: logger,
	}
}

// Check probes https://<hostname> and returns a classified result.
// CheckedAt is stamped by the caller when the result is applied.
func (e *Executor) Check(ctx context.Context, hostname string) *core.CheckResult {
	result := &core.CheckResult{CheckedAt: time.Now().UTC()}

	start := time.Now()
	resp, err := e.head(ctx, e.client, "https://"+hostname)
	elapsed := time.Since(start).Milliseconds()
	result.ResponseTimeMs = &elapsed

	if err == nil {
		sslValid := true
		result.SSLValid = &sslValid
		if resp.StatusCode < 400 {
			result.Status = core.StatusOK
			return result
		}
		result.Status = core.StatusDown
		result.Error = strptr(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
		return result
	}

	switch classifyProbeError(err) {
	case failTimeout:
		result.Status = core.StatusDown
		result.Error = strptr("Connection timeout")

	case failTLS:
		sslValid := false
		result.SSLValid = &sslValid
		if e.reachableOverHTTP(ctx, hostname) {
			result.Status = core.StatusOK
			result.Error = strptr("Reachable but SSL invalid")
		} else {
			result.Status = core.StatusDown
			result.Error = strptr("SSL Error: " + rootMessage(err))
		}

	case failDNS:
		result.Status = core.StatusDown
		result.Error = strptr("DNS resolution failed")

	case failRefused:
		result.Status = core.StatusDown
		result.Error = strptr("Connection refused")

	default:
		result.Status = core.StatusDown
		result.Error = strptr(rootMessage(err))
	}

	e.logger.Debug("probe failed",
		zap.String("domain", hostname),
		zap.String("error", *result.Error),
	)
	return result
}

func (e *Executor) head(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "domainwatch/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp, nil
}

// reachableOverHTTP runs the plain-HTTP fallback probe used when the
// HTTPS handshake failed for certificate reasons.
func (e *Executor) reachableOverHTTP(ctx context.Context, hostname string) bool {
	resp, err := e.head(ctx, e.fallback, "http://"+hostname)
	return err == nil && resp.StatusCode < 400
}

type probeFailure int

const (
	failOther probeFailure = iota
	failTimeout
	failTLS
	failDNS
	failRefused
)

// classifyProbeError maps a transport error onto the status taxonomy.
// Priority order matters: a timed-out TLS handshake is a timeout, not
// an SSL failure.
func classifyProbeError(err error) probeFailure {
	if errors.Is(err, context.DeadlineExceeded) {
		return failTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failTimeout
	}

	var (
		certErr     *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		certInvalid x509.CertificateInvalidError
		dnsErr      *net.DNSError
	)
	switch {
	case errors.As(err, &certErr),
		errors.As(err, &recordErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &certInvalid),
		strings.Contains(err.Error(), "tls:"):
		return failTLS
	case errors.As(err, &dnsErr):
		return failDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return failRefused
	}
	return failOther
}

// rootMessage strips the url.Error envelope so stored errors read like
// the underlying cause, not the request plumbing.
func rootMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

func strptr(s string) *string { return &s }
