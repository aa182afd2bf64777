package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

// ErrRobotsBlocked is returned when robots.txt disallows the crawl.
var ErrRobotsBlocked = errors.New("blocked by robots.txt")

// ErrNonHomepageRedirect is returned when a crawl lands on a non-homepage
// path after following redirects.
var ErrNonHomepageRedirect = errors.New("redirected to non-homepage")

// Classify maps a fetch error to a crawl error category. Typed error
// inspection runs before status codes, and status codes before substring
// matching, so the cheapest reliable signal always wins.
func Classify(err error) model.ErrorCategory {
	if err == nil {
		return model.ErrUnknown
	}

	switch {
	case errors.Is(err, ErrRobotsBlocked):
		return model.ErrRobotsBlocked
	case errors.Is(err, ErrNonHomepageRedirect):
		return model.ErrRedirectNonHomepage
	case errors.Is(err, ErrEmptyBody):
		return model.ErrEmptyResponse
	case errors.Is(err, context.DeadlineExceeded):
		return model.ErrTimeout
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.Code)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.ErrDNSFailure
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthErr) || errors.As(err, &hostErr) {
		return model.ErrSSL
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.ErrTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.EHOSTUNREACH) {
		return model.ErrConnection
	}

	return classifyMessage(err.Error())
}

func classifyStatus(code int) model.ErrorCategory {
	switch {
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		return model.ErrBlocked
	case code >= 500:
		return model.ErrHTTPServer
	case code >= 400:
		return model.ErrHTTPClient
	default:
		return model.ErrUnknown
	}
}

// classifyMessage is the last-resort substring matcher for transport errors
// that do not surface a typed cause.
func classifyMessage(msg string) model.ErrorCategory {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return model.ErrTimeout
	case strings.Contains(lower, "no such host") || strings.Contains(lower, "dns"):
		return model.ErrDNSFailure
	case strings.Contains(lower, "certificate") || strings.Contains(lower, "tls") ||
		strings.Contains(lower, "x509"):
		return model.ErrSSL
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "broken pipe") || strings.Contains(lower, "eof"):
		return model.ErrConnection
	default:
		return model.ErrUnknown
	}
}
