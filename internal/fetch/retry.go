package fetch

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/miekg/dns"
)

// FailureClass is one of the transient/permanent error categories the
// escalation driver distinguishes per spec §4.3.
type FailureClass string

const (
	FailureDNS       FailureClass = "dns"
	FailureTCP       FailureClass = "tcp"
	FailureTLS       FailureClass = "tls"
	FailureHTTP5xx   FailureClass = "http_5xx"
	FailureHTTP4xx   FailureClass = "http_4xx"
	FailureTimeout   FailureClass = "timeout"
	FailureChallenge FailureClass = "challenge"
	FailureOther     FailureClass = "other"
)

// isTransient reports whether the failure class is worth retrying with
// backoff (DNS, TCP, and timeout errors are often transient network
// blips; TLS and HTTP 4xx are not).
func (c FailureClass) isTransient() bool {
	switch c {
	case FailureDNS, FailureTCP, FailureTimeout:
		return true
	default:
		return false
	}
}

// classifyError maps a fetch error (and optional status code) to a
// FailureClass from the error chain alone. Errors it cannot place come
// back as FailureOther; Dispatcher.logFailure then uses probeDNS to tell
// a hostname that does not resolve from other failures.
func classifyError(err error, statusCode int) FailureClass {
	if err == nil {
		switch {
		case statusCode >= 500:
			return FailureHTTP5xx
		case statusCode >= 400:
			return FailureHTTP4xx
		default:
			return FailureOther
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return FailureTimeout
		}
		return FailureTCP
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	return FailureOther
}

// probeDNS performs a direct A-record lookup against a public resolver
// using miekg/dns. Dispatcher.logFailure calls it after a tier has failed
// with an ambiguous (FailureOther) error, to log whether the host resolves
// at all; withRetry does not consult it.
func probeDNS(ctx context.Context, host string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)

	client := new(dns.Client)
	client.Timeout = 3 * time.Second

	conn, err := client.DialContext(ctx, "1.1.1.1:53")
	if err != nil {
		return false, err
	}
	defer conn.Close()

	resp, _, err := client.ExchangeWithConn(msg, conn)
	if err != nil {
		return false, err
	}
	return len(resp.Answer) > 0, nil
}

// withRetry runs fn with exponential backoff (base 500ms, factor 2, max 3
// attempts) but only while the observed failure class is transient, per
// spec §4.3: "retries only on transient network errors with exponential
// backoff".
func withRetry(ctx context.Context, fn func(ctx context.Context) (*Result, error)) (*Result, error) {
	const maxAttempts = 3
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !classifyError(err, 0).isTransient() {
			return nil, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}
