// Package email sends RFPs to vendors over SMTP and reads their replies from
// an IMAP mailbox.
package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"syscall"
)

// TransportErrorKind groups mail transport failures by what the operator
// has to fix.
type TransportErrorKind string

const (
	KindTimeout         TransportErrorKind = "timeout"
	KindAuthentication  TransportErrorKind = "authentication"
	KindHostUnreachable TransportErrorKind = "host_unreachable"
	KindNotConfigured   TransportErrorKind = "not_configured"
	KindUnknown         TransportErrorKind = "unknown"
)

var remediations = map[TransportErrorKind]string{
	KindTimeout:         "Connection to the mail server timed out. Check the host and port, and that the server is reachable from this network.",
	KindAuthentication:  "The mail server rejected the credentials. Check the user name and password; providers such as Gmail require an app password.",
	KindHostUnreachable: "The mail server could not be reached. Check the host name and port.",
	KindUnknown:         "Mail transport failed. Check the mail server configuration and try again.",
}

// TransportError is a classified SMTP or IMAP failure.
type TransportError struct {
	Kind        TransportErrorKind
	Op          string
	Remediation string
	Cause       error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("mail %s failed (%s): %s", e.Op, e.Kind, e.Remediation)
	}
	return fmt.Sprintf("mail %s failed (%s): %v", e.Op, e.Kind, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ErrNotConfigured is the cause of every not_configured TransportError.
var ErrNotConfigured = errors.New("mail transport is not configured")

func notConfigured(op, remediation string) *TransportError {
	return &TransportError{Kind: KindNotConfigured, Op: op, Remediation: remediation, Cause: ErrNotConfigured}
}

// ClassifyTransportError wraps err in a TransportError for op ("send" or
// "fetch"). Errors that are already classified are returned unchanged.
func ClassifyTransportError(op string, err error) *TransportError {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	kind := classify(err)
	return &TransportError{Kind: kind, Op: op, Remediation: remediations[kind], Cause: err}
}

func classify(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindHostUnreachable
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindHostUnreachable
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && (protoErr.Code == 530 || protoErr.Code == 534 || protoErr.Code == 535) {
		return KindAuthentication
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "etimedout"):
		return KindTimeout
	case strings.Contains(msg, "authenticat") || strings.Contains(msg, "invalid credentials") ||
		strings.Contains(msg, "login failed") || strings.Contains(msg, "password"):
		return KindAuthentication
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unreachable") || strings.Contains(msg, "enotfound") || strings.Contains(msg, "econnrefused"):
		return KindHostUnreachable
	}
	return KindUnknown
}
