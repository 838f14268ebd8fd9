package errors

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/julianstephens/sutra/internal/logger"
)

var (
	// ErrUnauthorized is returned by the backend when the caller lacks the required role
	ErrUnauthorized = stderrors.New("Unauthorized")
	// ErrClientNotReady is returned when a mutation is invoked before the actor exists
	ErrClientNotReady = stderrors.New("Actor not available")
	// ErrConnectivity wraps transport-level failures reaching the backend
	ErrConnectivity = stderrors.New("network error")
	// ErrNotFound is returned when the target habit does not exist or is not owned by the caller
	ErrNotFound = stderrors.New("not found")
)

// Kind classifies an error for display
type Kind int

const (
	Unclassified Kind = iota
	Unauthorized
	ClientNotReady
	Connectivity
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case ClientNotReady:
		return "client-not-ready"
	case Connectivity:
		return "connectivity"
	default:
		return "unclassified"
	}
}

const (
	msgUnauthorized   = "You do not have permission to perform this action. Please try signing in again."
	msgClientNotReady = "Connection to the service is not ready. Please wait a moment and try again."
	msgConnectivity   = "Network error. Please check your connection and try again."
	msgGeneric        = "Something went wrong. Please try again."
	msgUnexpected     = "An unexpected error occurred. Please try again."
)

// Classify maps err to a Kind. Sentinels and typed transport errors are checked
// before falling back to the error text.
func Classify(err error) Kind {
	if err == nil {
		return Unclassified
	}

	switch {
	case stderrors.Is(err, ErrUnauthorized):
		return Unauthorized
	case stderrors.Is(err, ErrClientNotReady):
		return ClientNotReady
	case stderrors.Is(err, ErrConnectivity),
		stderrors.Is(err, driver.ErrBadConn),
		stderrors.Is(err, context.DeadlineExceeded):
		return Connectivity
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Connectivity
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Unauthorized"), strings.Contains(msg, "unauthorized"):
		return Unauthorized
	case strings.Contains(msg, "Actor not available"):
		return ClientNotReady
	case strings.Contains(msg, "network"), strings.Contains(msg, "fetch"):
		return Connectivity
	}
	return Unclassified
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return msgUnexpected
	}
	switch Classify(err) {
	case Unauthorized:
		return msgUnauthorized
	case ClientNotReady:
		return msgClientNotReady
	case Connectivity:
		return msgConnectivity
	default:
		return msgGeneric
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// FormatUser is Format for terminal output. Classified errors are replaced by
// their user-facing message; anything else keeps its own text.
func FormatUser(err error) string {
	if err == nil {
		return ""
	}
	if Classify(err) == Unclassified {
		return Format(err)
	}
	return "Error: " + UserMessage(err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", Classify(err))
		fmt.Fprintf(os.Stderr, "%s\n", FormatUser(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
