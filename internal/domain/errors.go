package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrNoCredentialAvailable = errors.New("no credential available")
	ErrInsufficientCredit    = errors.New("insufficient credit")
	ErrInvalidKey            = errors.New("invalid key")
	ErrNoModelAccess         = errors.New("no model access")
	ErrRateLimited           = errors.New("rate limited")
	ErrTransient             = errors.New("transient provider failure")
	ErrFatal                 = errors.New("provider failure")
	ErrProviderFailed        = errors.New("provider failed")
	ErrAllProvidersFailed    = errors.New("all providers failed")
)

// ErrorKind is the shared vocabulary every provider client maps its
// backend-specific failures onto.
type ErrorKind int

const (
	KindFatal ErrorKind = iota
	KindInsufficientCredit
	KindInvalidKey
	KindNoModelAccess
	KindRateLimited
	KindTransient
)

var kindNames = map[ErrorKind]string{
	KindFatal:              "fatal",
	KindInsufficientCredit: "insufficient_credit",
	KindInvalidKey:         "invalid_key",
	KindNoModelAccess:      "no_model_access",
	KindRateLimited:        "rate_limited",
	KindTransient:          "transient",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel returns the sentinel error matching k.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindInsufficientCredit:
		return ErrInsufficientCredit
	case KindInvalidKey:
		return ErrInvalidKey
	case KindNoModelAccess:
		return ErrNoModelAccess
	case KindRateLimited:
		return ErrRateLimited
	case KindTransient:
		return ErrTransient
	default:
		return ErrFatal
	}
}

// ProviderError is a classified failure of a single provider call.
type ProviderError struct {
	Provider ProviderID
	Kind     ErrorKind
	// Status is the HTTP status, zero for transport failures.
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	return fmt.Sprintf("%s error: %s", e.Provider, msg)
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.Sentinel(), e.Err}
	}
	return []error{e.Kind.Sentinel()}
}

// NewProviderError builds a ProviderError without a transport cause.
func NewProviderError(p ProviderID, kind ErrorKind, status int, msg string) *ProviderError {
	return &ProviderError{Provider: p, Kind: kind, Status: status, Message: msg}
}

// KindOf extracts the ErrorKind of err; unclassified errors are Fatal.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindFatal
}

// UnknownProviderError reports an identifier outside the known provider set.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Name)
}

func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider || target == ErrInvalidArgument
}

// ExhaustedError is returned when every candidate failed and no more
// specific terminal outcome applies.
type ExhaustedError struct {
	// Preferred is set when the caller pinned a provider in strict mode.
	Preferred ProviderID
	Attempts  []*ProviderError
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	if e.Preferred != "" {
		fmt.Fprintf(&b, "selected provider (%s) failed; check your API key and try again", e.Preferred)
	} else {
		b.WriteString("all available AI providers failed; check your API keys or try again later")
	}
	if len(e.Attempts) > 0 {
		parts := make([]string, len(e.Attempts))
		for i, a := range e.Attempts {
			parts[i] = a.Error()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, "; "))
	}
	return b.String()
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrAllProvidersFailed }

// Last returns the most recent attempt failure or nil.
func (e *ExhaustedError) Last() *ProviderError {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1]
}
