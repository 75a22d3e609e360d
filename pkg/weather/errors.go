package weather

import "fmt"

// NotFoundError means the provider does not know the requested place. This
// is user-correctable: the caller should ask for the spelling to be
// re-checked rather than retry.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("weather: no match for %q", e.Query)
}

// AuthError means the provider rejected the API credentials. This is
// operator-correctable; repeated retries will not help.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("weather: provider rejected credentials (status %d)", e.Status)
}

// TransientError covers network failures, 5xx responses and malformed
// payloads. Callers may retry explicitly; nothing retries silently.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather: transient provider failure: %v", e.Err)
	}
	return fmt.Sprintf("weather: transient provider failure (status %d)", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }
