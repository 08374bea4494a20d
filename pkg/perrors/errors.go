package perrors

import "errors"

// Sentinel errors. Status returns the wire tag the envelope layer
// serializes these as (see pkg/envelope).
var (
	ErrBadMsg             = errors.New("bad_msg")
	ErrFileNotFound       = errors.New("file_not_found")
	ErrVlobNotFound       = errors.New("vlob_not_found")
	ErrBlockNotFound      = errors.New("block_not_found")
	ErrBadVersion         = errors.New("bad_version")
	ErrVersionConflict    = errors.New("version_conflict")
	ErrTrustSeed          = errors.New("trust_seed_error")
	ErrIntegrityFailure   = errors.New("integrity_failure")
	ErrBackendUnavailable = errors.New("backend_unavailable")
)

// Status maps a sentinel (or an error wrapping one) to its wire tag. A
// fully unrecognized error maps to the empty string; callers should treat
// that as an internal error rather than one of the taxonomy's.
func Status(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBadMsg):
		return "bad_msg"
	case errors.Is(err, ErrFileNotFound):
		return "file_not_found"
	case errors.Is(err, ErrVlobNotFound):
		return "vlob_not_found"
	case errors.Is(err, ErrBlockNotFound):
		return "block_not_found"
	case errors.Is(err, ErrBadVersion):
		return "bad_version"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, ErrTrustSeed):
		return "trust_seed_error"
	case errors.Is(err, ErrIntegrityFailure):
		return "integrity_failure"
	case errors.Is(err, ErrBackendUnavailable):
		return "backend_unavailable"
	default:
		return ""
	}
}
