package highlight

import "errors"

var (
	// ErrNoAssets is returned when a stage needs at least one asset.
	ErrNoAssets = errors.New("at least one asset is required")

	// ErrUnsupportedProvider is returned by factories for unknown provider names.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingCredentials is returned when a remote provider lacks an endpoint or key.
	ErrMissingCredentials = errors.New("missing provider credentials")

	// ErrNoBeats is returned when script generation produced no beats.
	ErrNoBeats = errors.New("script generator returned no beats")
)
