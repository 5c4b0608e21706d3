package detection

import "errors"

var (
	// ErrNoShapeDetected is returned when no pixel of the image classifies
	// as inside the shape. Callers should surface it as a request to adjust
	// the policy parameters; it is never downgraded to "use the whole image".
	ErrNoShapeDetected = errors.New("no shape detected")

	// ErrInvalidPolicyParameters is returned for policy parameters outside
	// their domain, unknown policy types, and policies applied to an image
	// with the wrong channel count.
	ErrInvalidPolicyParameters = errors.New("invalid policy parameters")

	// ErrEmptyWorkingRegion is returned when the working region has zero
	// width or height.
	ErrEmptyWorkingRegion = errors.New("empty working region")

	// ErrInvalidPadding is returned for a negative region reduction margin.
	ErrInvalidPadding = errors.New("invalid padding")
)
