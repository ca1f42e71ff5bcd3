package csconv

import "errors"

var (
	ErrBadFormat                   = errors.New("csconv: bad WKT format")
	ErrFlavorUndetermined          = errors.New("csconv: WKT flavor could not be determined")
	ErrMissingRequiredElement      = errors.New("csconv: required WKT element missing")
	ErrUnsupportedProjection       = errors.New("csconv: unsupported projection")
	ErrUnsupportedParameterization = errors.New("csconv: unsupported projection parameterization")
	ErrUnsupportedUnit             = errors.New("csconv: unsupported unit")
)
