package insights

import "errors"

// Sentinel errors for the insights service layer.
var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrInvalidHorizon    = errors.New("forecast horizon must be at most 365 days")
	ErrUnknownDecision   = errors.New("unknown decision type")
	ErrReferenceNotFound = errors.New("reference item not found or has no embedding")
)
