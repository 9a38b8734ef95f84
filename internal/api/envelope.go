package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

// EnvelopeVersion is the response envelope format version sent as "v".
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response and simple errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope carries a machine-readable error code and details.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in an envelope.
// Errors with a code become an APIErrorEnvelope; other errors a failed APIEnvelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch e := v.(type) {
	case *APIError:
		if e.Code == "" {
			return APIEnvelope{Version: EnvelopeVersion, Error: e.Message}, nil
		}
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		}, nil
	case *domainerrors.Error:
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    string(e.Code),
			Message: e.Message,
			Details: e.Details,
		}, nil
	case error:
		return APIEnvelope{Version: EnvelopeVersion, Error: e.Error()}, nil
	}

	code, _ := strconv.Atoi(status)
	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}
