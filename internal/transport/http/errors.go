// internal/transport/http/errors.go
package httptransport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "visa-directory/internal/common/errors"
	"visa-directory/internal/common/validation"
	"visa-directory/internal/directory"
	"visa-directory/internal/directory/complaints"
	"visa-directory/internal/directory/profile"
	"visa-directory/internal/directory/recordsource"
	"visa-directory/internal/directory/search"
)

type errorResponse struct {
	Code       string                       `json:"code"`
	Message    string                       `json:"message"`
	Details    string                       `json:"details,omitempty"`
	Identifier string                       `json:"identifier,omitempty"`
	BrowseURL  string                       `json:"browseUrl,omitempty"`
	Fields     []validation.ValidationError `json:"fields,omitempty"`
	RequestID  string                       `json:"requestId,omitempty"`
}

type invalidParamError struct {
	name, value string
}

func (e *invalidParamError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.name, e.value)
}

func invalidParam(name, value string) error {
	return &invalidParamError{name: name, value: value}
}

func bodyError(err error) []validation.ValidationError {
	return []validation.ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}}
}

// toStandardError translates domain errors into the shared taxonomy.
func toStandardError(err error) *apperrors.StandardError {
	var (
		notFound *profile.ProfileNotFoundError
		invalid  *complaints.InvalidError
		param    *invalidParamError
	)
	switch {
	case errors.As(err, &notFound):
		return apperrors.NewProfileNotFoundError(notFound.Identifier)
	case errors.As(err, &invalid):
		return apperrors.NewComplaintInvalidError(invalid.Error())
	case errors.As(err, &param):
		return apperrors.NewInvalidQueryError(param.Error())
	case errors.Is(err, search.ErrInvalidQuery):
		return apperrors.NewInvalidQueryError(err.Error())
	case errors.Is(err, complaints.ErrStoreFailed):
		return apperrors.NewComplaintStoreFailedError(err)
	case errors.Is(err, directory.ErrUnknownBucket):
		return apperrors.NewResourceNotFoundError("categories", err.Error())
	case errors.Is(err, recordsource.ErrCacheUnavailable):
		return apperrors.NewCacheUnavailableError(err)
	case errors.Is(err, directory.ErrComplaintsDisabled):
		return apperrors.NewExternalServiceError("complaints", err)
	}
	return apperrors.Normalize(err)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := toStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	resp := errorResponse{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		RequestID: middleware.GetReqID(r.Context()),
	}

	var (
		notFound *profile.ProfileNotFoundError
		invalid  *complaints.InvalidError
	)
	if errors.As(err, &notFound) {
		resp.Identifier = notFound.Identifier
		resp.BrowseURL = h.browseURL
	}
	if errors.As(err, &invalid) {
		resp.Fields = invalid.Fields
	}

	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
		"code":   resp.Code,
		"error":  err,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Debug("request rejected", fields)
	}

	writeJSON(w, status, resp)
}
