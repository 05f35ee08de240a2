package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/keywords"
	"adala.org/internal/locale"
	"adala.org/internal/obs"
	"adala.org/internal/query"
	"adala.org/internal/review"
	"adala.org/internal/settings"
)

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	default:
		internalError(w, r, err)
	}
}

func handleQueryError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, query.ErrUnknownDimension), errors.Is(err, query.ErrUnknownSortKey),
		errors.Is(err, query.ErrInvalidPage), errors.Is(err, query.ErrInvalidPageSize):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return true
	}
	return false
}

// reviewMessage returns the catalog key explaining a failed decision.
func reviewMessage(err error) string {
	switch {
	case errors.Is(err, review.ErrSuperseded):
		return "error.superseded"
	case errors.Is(err, review.ErrConflict):
		return "error.conflict"
	case errors.Is(err, review.ErrIllegalTransition):
		return "error.illegal_transition"
	default:
		return "error.decision_failed"
	}
}

func handleReviewError(w http.ResponseWriter, r *http.Request, lang locale.Lang, err error) {
	if handleQueryError(w, r, err) {
		return
	}
	switch {
	case errors.Is(err, review.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "document not found")
	case errors.Is(err, review.ErrInvalidDecision), errors.Is(err, review.ErrInvalidScope),
		errors.Is(err, review.ErrEmptySelect), errors.Is(err, review.ErrInvalidDocument):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, review.ErrIllegalTransition), errors.Is(err, review.ErrConflict),
		errors.Is(err, review.ErrSuperseded):
		writeErrorFields(w, r, http.StatusConflict, err.Error(), map[string]any{
			"message": locale.T(lang, reviewMessage(err)),
		})
	default:
		obs.Logger().Error("review request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())), zap.Error(err))
		writeErrorFields(w, r, http.StatusInternalServerError, "internal error", map[string]any{
			"message": locale.T(lang, "error.decision_failed"),
		})
	}
}

func handleKeywordError(w http.ResponseWriter, r *http.Request, lang locale.Lang, err error) {
	var verr *keywords.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorFields(w, r, http.StatusBadRequest, verr.Error(), map[string]any{
			"field":   verr.Field,
			"code":    verr.Code,
			"message": locale.T(lang, "validation."+verr.Code),
		})
	case errors.Is(err, keywords.ErrAlreadyExists):
		writeErrorFields(w, r, http.StatusConflict, err.Error(), map[string]any{
			"field":   "keyword",
			"code":    "duplicate",
			"message": locale.T(lang, "validation.duplicate"),
		})
	case errors.Is(err, keywords.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "keyword not found")
	case errors.Is(err, keywords.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		internalError(w, r, err)
	}
}

func handleSettingsError(w http.ResponseWriter, r *http.Request, lang locale.Lang, err error) {
	var verr *settings.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorFields(w, r, http.StatusBadRequest, verr.Error(), map[string]any{
			"field":   verr.Field,
			"code":    verr.Code,
			"message": locale.T(lang, "validation."+verr.Code),
		})
	case errors.Is(err, settings.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		internalError(w, r, err)
	}
}

func handleAuditError(w http.ResponseWriter, r *http.Request, err error) {
	if handleQueryError(w, r, err) {
		return
	}
	switch {
	case errors.Is(err, audit.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "audit entry not found")
	case errors.Is(err, audit.ErrInvalidEntry):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		internalError(w, r, err)
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	obs.Logger().Error("request failed",
		zap.String("request_id", RequestIDFromContext(r.Context())), zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
