package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	httptransport "prizeforge/contexts/prize-lifecycle/prize-service/transport/http"
	"prizeforge/internal/platform/identity"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

// errorMappings is ordered: refined kinds come before the kinds they wrap.
var errorMappings = []errorMapping{
	{domainerrors.ErrPrizeNotFound, http.StatusNotFound, "prize_not_found"},
	{domainerrors.ErrContributionNotFound, http.StatusNotFound, "contribution_not_found"},
	{domainerrors.ErrUnknownSelector, http.StatusNotFound, "unknown_selector"},
	{domainerrors.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{domainerrors.ErrInvalidPermit, http.StatusForbidden, "invalid_permit"},
	{domainerrors.ErrNotFunded, http.StatusConflict, "not_funded"},
	{domainerrors.ErrIncompleteEvaluation, http.StatusConflict, "incomplete_evaluation"},
	{domainerrors.ErrAllocationIncomplete, http.StatusConflict, "allocation_incomplete"},
	{domainerrors.ErrInvalidPhase, http.StatusConflict, "invalid_phase"},
	{domainerrors.ErrNoTransition, http.StatusConflict, "no_transition"},
	{domainerrors.ErrDuplicateContribution, http.StatusConflict, "duplicate_contribution"},
	{domainerrors.ErrRewardAlreadyClaimed, http.StatusConflict, "reward_already_claimed"},
	{domainerrors.ErrNoRewardAvailable, http.StatusConflict, "no_reward_available"},
	{domainerrors.ErrNoFundsToWithdraw, http.StatusConflict, "no_funds_to_withdraw"},
	{domainerrors.ErrAlreadyFunded, http.StatusConflict, "already_funded"},
	{domainerrors.ErrOutOfOrderBatch, http.StatusConflict, "out_of_order_batch"},
	{domainerrors.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},
	{domainerrors.ErrReentrantCall, http.StatusConflict, "reentrant_call"},
	{domainerrors.ErrIdempotencyConflict, http.StatusConflict, "idempotency_conflict"},
	{domainerrors.ErrStrategyRegistered, http.StatusConflict, "strategy_registered"},
	{domainerrors.ErrSelectorClash, http.StatusConflict, "selector_clash"},
	{domainerrors.ErrCriteriaCountMismatch, http.StatusUnprocessableEntity, "criteria_count_mismatch"},
	{domainerrors.ErrBatchSizeExceedsAvailable, http.StatusUnprocessableEntity, "batch_size_exceeds_available"},
	{domainerrors.ErrFundingAmountMismatch, http.StatusUnprocessableEntity, "funding_amount_mismatch"},
	{domainerrors.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "arithmetic_overflow"},
	{domainerrors.ErrSchemeMismatch, http.StatusUnprocessableEntity, "scheme_mismatch"},
	{domainerrors.ErrUnknownStrategy, http.StatusBadRequest, "unknown_strategy"},
	{domainerrors.ErrIdempotencyKeyRequired, http.StatusBadRequest, "idempotency_key_required"},
	{domainerrors.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.kind) {
			var details map[string]any
			var detailed *domainerrors.Error
			if errors.As(err, &detailed) && len(detailed.Fields) > 0 {
				details = detailed.Fields
			}
			writeError(w, mapping.status, mapping.code, err.Error(), details)
			return
		}
	}
	s.logger.Error("unmapped request error",
		"event", "http_request_failed",
		"module", moduleName,
		"layer", "platform",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
}

func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, err := s.auth.Caller(r)
	if err != nil {
		code := "invalid_token"
		switch {
		case errors.Is(err, identity.ErrMissingCredentials):
			code = "missing_credentials"
		case errors.Is(err, identity.ErrTokenExpired):
			code = "token_expired"
		}
		writeError(w, http.StatusUnauthorized, code, err.Error(), nil)
		return "", false
	}
	return caller, true
}

// optionalCaller is used by public reads; an invalid credential reads as
// anonymous.
func (s *Server) optionalCaller(r *http.Request) string {
	caller, err := s.auth.Caller(r)
	if err != nil {
		return ""
	}
	return caller
}

func writeError(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, httptransport.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
