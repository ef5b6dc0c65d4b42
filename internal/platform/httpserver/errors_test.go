package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	httptransport "prizeforge/contexts/prize-lifecycle/prize-service/transport/http"
)

func TestEveryDomainErrorHasStatus(t *testing.T) {
	server := newTestServer(nil)
	kinds := []error{
		domainerrors.ErrPrizeNotFound,
		domainerrors.ErrContributionNotFound,
		domainerrors.ErrInvalidInput,
		domainerrors.ErrUnauthorized,
		domainerrors.ErrInvalidPhase,
		domainerrors.ErrNotFunded,
		domainerrors.ErrIncompleteEvaluation,
		domainerrors.ErrAllocationIncomplete,
		domainerrors.ErrNoTransition,
		domainerrors.ErrDuplicateContribution,
		domainerrors.ErrCriteriaCountMismatch,
		domainerrors.ErrBatchSizeExceedsAvailable,
		domainerrors.ErrOutOfOrderBatch,
		domainerrors.ErrRewardAlreadyClaimed,
		domainerrors.ErrNoRewardAvailable,
		domainerrors.ErrNoFundsToWithdraw,
		domainerrors.ErrFundingAmountMismatch,
		domainerrors.ErrAlreadyFunded,
		domainerrors.ErrUnknownStrategy,
		domainerrors.ErrStrategyRegistered,
		domainerrors.ErrUnknownSelector,
		domainerrors.ErrSelectorClash,
		domainerrors.ErrReentrantCall,
		domainerrors.ErrConcurrentModification,
		domainerrors.ErrArithmeticOverflow,
		domainerrors.ErrSchemeMismatch,
		domainerrors.ErrInvalidPermit,
		domainerrors.ErrIdempotencyKeyRequired,
		domainerrors.ErrIdempotencyConflict,
	}
	for _, kind := range kinds {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/prizes", nil)
		server.writeDomainError(rr, req, domainerrors.New(kind, "field", "value"))
		if rr.Code == http.StatusInternalServerError {
			t.Fatalf("%v surfaced as 500", kind)
		}
		var body httptransport.ErrorResponse
		decodeInto(t, rr, &body)
		if body.Code == "" || body.Code == "internal_error" {
			t.Fatalf("%v has no error code: %+v", kind, body)
		}
	}

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domainerrors.New(domainerrors.ErrStrategyRegistered, "strategy_id", "linear@1"), http.StatusConflict, "strategy_registered"},
		{domainerrors.New(domainerrors.ErrSchemeMismatch, "expected", "plain"), http.StatusUnprocessableEntity, "scheme_mismatch"},
		{fmt.Errorf("wrapped: %w", domainerrors.ErrNotFunded), http.StatusConflict, "not_funded"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		server.writeDomainError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		expectStatus(t, rr, tc.status)
		var body httptransport.ErrorResponse
		decodeInto(t, rr, &body)
		if body.Code != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, body.Code)
		}
	}
}
