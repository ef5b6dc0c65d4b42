package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	httptransport "prizeforge/contexts/prize-lifecycle/prize-service/transport/http"
)

func (s *Server) handleCreatePrize(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.CreatePrizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.CreatePrizeHandler(r.Context(), caller, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListPrizes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.prizes.Handler.ListPrizesHandler(r.Context(), query.Get("organizer"), query.Get("phase"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPrize(w http.ResponseWriter, r *http.Request) {
	resp, err := s.prizes.Handler.GetPrizeHandler(r.Context(), s.optionalCaller(r), r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContribution(w http.ResponseWriter, r *http.Request) {
	resp, err := s.prizes.Handler.GetContributionHandler(
		r.Context(),
		s.optionalCaller(r),
		r.PathValue("prize_id"),
		r.PathValue("contestant"),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	resp, err := s.prizes.Handler.ActivityHandler(r.Context(), r.PathValue("prize_id"), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	resp, err := s.prizes.Handler.StrategyHandler(r.Context(), s.optionalCaller(r), r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreviewAllocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.prizes.Handler.PreviewAllocationHandler(r.Context(), caller, r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddEvaluators(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.EvaluatorsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.AddEvaluatorsHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveEvaluators(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.EvaluatorsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.RemoveEvaluatorsHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.FundRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.FundHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawFunds(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.prizes.Handler.WithdrawFundsHandler(r.Context(), caller, r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.prizes.Handler.AdvanceHandler(r.Context(), caller, r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.prizes.Handler.CancelHandler(r.Context(), caller, r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitContribution(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.SubmitContributionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.SubmitContributionHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.EvaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.EvaluateHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignScores(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.AssignScoresRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.AssignScoresHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyEvaluations(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.VerifyEvaluationsHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAllocateRewards(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.AllocateRewardsHandler(r.Context(), caller, r.PathValue("prize_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.prizes.Handler.ClaimRewardHandler(r.Context(), caller, r.PathValue("prize_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSealedScore(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.SealRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.SealedScoreHandler(r.Context(), caller, r.PathValue("prize_id"), r.PathValue("contestant"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSealedReward(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.SealRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.prizes.Handler.SealedRewardHandler(r.Context(), caller, r.PathValue("prize_id"), r.PathValue("contestant"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return false
	}
	return true
}
