package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prizeservice "prizeforge/contexts/prize-lifecycle/prize-service"
	httptransport "prizeforge/contexts/prize-lifecycle/prize-service/transport/http"
	"prizeforge/internal/platform/identity"
)

func newTestServer(auth *identity.Authenticator) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(prizeservice.NewInMemoryModule(logger), auth, logger, ":0")
}

type request struct {
	method  string
	path    string
	caller  string
	headers map[string]string
	body    any
}

func serve(t *testing.T, server *Server, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq := httptest.NewRequest(req.method, req.path, body)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.caller != "" {
		httpReq.Header.Set("X-User-Id", req.caller)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httpReq)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
}

func createPrize(t *testing.T, server *Server, key string) httptransport.CreatePrizeResponse {
	t.Helper()
	rr := serve(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/prizes",
		caller:  "0xORG",
		headers: map[string]string{"Idempotency-Key": key},
		body: httptransport.CreatePrizeRequest{
			Name:            "Best Paper",
			PoolSize:        "1000000",
			CriteriaNames:   []string{"quality"},
			CriteriaWeights: []uint64{1},
		},
	})
	expectStatus(t, rr, http.StatusCreated)
	var resp httptransport.CreatePrizeResponse
	decodeInto(t, rr, &resp)
	return resp
}

func TestPrizeLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(nil)
	created := createPrize(t, server, "create-1")
	if created.Prize.Phase != "setup" || created.Prize.StrategyID != "linear@1" {
		t.Fatalf("unexpected prize: %+v", created.Prize)
	}
	base := "/v1/prizes/" + created.Prize.PrizeID

	steps := []struct {
		name   string
		req    request
		status int
	}{
		{"add evaluator", request{http.MethodPost, base + "/evaluators", "0xorg", nil, httptransport.EvaluatorsRequest{Addresses: []string{"0xeval"}}}, http.StatusOK},
		{"fund short", request{http.MethodPost, base + "/fund", "0xorg", nil, httptransport.FundRequest{Amount: "10"}}, http.StatusUnprocessableEntity},
		{"fund", request{http.MethodPost, base + "/fund", "0xorg", nil, httptransport.FundRequest{Amount: "1000000"}}, http.StatusOK},
		{"open", request{http.MethodPost, base + "/advance", "0xorg", nil, nil}, http.StatusOK},
		{"submit a", request{http.MethodPost, base + "/contributions", "0xa", nil, httptransport.SubmitContributionRequest{Description: "a"}}, http.StatusCreated},
		{"submit b", request{http.MethodPost, base + "/contributions", "0xb", nil, httptransport.SubmitContributionRequest{Description: "b"}}, http.StatusCreated},
		{"submit a again", request{http.MethodPost, base + "/contributions", "0xa", nil, httptransport.SubmitContributionRequest{}}, http.StatusConflict},
		{"evaluate", request{http.MethodPost, base + "/advance", "0xorg", nil, nil}, http.StatusOK},
		{"score", request{http.MethodPost, base + "/scores", "0xeval", nil, httptransport.AssignScoresRequest{
			Contestants: []string{"0xa", "0xb"},
			Matrix:      [][]string{{"8100"}, {"8000"}},
		}}, http.StatusOK},
		{"verify", request{http.MethodPost, base + "/verify", "0xorg", nil, httptransport.BatchRequest{Start: 0, Count: 2}}, http.StatusOK},
		{"allocate phase", request{http.MethodPost, base + "/advance", "0xorg", nil, nil}, http.StatusOK},
		{"allocate out of order", request{http.MethodPost, base + "/allocate", "0xorg", nil, httptransport.BatchRequest{Start: 1, Count: 1}}, http.StatusConflict},
		{"allocate", request{http.MethodPost, base + "/allocate", "0xorg", nil, httptransport.BatchRequest{Start: 0, Count: 2}}, http.StatusOK},
		{"claim phase", request{http.MethodPost, base + "/advance", "0xorg", nil, nil}, http.StatusOK},
	}
	for _, step := range steps {
		rr := serve(t, server, step.req)
		if rr.Code != step.status {
			t.Fatalf("%s: expected %d, got %d body=%s", step.name, step.status, rr.Code, rr.Body.String())
		}
	}

	rr := serve(t, server, request{method: http.MethodPost, path: base + "/claim", caller: "0xA"})
	expectStatus(t, rr, http.StatusOK)
	var paid httptransport.AmountResponse
	decodeInto(t, rr, &paid)
	if paid.Amount != "503105" {
		t.Fatalf("expected 503105, got %s", paid.Amount)
	}
	rr = serve(t, server, request{method: http.MethodPost, path: base + "/claim", caller: "0xa"})
	expectStatus(t, rr, http.StatusConflict)
	var failure httptransport.ErrorResponse
	decodeInto(t, rr, &failure)
	if failure.Code != "reward_already_claimed" {
		t.Fatalf("expected reward_already_claimed, got %+v", failure)
	}

	rr = serve(t, server, request{method: http.MethodGet, path: base + "/contributions/0xb", caller: "0xb"})
	expectStatus(t, rr, http.StatusOK)
	var contribution httptransport.ContributionDTO
	decodeInto(t, rr, &contribution)
	if contribution.Reward != "496895" || contribution.Claimed {
		t.Fatalf("unexpected contribution: %+v", contribution)
	}

	for _, caller := range []string{"", "0xa"} {
		rr = serve(t, server, request{method: http.MethodGet, path: base + "/contributions/0xb", caller: caller})
		expectStatus(t, rr, http.StatusOK)
		var hidden httptransport.ContributionDTO
		decodeInto(t, rr, &hidden)
		if hidden.Reward != "" || hidden.AggregateScore != "" || len(hidden.Scores) != 0 {
			t.Fatalf("caller %q should not see values of 0xb: %+v", caller, hidden)
		}
	}
}

func TestCreatePrizeReplayReturnsOK(t *testing.T) {
	server := newTestServer(nil)
	first := createPrize(t, server, "same-key")
	rr := serve(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/prizes",
		caller:  "0xorg",
		headers: map[string]string{"Idempotency-Key": "same-key"},
		body: httptransport.CreatePrizeRequest{
			Name:            "Best Paper",
			PoolSize:        "1000000",
			CriteriaNames:   []string{"quality"},
			CriteriaWeights: []uint64{1},
		},
	})
	expectStatus(t, rr, http.StatusOK)
	var replay httptransport.CreatePrizeResponse
	decodeInto(t, rr, &replay)
	if !replay.Replayed || replay.Prize.PrizeID != first.Prize.PrizeID {
		t.Fatalf("expected replay of %s, got %+v", first.Prize.PrizeID, replay)
	}

	rr = serve(t, server, request{
		method: http.MethodPost,
		path:   "/v1/prizes",
		caller: "0xorg",
		body:   httptransport.CreatePrizeRequest{Name: "x", PoolSize: "1", CriteriaNames: []string{"a"}, CriteriaWeights: []uint64{1}},
	})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestPrizeErrorsMapToStatus(t *testing.T) {
	server := newTestServer(nil)
	created := createPrize(t, server, "create-1")
	base := "/v1/prizes/" + created.Prize.PrizeID

	rr := serve(t, server, request{method: http.MethodGet, path: "/v1/prizes/missing"})
	expectStatus(t, rr, http.StatusNotFound)

	rr = serve(t, server, request{method: http.MethodPost, path: base + "/advance", caller: "0xorg"})
	expectStatus(t, rr, http.StatusConflict)
	var failure httptransport.ErrorResponse
	decodeInto(t, rr, &failure)
	if failure.Code != "not_funded" {
		t.Fatalf("expected not_funded, got %+v", failure)
	}

	rr = serve(t, server, request{method: http.MethodPost, path: base + "/cancel", caller: "0xsomeone"})
	expectStatus(t, rr, http.StatusForbidden)

	rr = serve(t, server, request{method: http.MethodPost, path: base + "/cancel"})
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = serve(t, server, request{method: http.MethodGet, path: "/v1/prizes?phase=bogus"})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestBearerTokensIdentifyCaller(t *testing.T) {
	auth := identity.NewAuthenticator("test-secret")
	server := newTestServer(auth)
	token, err := auth.Issue("0xORG", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	body := httptransport.CreatePrizeRequest{Name: "Grant", PoolSize: "5", CriteriaNames: []string{"a"}, CriteriaWeights: []uint64{1}}
	rr := serve(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/prizes",
		caller:  "0xorg",
		headers: map[string]string{"Idempotency-Key": "k1"},
		body:    body,
	})
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = serve(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/prizes",
		headers: map[string]string{"Idempotency-Key": "k1", "Authorization": "Bearer " + token},
		body:    body,
	})
	expectStatus(t, rr, http.StatusCreated)
	var created httptransport.CreatePrizeResponse
	decodeInto(t, rr, &created)
	if created.Prize.Organizer != "0xorg" {
		t.Fatalf("expected organizer 0xorg, got %s", created.Prize.Organizer)
	}

	rr = serve(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/prizes",
		headers: map[string]string{"Idempotency-Key": "k2", "Authorization": "Bearer not-a-token"},
		body:    body,
	})
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestRoutesListFacetSelectors(t *testing.T) {
	server := newTestServer(nil)
	rr := serve(t, server, request{method: http.MethodGet, path: "/v1/routes"})
	expectStatus(t, rr, http.StatusOK)
	var routes httptransport.RoutesResponse
	decodeInto(t, rr, &routes)

	var found bool
	for _, item := range routes.Items {
		if item.Signature == "claimReward()" {
			found = item.Facet == "reward" && item.Mutates && strings.HasPrefix(item.Selector, "0x")
		}
	}
	if !found {
		t.Fatalf("claimReward() route missing or wrong: %+v", routes.Items)
	}

	rr = serve(t, server, request{method: http.MethodGet, path: "/healthz"})
	expectStatus(t, rr, http.StatusOK)
}
