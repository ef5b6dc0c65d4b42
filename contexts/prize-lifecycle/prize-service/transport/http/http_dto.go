package http

// Amounts and scores travel as decimal strings so the wire format does not
// depend on how values are represented internally.

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type CreatePrizeRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	PoolSize        string   `json:"pool_size"`
	CriteriaNames   []string `json:"criteria_names"`
	CriteriaWeights []uint64 `json:"criteria_weights"`
	Strategy        string   `json:"strategy"`
}

type CreatePrizeResponse struct {
	Prize    PrizeDTO `json:"prize"`
	Replayed bool     `json:"replayed"`
}

type ListPrizesResponse struct {
	Items []PrizeDTO `json:"items"`
}

type PrizeDTO struct {
	PrizeID             string   `json:"prize_id"`
	Organizer           string   `json:"organizer"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	PoolSize            string   `json:"pool_size"`
	Pool                string   `json:"pool"`
	Funded              bool     `json:"funded"`
	FundsWithdrawn      bool     `json:"funds_withdrawn"`
	CriteriaNames       []string `json:"criteria_names"`
	CriteriaWeights     []uint64 `json:"criteria_weights"`
	StrategyID          string   `json:"strategy_id"`
	Phase               string   `json:"phase"`
	Evaluators          []string `json:"evaluators"`
	Contestants         []string `json:"contestants"`
	PendingEvaluations  int      `json:"pending_evaluations"`
	AggregationCursor   int      `json:"aggregation_cursor"`
	AllocationCursor    int      `json:"allocation_cursor"`
	AllRewardsAllocated bool     `json:"all_rewards_allocated"`
	Version             int64    `json:"version"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

type ContributionDTO struct {
	Contestant     string              `json:"contestant"`
	Index          int                 `json:"index"`
	Description    string              `json:"description"`
	ScoredBy       []string            `json:"scored_by"`
	Scores         map[string][]string `json:"scores,omitempty"`
	AggregateScore string              `json:"aggregate_score,omitempty"`
	Reward         string              `json:"reward,omitempty"`
	Claimed        bool                `json:"claimed"`
	SubmittedAt    string              `json:"submitted_at"`
	ClaimedAt      string              `json:"claimed_at,omitempty"`
}

type EvaluatorsRequest struct {
	Addresses []string `json:"addresses"`
}

type EvaluatorsResponse struct {
	Changed []string `json:"changed"`
}

type FundRequest struct {
	Amount string `json:"amount"`
}

type AmountResponse struct {
	Amount string `json:"amount"`
}

type SubmitContributionRequest struct {
	Description string `json:"description"`
}

type SubmitContributionResponse struct {
	Index int `json:"index"`
}

type EvaluateRequest struct {
	ContestantIndex int      `json:"contestant_index"`
	Scores          []string `json:"scores"`
}

type AssignScoresRequest struct {
	Contestants []string   `json:"contestants"`
	Matrix      [][]string `json:"matrix"`
}

type ScoresResponse struct {
	Scored int `json:"scored"`
}

type BatchRequest struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

type BatchResponse struct {
	Cursor int  `json:"cursor"`
	Total  int  `json:"total"`
	Done   bool `json:"done"`
}

type PhaseResponse struct {
	Phase string `json:"phase"`
}

type StrategyResponse struct {
	StrategyID string `json:"strategy_id"`
	Name       string `json:"name"`
}

type AllocationPreviewItem struct {
	Contestant     string `json:"contestant"`
	Index          int    `json:"index"`
	AggregateScore string `json:"aggregate_score"`
	Reward         string `json:"reward"`
}

type AllocationPreviewResponse struct {
	Items []AllocationPreviewItem `json:"items"`
}

// SealRequest is a sealing permit. PublicKey is a base64 X25519 key.
type SealRequest struct {
	Recipient string `json:"recipient"`
	PublicKey string `json:"public_key"`
}

type SealedValueResponse struct {
	Recipient  string `json:"recipient"`
	Scheme     string `json:"scheme"`
	Ciphertext string `json:"ciphertext"`
}

type ActivityItem struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	Actor      string `json:"actor,omitempty"`
	Summary    string `json:"summary"`
	OccurredAt string `json:"occurred_at"`
}

type ActivityResponse struct {
	Items []ActivityItem `json:"items"`
}

type RouteItem struct {
	Selector  string `json:"selector"`
	Signature string `json:"signature"`
	Facet     string `json:"facet"`
	Mutates   bool   `json:"mutates"`
}

type RoutesResponse struct {
	Items []RouteItem `json:"items"`
}
