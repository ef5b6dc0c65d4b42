package entities

// Event types written to the outbox. The type doubles as the publish topic.
const (
	EventPrizeCreated          = "prize.created"
	EventPrizeFunded           = "prize.funded"
	EventEvaluatorsAdded       = "prize.evaluators_added"
	EventEvaluatorsRemoved     = "prize.evaluators_removed"
	EventContributionSubmitted = "prize.contribution_submitted"
	EventScoresAssigned        = "prize.scores_assigned"
	EventEvaluationsVerified   = "prize.evaluations_verified"
	EventPhaseAdvanced         = "prize.phase_advanced"
	EventRewardsAllocated      = "prize.rewards_allocated"
	EventRewardClaimed         = "prize.reward_claimed"
	EventPrizeCancelled        = "prize.cancelled"
	EventFundsWithdrawn        = "prize.funds_withdrawn"
)

// EventTypes lists every prize event type.
var EventTypes = []string{
	EventPrizeCreated,
	EventPrizeFunded,
	EventEvaluatorsAdded,
	EventEvaluatorsRemoved,
	EventContributionSubmitted,
	EventScoresAssigned,
	EventEvaluationsVerified,
	EventPhaseAdvanced,
	EventRewardsAllocated,
	EventRewardClaimed,
	EventPrizeCancelled,
	EventFundsWithdrawn,
}
