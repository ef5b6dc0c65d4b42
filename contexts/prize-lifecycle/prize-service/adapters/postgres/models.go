package postgresadapter

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type prizeModel struct {
	PrizeID             string         `gorm:"column:prize_id;primaryKey"`
	Organizer           string         `gorm:"column:organizer;index"`
	Name                string         `gorm:"column:name"`
	Description         string         `gorm:"column:description"`
	PoolSize            string         `gorm:"column:pool_size"`
	Pool                string         `gorm:"column:pool"`
	Funded              bool           `gorm:"column:funded"`
	FundsWithdrawn      bool           `gorm:"column:funds_withdrawn"`
	CriteriaNames       datatypes.JSON `gorm:"type:jsonb;column:criteria_names"`
	CriteriaWeights     datatypes.JSON `gorm:"type:jsonb;column:criteria_weights"`
	StrategyID          string         `gorm:"column:strategy_id"`
	Phase               string         `gorm:"column:phase"`
	Evaluators          datatypes.JSON `gorm:"type:jsonb;column:evaluators"`
	ScoreCount          int            `gorm:"column:score_count"`
	AggregationCursor   int            `gorm:"column:aggregation_cursor"`
	Basis               datatypes.JSON `gorm:"type:jsonb;column:basis"`
	AllocationCursor    int            `gorm:"column:allocation_cursor"`
	Allocated           string         `gorm:"column:allocated"`
	AllRewardsAllocated bool           `gorm:"column:all_rewards_allocated"`
	Version             int64          `gorm:"column:version"`
	CreatedAt           time.Time      `gorm:"column:created_at"`
	UpdatedAt           time.Time      `gorm:"column:updated_at"`
}

func (prizeModel) TableName() string {
	return "prizes"
}

type contributionModel struct {
	PrizeID        string         `gorm:"column:prize_id;primaryKey"`
	Contestant     string         `gorm:"column:contestant;primaryKey"`
	Idx            int            `gorm:"column:idx"`
	Description    string         `gorm:"column:description"`
	Scores         datatypes.JSON `gorm:"type:jsonb;column:scores"`
	AggregateScore *string        `gorm:"column:aggregate_score"`
	Aggregated     bool           `gorm:"column:aggregated"`
	Reward         *string        `gorm:"column:reward"`
	Claimed        bool           `gorm:"column:claimed"`
	SubmittedAt    time.Time      `gorm:"column:submitted_at"`
	ClaimedAt      *time.Time     `gorm:"column:claimed_at"`
}

func (contributionModel) TableName() string {
	return "prize_contributions"
}

type basisDocument struct {
	Denominator  string `json:"denominator"`
	Top          string `json:"top"`
	LastEligible int    `json:"last_eligible"`
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	PrizeID     string    `gorm:"column:prize_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "prize_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	Seq          int64      `gorm:"column:seq;autoIncrement;uniqueIndex;<-:false"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "prize_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "prize_event_dedup"
}

type activityModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	PrizeID    string    `gorm:"column:prize_id;index"`
	EventType  string    `gorm:"column:event_type"`
	Actor      string    `gorm:"column:actor"`
	Summary    string    `gorm:"column:summary"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (activityModel) TableName() string {
	return "prize_activity"
}

type treasuryEntryModel struct {
	EntryID   string    `gorm:"column:entry_id;primaryKey"`
	PrizeID   string    `gorm:"column:prize_id"`
	Kind      string    `gorm:"column:kind"`
	Account   string    `gorm:"column:account"`
	Amount    string    `gorm:"column:amount"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (treasuryEntryModel) TableName() string {
	return "prize_treasury_entries"
}

// Migrate creates or updates the prize tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&prizeModel{},
		&contributionModel{},
		&idempotencyModel{},
		&outboxModel{},
		&eventDedupModel{},
		&activityModel{},
		&treasuryEntryModel{},
	); err != nil {
		return fmt.Errorf("migrate prize tables: %w", err)
	}
	return nil
}
