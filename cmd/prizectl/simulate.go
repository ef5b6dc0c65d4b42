package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	prizeservice "prizeforge/contexts/prize-lifecycle/prize-service"
	httptransport "prizeforge/contexts/prize-lifecycle/prize-service/transport/http"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Scenario is a complete prize run described in YAML.
type Scenario struct {
	Name        string               `yaml:"name"`
	Organizer   string               `yaml:"organizer"`
	PoolSize    string               `yaml:"pool_size"`
	Strategy    string               `yaml:"strategy"`
	Criteria    []ScenarioCriterion  `yaml:"criteria"`
	Evaluators  []string             `yaml:"evaluators"`
	BatchSize   int                  `yaml:"batch_size"`
	Contestants []ScenarioContestant `yaml:"contestants"`
}

type ScenarioCriterion struct {
	Name   string `yaml:"name"`
	Weight uint64 `yaml:"weight"`
}

type ScenarioContestant struct {
	Address     string `yaml:"address"`
	Description string `yaml:"description"`
	// Scores maps evaluator address to one score per criterion.
	Scores map[string][]string `yaml:"scores"`
}

// Outcome is the result of one contestant after claiming.
type Outcome struct {
	Contestant     string
	AggregateScore string
	Reward         string
	Claimed        bool
}

func newSimulateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a prize scenario end to end in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scenario, err := loadScenario(file)
			if err != nil {
				return err
			}
			module := prizeservice.NewInMemoryModule(commandLogger(cmd))
			outcomes, err := runScenario(cmd.Context(), module, scenario)
			if err != nil {
				return err
			}
			return printOutcomes(cmd.OutOrStdout(), outcomes)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "scenario YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return parseScenario(raw)
}

func parseScenario(raw []byte) (Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(raw, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if strings.TrimSpace(scenario.Organizer) == "" {
		return Scenario{}, errors.New("scenario organizer is required")
	}
	if len(scenario.Criteria) == 0 {
		return Scenario{}, errors.New("scenario needs at least one criterion")
	}
	if scenario.Name == "" {
		scenario.Name = "simulation"
	}
	if scenario.BatchSize <= 0 {
		scenario.BatchSize = len(scenario.Contestants)
	}
	return scenario, nil
}

// runScenario drives the scenario through the same handler the HTTP API uses.
func runScenario(ctx context.Context, module prizeservice.Module, scenario Scenario) ([]Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	h := module.Handler
	organizer := scenario.Organizer

	req := httptransport.CreatePrizeRequest{
		Name:     scenario.Name,
		PoolSize: scenario.PoolSize,
		Strategy: scenario.Strategy,
	}
	for _, criterion := range scenario.Criteria {
		req.CriteriaNames = append(req.CriteriaNames, criterion.Name)
		req.CriteriaWeights = append(req.CriteriaWeights, criterion.Weight)
	}
	created, err := h.CreatePrizeHandler(ctx, organizer, "simulate:"+scenario.Name, req)
	if err != nil {
		return nil, fmt.Errorf("create prize: %w", err)
	}
	prizeID := created.Prize.PrizeID

	if len(scenario.Evaluators) > 0 {
		if _, err := h.AddEvaluatorsHandler(ctx, organizer, prizeID, httptransport.EvaluatorsRequest{Addresses: scenario.Evaluators}); err != nil {
			return nil, fmt.Errorf("add evaluators: %w", err)
		}
	}
	if _, err := h.FundHandler(ctx, organizer, prizeID, httptransport.FundRequest{Amount: scenario.PoolSize}); err != nil {
		return nil, fmt.Errorf("fund: %w", err)
	}
	if _, err := h.AdvanceHandler(ctx, organizer, prizeID); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	for _, contestant := range scenario.Contestants {
		if _, err := h.SubmitContributionHandler(ctx, contestant.Address, prizeID, httptransport.SubmitContributionRequest{
			Description: contestant.Description,
		}); err != nil {
			return nil, fmt.Errorf("submit %s: %w", contestant.Address, err)
		}
	}
	if _, err := h.AdvanceHandler(ctx, organizer, prizeID); err != nil {
		return nil, fmt.Errorf("start evaluation: %w", err)
	}
	for index, contestant := range scenario.Contestants {
		for _, evaluator := range scenario.Evaluators {
			scores, ok := contestant.Scores[evaluator]
			if !ok {
				continue
			}
			if _, err := h.EvaluateHandler(ctx, evaluator, prizeID, httptransport.EvaluateRequest{
				ContestantIndex: index,
				Scores:          scores,
			}); err != nil {
				return nil, fmt.Errorf("evaluate %s by %s: %w", contestant.Address, evaluator, err)
			}
		}
	}
	if err := runBatches(len(scenario.Contestants), scenario.BatchSize, func(start, count int) error {
		_, err := h.VerifyEvaluationsHandler(ctx, organizer, prizeID, httptransport.BatchRequest{Start: start, Count: count})
		return err
	}); err != nil {
		return nil, fmt.Errorf("verify evaluations: %w", err)
	}
	if _, err := h.AdvanceHandler(ctx, organizer, prizeID); err != nil {
		return nil, fmt.Errorf("start allocation: %w", err)
	}
	if err := runBatches(len(scenario.Contestants), scenario.BatchSize, func(start, count int) error {
		_, err := h.AllocateRewardsHandler(ctx, organizer, prizeID, httptransport.BatchRequest{Start: start, Count: count})
		return err
	}); err != nil {
		return nil, fmt.Errorf("allocate rewards: %w", err)
	}
	if _, err := h.AdvanceHandler(ctx, organizer, prizeID); err != nil {
		return nil, fmt.Errorf("open claims: %w", err)
	}

	outcomes := make([]Outcome, 0, len(scenario.Contestants))
	for _, contestant := range scenario.Contestants {
		item, err := h.GetContributionHandler(ctx, organizer, prizeID, contestant.Address)
		if err != nil {
			return nil, err
		}
		outcome := Outcome{
			Contestant:     item.Contestant,
			AggregateScore: item.AggregateScore,
			Reward:         item.Reward,
		}
		if item.Reward != "" && item.Reward != "0" {
			if _, err := h.ClaimRewardHandler(ctx, contestant.Address, prizeID); err != nil {
				return nil, fmt.Errorf("claim %s: %w", contestant.Address, err)
			}
			outcome.Claimed = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func runBatches(total int, size int, step func(start, count int) error) error {
	if total == 0 {
		return nil
	}
	for start := 0; start < total; start += size {
		count := min(size, total-start)
		if err := step(start, count); err != nil {
			return err
		}
	}
	return nil
}

func printOutcomes(out io.Writer, outcomes []Outcome) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTESTANT\tSCORE\tREWARD\tCLAIMED")
	for _, outcome := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", outcome.Contestant, outcome.AggregateScore, outcome.Reward, outcome.Claimed)
	}
	return w.Flush()
}
