// Package executor implements the multi-step query execution pipeline,
// structured as an ordered list of independently-timed steps the way the
// pricing FallbackEngine walks its FallbackStrategy list.
package executor

import (
	"time"

	planner "github.com/quickdeals/price-intel/services/query_planner_service/src"
)

// StepType is one of the six query-step kinds a plan is built from.
type StepType string

const (
	StepTableSelection   StepType = "table_selection"
	StepDataValidation   StepType = "data_validation"
	StepJoinValidation   StepType = "join_validation"
	StepFilterApplication StepType = "filter_application"
	StepAggregation      StepType = "aggregation"
	StepResultFormatting StepType = "result_formatting"
)

// StepStatus tracks a step's lifecycle during execution.
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusFailed     StepStatus = "failed"
	StatusSkipped    StepStatus = "skipped"
)

// criticalSteps abort the whole plan on unrecoverable failure; every other
// step type is best-effort and execution continues past it.
var criticalSteps = map[StepType]bool{
	StepTableSelection: true,
	StepDataValidation: true,
}

// Step is one node of an execution plan.
type Step struct {
	ID                 string
	Type               StepType
	Description        string
	SQLFragment        string
	Dependencies       []string
	ValidationQuery    string
	ExpectedResultType string // "rows", "count", "exists"
	Timeout            time.Duration
	MaxRetries         int

	Status        StepStatus
	Result        interface{}
	ErrorMessage  string
	ExecutionTime time.Duration
}

// Plan is the ordered set of steps a natural-language query compiles down
// to, mirroring QueryExecutionPlan.
type Plan struct {
	QueryID               string
	OriginalQuery         string
	Steps                 []*Step
	EstimatedExecutionTime time.Duration
	ComplexityScore       int
	RelevantTables        []string
	JoinPlan              *planner.ExecutionPlan
	CreatedAt             time.Time
}

// StepResult is the outcome of running one step.
type StepResult struct {
	StepID        string
	Success       bool
	Result        interface{}
	ExecutionTime time.Duration
	ErrorMessage  string
	Suggestions   []string
}

// Result is the aggregated outcome of running a whole Plan.
type Result struct {
	QueryID             string
	OriginalQuery       string
	Success             bool
	FinalResult         interface{}
	TotalExecutionTime  time.Duration
	StepsExecuted       int
	StepsFailed         int
	StepResults         []StepResult
	ErrorRecoveryApplied bool
	Suggestions         []string
}
