package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quickdeals/price-intel/common/db"
	planner "github.com/quickdeals/price-intel/services/query_planner_service/src"
	semanticindex "github.com/quickdeals/price-intel/services/semantic_index_service/src"
	"go.uber.org/zap"
)

// Processor turns a free-text query into an ordered Plan and then runs it,
// generalizing MultiStepQueryProcessor to an explicit struct (no
// module-level singleton) held by the Services aggregate.
type Processor struct {
	database *db.DB
	index    *semanticindex.Index
	planner  *planner.Planner
	log      *zap.Logger

	mu     sync.Mutex
	active map[string]*Plan
}

func New(database *db.DB, index *semanticindex.Index, p *planner.Planner, log *zap.Logger) *Processor {
	return &Processor{database: database, index: index, planner: p, log: log, active: make(map[string]*Plan)}
}

// CreateExecutionPlan builds an ordered Plan for query, consulting the
// semantic index for relevant tables and scaling per-step timeouts with the
// query's estimated complexity.
func (p *Processor) CreateExecutionPlan(ctx context.Context, query string, queryContext map[string]interface{}) (*Plan, error) {
	p.log.Info("creating execution plan", zap.String("query", truncate(query, 100)))

	pattern := analyzeQueryPattern(query)
	complexity := calculateComplexityScore(query, len(queryContext))

	var relevantTables []string
	if p.index != nil {
		matches, err := p.index.RelevantTables(ctx, query, 15)
		if err != nil {
			p.log.Warn("semantic table lookup failed, continuing without it", zap.Error(err))
		} else {
			for _, m := range matches {
				relevantTables = append(relevantTables, m.Name)
			}
		}
	}

	var joinPlan *planner.ExecutionPlan
	if p.planner != nil && len(relevantTables) > 1 {
		jp, err := p.planner.BuildPlan(ctx, query, relevantTables)
		if err != nil {
			p.log.Warn("join planning failed, continuing without a join plan", zap.Error(err))
		} else {
			joinPlan = jp
		}
	}

	steps := buildSteps(pattern, query, relevantTables, complexity)

	var estimated time.Duration
	for _, s := range steps {
		estimated += time.Duration(float64(s.Timeout) * 0.1)
	}

	plan := &Plan{
		QueryID:               fmt.Sprintf("query_%d", time.Now().UnixNano()/int64(time.Millisecond)),
		OriginalQuery:         query,
		Steps:                 steps,
		EstimatedExecutionTime: estimated,
		ComplexityScore:       complexity,
		RelevantTables:        relevantTables,
		JoinPlan:              joinPlan,
		CreatedAt:             time.Now().UTC(),
	}

	p.mu.Lock()
	p.active[plan.QueryID] = plan
	p.mu.Unlock()

	p.log.Info("created execution plan", zap.Int("steps", len(steps)), zap.Int("complexity", complexity))
	return plan, nil
}

// buildSteps instantiates one template family into concrete Steps, adding
// a trailing sampling step for queries complex enough (score >= 7) to
// warrant it.
func buildSteps(pattern, query string, relevantTables []string, complexity int) []*Step {
	templates, ok := queryPatterns[pattern]
	if !ok {
		templates = queryPatterns["product_search"]
	}

	timeout := time.Duration(minInt(30+complexity*5, 120)) * time.Second

	steps := make([]*Step, 0, len(templates)+1)
	for i, tmpl := range templates {
		id := fmt.Sprintf("step_%d_%s", i+1, tmpl.stepType)
		var deps []string
		if i > 0 {
			deps = []string{fmt.Sprintf("step_%d_%s", i, templates[i-1].stepType)}
		}
		validation := tmpl.validationQuery
		if validation != "" {
			validation = customizeValidationQuery(validation, query)
		}
		steps = append(steps, &Step{
			ID:                 id,
			Type:               tmpl.stepType,
			Description:        tmpl.description,
			SQLFragment:        generateSQLFragment(tmpl.stepType, query, relevantTables),
			Dependencies:       deps,
			ValidationQuery:    validation,
			ExpectedResultType: tmpl.expectedResultType,
			Timeout:            timeout,
			MaxRetries:         2,
			Status:             StatusPending,
		})
	}

	if complexity >= 7 {
		var deps []string
		if len(steps) > 0 {
			deps = []string{steps[len(steps)-1].ID}
		}
		steps = append(steps, &Step{
			ID:                 fmt.Sprintf("step_%d_sampling", len(steps)+1),
			Type:               StepResultFormatting,
			Description:        "Apply statistical sampling for large result sets",
			SQLFragment:        "-- Statistical sampling will be applied",
			Dependencies:       deps,
			ExpectedResultType: "rows",
			Timeout:            15 * time.Second,
			Status:             StatusPending,
		})
	}

	return steps
}

// Execute runs plan's steps in order, honoring dependencies, per-step
// timeouts, validation, and critical-step abort semantics: a failed
// table_selection or data_validation step with no successful recovery
// halts the plan; every other step type is best-effort.
func (p *Processor) Execute(ctx context.Context, plan *Plan) (*Result, error) {
	p.log.Info("executing plan", zap.String("query_id", plan.QueryID), zap.Int("steps", len(plan.Steps)))
	start := time.Now()

	defer func() {
		p.mu.Lock()
		delete(p.active, plan.QueryID)
		p.mu.Unlock()
	}()

	var stepResults []StepResult
	stepsExecuted := 0
	stepsFailed := 0
	recoveryApplied := false
	aborted := false

	for _, step := range plan.Steps {
		if !dependenciesSatisfied(step, stepResults) {
			p.log.Warn("skipping step, dependencies not satisfied", zap.String("step_id", step.ID))
			step.Status = StatusSkipped
			continue
		}

		result := p.executeStepWithValidation(ctx, step)
		stepResults = append(stepResults, result)
		stepsExecuted++

		if !result.Success {
			stepsFailed++

			recovered := p.applyErrorRecovery(ctx, step, result)
			if recovered.Success {
				recoveryApplied = true
				stepResults[len(stepResults)-1] = recovered
				p.log.Info("error recovery successful", zap.String("step_id", step.ID))
			} else {
				p.log.Error("step failed, recovery unsuccessful", zap.String("step_id", step.ID))
				if criticalSteps[step.Type] {
					aborted = true
					break
				}
			}
		}
	}

	finalResult := aggregateStepResults(stepResults)
	suggestions := generateExecutionSuggestions(stepResults, plan)

	return &Result{
		QueryID:             plan.QueryID,
		OriginalQuery:       plan.OriginalQuery,
		Success:             !aborted && (stepsFailed == 0 || finalResult != nil),
		FinalResult:         finalResult,
		TotalExecutionTime:  time.Since(start),
		StepsExecuted:       stepsExecuted,
		StepsFailed:         stepsFailed,
		StepResults:         stepResults,
		ErrorRecoveryApplied: recoveryApplied,
		Suggestions:         suggestions,
	}, nil
}

func dependenciesSatisfied(step *Step, completed []StepResult) bool {
	if len(step.Dependencies) == 0 {
		return true
	}
	done := make(map[string]bool, len(completed))
	for _, r := range completed {
		if r.Success {
			done[r.StepID] = true
		}
	}
	for _, dep := range step.Dependencies {
		if !done[dep] {
			return false
		}
	}
	return true
}

func (p *Processor) executeStepWithValidation(ctx context.Context, step *Step) StepResult {
	step.Status = StatusInProgress
	start := time.Now()

	stepCtx, cancel := context.WithTimeout(ctx, step.Timeout)
	defer cancel()

	if step.ValidationQuery != "" {
		ok, err := p.runValidationQuery(stepCtx, step.ValidationQuery)
		if err != nil || !ok {
			step.Status = StatusFailed
			step.ExecutionTime = time.Since(start)
			return StepResult{
				StepID: step.ID, Success: false, ExecutionTime: step.ExecutionTime,
				ErrorMessage: "validation query failed",
				Suggestions:  recoveryStrategies[step.Type],
			}
		}
	}

	result, err := p.executeStepLogic(stepCtx, step)
	step.ExecutionTime = time.Since(start)
	if err != nil {
		step.Status = StatusFailed
		step.ErrorMessage = err.Error()
		p.log.Error("step failed", zap.String("step_id", step.ID), zap.Error(err))
		return StepResult{
			StepID: step.ID, Success: false, ExecutionTime: step.ExecutionTime,
			ErrorMessage: err.Error(), Suggestions: recoveryStrategies[step.Type],
		}
	}

	step.Status = StatusCompleted
	step.Result = result
	return StepResult{StepID: step.ID, Success: true, Result: result, ExecutionTime: step.ExecutionTime}
}

// runValidationQuery reports whether validationQuery returned a positive
// count (or any rows for non-count queries).
func (p *Processor) runValidationQuery(ctx context.Context, validationQuery string) (bool, error) {
	if strings.Contains(strings.ToUpper(validationQuery), "COUNT(*)") {
		var count int64
		err := p.database.Instrumented(validationQuery, func() (int64, error) {
			return 1, p.database.WithContext(ctx).Raw(validationQuery).Scan(&count).Error
		})
		if err != nil {
			p.log.Warn("validation query failed", zap.Error(err))
			return false, nil
		}
		return count > 0, nil
	}

	var rows []map[string]interface{}
	err := p.database.Instrumented(validationQuery, func() (int64, error) {
		e := p.database.WithContext(ctx).Raw(validationQuery).Scan(&rows).Error
		return int64(len(rows)), e
	})
	if err != nil {
		p.log.Warn("validation query failed", zap.Error(err))
		return false, nil
	}
	return len(rows) > 0, nil
}

// executeStepLogic runs the main body of one step, per its type.
func (p *Processor) executeStepLogic(ctx context.Context, step *Step) (interface{}, error) {
	switch step.Type {
	case StepTableSelection:
		names := strings.Split(strings.TrimPrefix(step.SQLFragment, "-- Using tables: "), ", ")
		return map[string]interface{}{"selected_tables": names}, nil

	case StepDataValidation:
		var count int64
		err := p.database.Instrumented(step.SQLFragment, func() (int64, error) {
			return 1, p.database.WithContext(ctx).Raw(step.SQLFragment).Scan(&count).Error
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"validation_count": count, "valid": count > 0}, nil

	case StepJoinValidation:
		var count int64
		err := p.database.Instrumented(step.SQLFragment, func() (int64, error) {
			return 1, p.database.WithContext(ctx).Raw(step.SQLFragment).Scan(&count).Error
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"join_valid": count > 0}, nil

	case StepFilterApplication:
		return map[string]interface{}{"filters_applied": step.SQLFragment}, nil

	case StepAggregation:
		return map[string]interface{}{"aggregation": step.SQLFragment}, nil

	case StepResultFormatting:
		if strings.HasPrefix(strings.TrimSpace(step.SQLFragment), "--") {
			return map[string]interface{}{"step_completed": true}, nil
		}
		var rows []map[string]interface{}
		limited := step.SQLFragment + " LIMIT 50"
		err := p.database.Instrumented(limited, func() (int64, error) {
			e := p.database.WithContext(ctx).Raw(limited).Scan(&rows).Error
			return int64(len(rows)), e
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"formatted_results": rows, "count": len(rows)}, nil
	}
	return map[string]interface{}{"step_completed": true}, nil
}

// applyErrorRecovery re-runs data_validation's count query once, unchanged
// (its ILIKE pattern is not broadened), and retries join_validation with
// LEFT JOIN substituted for JOIN, mirroring _apply_error_recovery's two
// wired strategies; other step types fall through to their listed
// suggestions with no automated retry.
func (p *Processor) applyErrorRecovery(ctx context.Context, step *Step, failed StepResult) StepResult {
	strategies := recoveryStrategies[step.Type]
	if len(strategies) == 0 {
		return failed
	}
	p.log.Info("applying error recovery", zap.String("step_id", step.ID))

	switch step.Type {
	case StepDataValidation:
		var count int64
		err := p.database.WithContext(ctx).Raw(step.SQLFragment).Scan(&count).Error
		if err == nil && count > 0 {
			return StepResult{
				StepID: step.ID, Success: true, ExecutionTime: failed.ExecutionTime,
				Result: map[string]interface{}{"validation_count": count, "valid": true, "recovery_applied": strategies[0]},
			}
		}

	case StepJoinValidation:
		leftJoined := strings.ReplaceAll(step.SQLFragment, "JOIN", "LEFT JOIN")
		var count int64
		err := p.database.WithContext(ctx).Raw(leftJoined).Scan(&count).Error
		if err == nil && count > 0 {
			return StepResult{
				StepID: step.ID, Success: true, ExecutionTime: failed.ExecutionTime,
				Result: map[string]interface{}{"join_valid": true, "recovery_applied": strategies[0]},
			}
		}
	}

	return failed
}

// aggregateStepResults picks the last successful result_formatting payload
// as the final answer, falling back to a validation-count message, and
// finally a generic "no results" message.
func aggregateStepResults(results []StepResult) interface{} {
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if !r.Success {
			continue
		}
		if m, ok := r.Result.(map[string]interface{}); ok {
			if formatted, ok := m["formatted_results"]; ok {
				return formatted
			}
		}
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		if m, ok := r.Result.(map[string]interface{}); ok {
			if count, ok := m["validation_count"]; ok {
				return map[string]interface{}{"message": fmt.Sprintf("Found %v matching items", count)}
			}
		}
	}
	return map[string]interface{}{"message": "Query executed but no results available"}
}

func generateExecutionSuggestions(results []StepResult, plan *Plan) []string {
	var suggestions []string

	var failed []StepResult
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	if len(failed) > 0 {
		suggestions = append(suggestions, "Some query steps failed - try simplifying your query")
		for _, f := range failed {
			n := len(f.Suggestions)
			if n > 2 {
				n = 2
			}
			suggestions = append(suggestions, f.Suggestions[:n]...)
		}
	}

	if plan.ComplexityScore >= 8 {
		suggestions = append(suggestions, "This was a complex query - consider breaking it into smaller parts")
	}
	if len(results) > 5 {
		suggestions = append(suggestions, "Query required many steps - simpler queries will be faster")
	}
	if plan.JoinPlan != nil {
		suggestions = append(suggestions, plan.JoinPlan.OptimizationSuggestions...)
	}

	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
