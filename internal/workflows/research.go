package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/seekerlab/seeker/internal/activities"
	"github.com/seekerlab/seeker/internal/models"
)

// ResearchWorkflow drives the iterative research cycle:
//
//	PLANNING -> SEARCHING -> EVALUATING -> (PLANNING | SUMMARIZING) -> DONE
//
// The workflow is the sole owner of ResearchState: activities receive read
// views and return deltas which are applied here. Evidence accumulates
// monotonically across iterations. An insufficient verdict loops back to
// planning until the iteration bound forces summarization from whatever
// evidence exists, so a run that produces any report at all terminates on
// the summarization path.
func ResearchWorkflow(ctx workflow.Context, input ResearchInput) (ResearchResult, error) {
	logger := workflow.GetLogger(ctx)
	runID := workflow.GetInfo(ctx).WorkflowExecution.ID
	startedAt := workflow.Now(ctx)

	maxIterations := input.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	maxSubQueries := input.MaxSubQueries
	if maxSubQueries <= 0 {
		maxSubQueries = DefaultMaxSubQueries
	}
	searchTimeout := input.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = DefaultSearchTimeout
	}

	// One overall deadline for the run, if configured. Expiry is observed at
	// the fan-out join: in-flight searches are cancelled and the loop
	// proceeds with the evidence already gathered.
	var deadline workflow.Future
	if input.RunDeadline > 0 {
		deadline = workflow.NewTimer(ctx, input.RunDeadline)
	}

	logger.Info("Starting research run",
		"run_id", runID,
		"query_id", input.Query.ID,
		"max_iterations", maxIterations,
	)

	state := models.NewResearchState(input.Query)
	failedSearches := 0
	forced := false

	emit := func(phase, message string) {
		emitProgress(ctx, activities.ProgressInput{
			RunID:     runID,
			State:     phase,
			Iteration: state.Iteration,
			Message:   message,
		})
	}

	fatal := func(phase string, err error) (ResearchResult, error) {
		logger.Error("Research run failed", "run_id", runID, "phase", phase, "error", err)
		emit(StateFailed, err.Error())
		return ResearchResult{}, err
	}

	for {
		// PLANNING: decompose the query, carrying evaluator gaps on re-entry.
		emit(StatePlanning, "decomposing query into sub-queries")
		var plan activities.PlanResult
		err := workflow.ExecuteActivity(
			withStageOptions(ctx, DefaultPlanTimeout),
			activities.ActivityPlanSubQueries,
			activities.PlanInput{
				Query:          state.Query,
				Iteration:      state.Iteration,
				MissingAspects: state.MissingAspects(),
				MaxSubQueries:  maxSubQueries,
			},
		).Get(ctx, &plan)
		if err != nil {
			return fatal(StatePlanning, err)
		}
		state.AddSubQueries(plan.SubQueries)

		// SEARCHING: fan out all sub-queries, join with failures absorbed.
		emit(StateSearching, "executing searches")
		fanOut := executeSearchFanOut(ctx, plan.SubQueries, searchTimeout, deadline)
		state.AppendEvidence(fanOut.Evidence)
		failedSearches += fanOut.Failed
		if fanOut.Failed > 0 {
			logger.Warn("Searches failed at join barrier",
				"run_id", runID,
				"failed", fanOut.Failed,
				"succeeded", len(plan.SubQueries)-fanOut.Failed,
			)
		}
		if fanOut.DeadlineHit {
			logger.Warn("Run deadline reached during search fan-out, evaluating partial evidence",
				"run_id", runID,
				"evidence", len(state.Evidence),
			)
		}

		// EVALUATING: judge the accumulated evidence set. This runs even
		// when the deadline cut the fan-out short, so the final verdict
		// reflects whatever evidence made it in.
		emit(StateEvaluating, "evaluating evidence sufficiency")
		var eval activities.EvaluateResult
		err = workflow.ExecuteActivity(
			withStageOptions(ctx, DefaultEvaluateTimeout),
			activities.ActivityEvaluateEvidence,
			activities.EvaluateInput{
				Query:     state.Query,
				Evidence:  state.Evidence,
				Iteration: state.Iteration,
			},
		).Get(ctx, &eval)
		if err != nil {
			return fatal(StateEvaluating, err)
		}
		verdict := eval.Verdict
		state.Verdict = &verdict

		if verdict.Sufficient {
			break
		}

		// Insufficient with the run deadline spent: no budget for another
		// cycle, summarize from best available data.
		if fanOut.DeadlineHit {
			logger.Info("Run deadline exhausted, forcing summarization", "run_id", runID)
			forced = true
			break
		}

		// Insufficient: count the loop-back, then either re-plan or trip the
		// iteration bound and summarize from best available data.
		state.Iteration++
		if state.Iteration >= maxIterations {
			logger.Info("Iteration bound reached, forcing summarization",
				"run_id", runID,
				"iterations", state.Iteration,
			)
			forced = true
			break
		}
		logger.Info("Evidence insufficient, looping back to planning",
			"run_id", runID,
			"iteration", state.Iteration,
			"missing_aspects", len(verdict.MissingAspects),
		)
	}

	// SUMMARIZING: always reached; the report is built from whatever
	// evidence exists, possibly none.
	emit(StateSummarizing, "synthesizing report")
	var synth activities.SynthesizeResult
	err := workflow.ExecuteActivity(
		withStageOptions(ctx, DefaultSynthesisTimeout),
		activities.ActivitySynthesizeReport,
		activities.SynthesizeInput{
			Query:          state.Query,
			Evidence:       state.Evidence,
			Forced:         forced,
			FailedSearches: failedSearches,
		},
	).Get(ctx, &synth)
	if err != nil {
		return fatal(StateSummarizing, err)
	}
	state.Report = &synth.Report

	emitProgress(ctx, activities.ProgressInput{
		RunID:     runID,
		State:     StateDone,
		Iteration: state.Iteration,
		Message:   "research complete",
		Report:    synth.Report.Body,
		Forced:    forced,
		Elapsed:   workflow.Now(ctx).Sub(startedAt),
	})

	// Archive after delivery; a persistence failure never fails the run.
	persistSession(ctx, activities.PersistSessionInput{
		RunID:      runID,
		UserID:     state.Query.UserID,
		Query:      state.Query.Text,
		ReportBody: synth.Report.Body,
		Confidence: string(synth.Report.Confidence),
		Incomplete: synth.Report.Incomplete,
	})

	logger.Info("Research run completed",
		"run_id", runID,
		"iterations", state.Iteration,
		"forced", forced,
		"evidence", len(state.Evidence),
		"confidence", string(synth.Report.Confidence),
		"elapsed", workflow.Now(ctx).Sub(startedAt).String(),
	)

	return ResearchResult{
		Report:         synth.Report,
		Iterations:     state.Iteration,
		Forced:         forced,
		EvidenceCount:  len(state.Evidence),
		FailedSearches: failedSearches,
	}, nil
}

// withStageOptions configures a reasoning-stage activity call. Stage
// failures are not retried here: the error taxonomy makes planner and
// evaluator failures fatal rather than silently retried.
func withStageOptions(ctx workflow.Context, timeout time.Duration) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

// emitProgress schedules a progress event and waits so observers see
// transitions in order. Emission failures are swallowed.
func emitProgress(ctx workflow.Context, in activities.ProgressInput) {
	opts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	_ = workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, opts),
		activities.ActivityEmitProgress, in,
	).Get(ctx, nil)
}

// persistSession archives the finished run without blocking completion on
// store health.
func persistSession(ctx workflow.Context, in activities.PersistSessionInput) {
	opts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
	}
	_ = workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, opts),
		activities.ActivityPersistSession, in,
	).Get(ctx, nil)
}
