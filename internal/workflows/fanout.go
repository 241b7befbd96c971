package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/seekerlab/seeker/internal/activities"
	"github.com/seekerlab/seeker/internal/models"
)

// fanOutResult is the join-barrier outcome of one search wave.
type fanOutResult struct {
	Evidence []models.EvidenceItem
	// Failed counts searches that returned an error or timed out. The join
	// absorbs them: a wave with failures still produces a result.
	Failed int
	// DeadlineHit means the run deadline expired before every search
	// finished; Evidence holds what had arrived by then.
	DeadlineHit bool
}

// executeSearchFanOut runs one search per sub-query concurrently and joins
// on all of them. Individual failures never propagate: each failed call is
// counted and its slot contributes no evidence. When a run deadline future
// is supplied and fires first, in-flight searches are cancelled and the
// join returns the evidence collected so far.
func executeSearchFanOut(
	ctx workflow.Context,
	subQueries []models.SubQuery,
	searchTimeout time.Duration,
	deadline workflow.Future,
) fanOutResult {
	logger := workflow.GetLogger(ctx)

	cancelCtx, cancelSearches := workflow.WithCancel(ctx)
	searchCtx := workflow.WithActivityOptions(cancelCtx, workflow.ActivityOptions{
		StartToCloseTimeout: searchTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var joined fanOutResult
	wg := workflow.NewWaitGroup(ctx)
	for _, sq := range subQueries {
		sq := sq
		wg.Add(1)
		workflow.Go(ctx, func(gctx workflow.Context) {
			defer wg.Done()
			var out activities.SearchResult
			err := workflow.ExecuteActivity(searchCtx, activities.ActivityExecuteSearch,
				activities.SearchInput{SubQuery: sq},
			).Get(gctx, &out)
			if err != nil {
				joined.Failed++
				logger.Warn("Search absorbed at join barrier",
					"sub_query_id", sq.ID,
					"error", err,
				)
				return
			}
			joined.Evidence = append(joined.Evidence, out.Items...)
		})
	}

	if deadline == nil {
		wg.Wait(ctx)
		return joined
	}

	// Join against the run deadline: whichever fires first wins. The done
	// channel is buffered so the waiter coroutine never blocks if the
	// deadline won.
	done := workflow.NewBufferedChannel(ctx, 1)
	workflow.Go(ctx, func(gctx workflow.Context) {
		wg.Wait(gctx)
		done.Send(gctx, struct{}{})
	})

	sel := workflow.NewSelector(ctx)
	sel.AddReceive(done, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, nil)
	})
	sel.AddFuture(deadline, func(workflow.Future) {
		joined.DeadlineHit = true
		cancelSearches()
	})
	sel.Select(ctx)
	return joined
}
