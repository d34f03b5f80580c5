package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/testutil"
)

type recordingHandler struct {
	jobType string
	err     error
	seen    []string
}

func (h *recordingHandler) GetType() string { return h.jobType }

func (h *recordingHandler) Handle(_ context.Context, job *jobs.Job) error {
	h.seen = append(h.seen, string(job.Payload))
	return h.err
}

type countingObserver struct {
	statuses []jobs.JobStatus
}

func (o *countingObserver) ObserveJob(_ string, status jobs.JobStatus, _ time.Duration) {
	o.statuses = append(o.statuses, status)
}

func TestQueue_DequeueOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	q := jobs.NewQueue(db)
	ctx := context.Background()

	low := jobs.DefaultEnqueueOptions()
	low.Priority = jobs.PriorityLow
	_, err := q.Enqueue(ctx, "t", "low", low)
	require.NoError(t, err)

	high := jobs.DefaultEnqueueOptions()
	high.Priority = jobs.PriorityHigh
	_, err = q.Enqueue(ctx, "t", "high", high)
	require.NoError(t, err)

	later := jobs.DefaultEnqueueOptions()
	at := time.Now().UTC().Add(time.Hour)
	later.ScheduleAt = &at
	later.Priority = jobs.PriorityCritical
	_, err = q.Enqueue(ctx, "t", "later", later)
	require.NoError(t, err)

	first, err := q.Dequeue(ctx, jobs.QueueDefault)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.JSONEq(t, `"high"`, string(first.Payload))
	assert.Equal(t, jobs.StatusProcessing, first.Status)
	assert.Equal(t, 1, first.Attempts)

	second, err := q.Dequeue(ctx, jobs.QueueDefault)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.JSONEq(t, `"low"`, string(second.Payload))

	none, err := q.Dequeue(ctx, jobs.QueueDefault)
	require.NoError(t, err)
	assert.Nil(t, none)

	other, err := q.Dequeue(ctx, jobs.QueueMessages)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestQueue_EnqueueTxRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	q := jobs.NewQueue(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := q.EnqueueTx(ctx, tx, "t", "x", jobs.DefaultEnqueueOptions()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := q.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWorker_ProcessNext(t *testing.T) {
	db := testutil.NewTestDB(t)
	q := jobs.NewQueue(db)
	ctx := context.Background()
	observer := &countingObserver{}
	ok := &recordingHandler{jobType: "ok"}
	failing := &recordingHandler{jobType: "failing", err: errors.New("downstream unavailable")}

	w := jobs.NewWorker(q, jobs.WorkerConfig{Queue: jobs.QueueDefault}).WithObserver(observer)
	w.RegisterHandler(ok)
	w.RegisterHandler(failing)

	okJob, err := q.Enqueue(ctx, "ok", map[string]string{"a": "b"}, jobs.DefaultEnqueueOptions())
	require.NoError(t, err)
	require.NoError(t, w.ProcessNext(ctx))

	got, err := q.GetJob(ctx, okJob.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Len(t, ok.seen, 1)

	opts := jobs.DefaultEnqueueOptions()
	opts.MaxRetries = 2
	failJob, err := q.Enqueue(ctx, "failing", "x", opts)
	require.NoError(t, err)
	require.NoError(t, w.ProcessNext(ctx))

	got, err = q.GetJob(ctx, failJob.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusRetrying, got.Status)
	assert.Equal(t, "downstream unavailable", got.Error)
	require.NotNil(t, got.ScheduledAt)
	assert.True(t, got.ScheduledAt.After(time.Now().UTC()))

	// backoff keeps the retry out of reach for now
	assert.ErrorIs(t, w.ProcessNext(ctx), jobs.ErrNoJobsAvailable)

	unknown, err := q.Enqueue(ctx, "nobody-handles-this", "x", jobs.DefaultEnqueueOptions())
	require.NoError(t, err)
	require.NoError(t, w.ProcessNext(ctx))
	got, err = q.GetJob(ctx, unknown.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusRetrying, got.Status)
	assert.Contains(t, got.Error, "no handler registered")

	assert.Equal(t, []jobs.JobStatus{jobs.StatusCompleted, jobs.StatusFailed, jobs.StatusFailed}, observer.statuses)
}

func TestWorker_RecoversPanics(t *testing.T) {
	db := testutil.NewTestDB(t)
	q := jobs.NewQueue(db)
	ctx := context.Background()

	w := jobs.NewWorker(q, jobs.WorkerConfig{Queue: jobs.QueueDefault})
	w.RegisterHandler(panicHandler{})
	opts := jobs.DefaultEnqueueOptions()
	opts.MaxRetries = 1
	job, err := q.Enqueue(ctx, "panics", "x", opts)
	require.NoError(t, err)

	require.NoError(t, w.ProcessNext(ctx))
	got, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "panic")
}

type panicHandler struct{}

func (panicHandler) GetType() string { return "panics" }

func (panicHandler) Handle(context.Context, *jobs.Job) error { panic("nil map") }

func TestQueue_CancelAndStats(t *testing.T) {
	db := testutil.NewTestDB(t)
	q := jobs.NewQueue(db)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "t", "x", jobs.DefaultEnqueueOptions())
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "t", "y", jobs.DefaultEnqueueOptions())
	require.NoError(t, err)

	require.NoError(t, q.Cancel(ctx, job.ID))
	assert.ErrorIs(t, q.Cancel(ctx, job.ID), jobs.ErrJobNotCancellable)

	stats, err := q.GetStats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalJobs)
	assert.EqualValues(t, 1, stats.PendingJobs)
	assert.EqualValues(t, 2, stats.JobsByType["t"])
}

func TestQueue_ReclaimStale(t *testing.T) {
	db := testutil.NewTestDB(t)
	q := jobs.NewQueue(db)
	ctx := context.Background()

	retryable, err := q.Enqueue(ctx, "t", "a", jobs.DefaultEnqueueOptions())
	require.NoError(t, err)
	lastTry := jobs.DefaultEnqueueOptions()
	lastTry.MaxRetries = 1
	exhausted, err := q.Enqueue(ctx, "t", "b", lastTry)
	require.NoError(t, err)
	fresh, err := q.Enqueue(ctx, "t", "c", jobs.DefaultEnqueueOptions())
	require.NoError(t, err)

	for range 3 {
		job, err := q.Dequeue(ctx, jobs.QueueDefault)
		require.NoError(t, err)
		require.NotNil(t, job)
	}
	longAgo := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&jobs.Job{}).
		Where("id IN ?", []interface{}{retryable.ID, exhausted.ID}).
		Update("started_at", longAgo).Error)

	n, err := q.ReclaimStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.GetJob(ctx, retryable.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusRetrying, got.Status)
	got, err = q.GetJob(ctx, exhausted.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, got.Status)
	got, err = q.GetJob(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusProcessing, got.Status)

	again, err := q.Dequeue(ctx, jobs.QueueDefault)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, retryable.ID, again.ID)
	assert.Equal(t, 2, again.Attempts)
}
