package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
)

type fakeJobs struct {
	updateErr error
	updates   []domain.JobStatus
	reloads   int
}

func (f *fakeJobs) transition() StatusTransition[domain.JobStatus] {
	return StatusTransition[domain.JobStatus]{
		Name: "job.status",
		Update: func(_ context.Context, _ int64, status domain.JobStatus) error {
			f.updates = append(f.updates, status)
			return f.updateErr
		},
		Reload: func(context.Context) error {
			f.reloads++
			return nil
		},
		Messages: JobMessages,
		Describe: func(err error) string { return "server said: " + err.Error() },
	}
}

func TestTransitionSuccessReloadsOnce(t *testing.T) {
	f := &fakeJobs{}

	n := f.transition().Run(context.Background(), 3, domain.JobFilled)

	require.IsType(t, Success{}, n)
	assert.Equal(t, "Job Marked as Filled", n.(Success).Title)
	assert.Equal(t, 1, f.reloads)
	assert.Equal(t, []domain.JobStatus{domain.JobFilled}, f.updates)
}

func TestTransitionMessagesDifferPerStatus(t *testing.T) {
	seen := map[string]bool{}
	for _, status := range []domain.ApplicationStatus{domain.ApplicationHired, domain.ApplicationRejected, domain.ApplicationShortlisted} {
		tr := StatusTransition[domain.ApplicationStatus]{
			Update:   func(context.Context, int64, domain.ApplicationStatus) error { return nil },
			Messages: ApplicationMessages,
		}
		title, msg := Text(tr.Run(context.Background(), 1, status))
		assert.False(t, seen[title+msg], "duplicate message for %s", status)
		seen[title+msg] = true
	}
	assert.Len(t, seen, 3)
}

func TestTransitionFailureSkipsReload(t *testing.T) {
	f := &fakeJobs{updateErr: errors.New("job is expired")}

	n := f.transition().Run(context.Background(), 3, domain.JobActive)

	require.IsType(t, Failure{}, n)
	assert.Equal(t, "server said: job is expired", n.(Failure).Message)
	assert.Equal(t, "Update Failed", n.(Failure).Title)
	assert.Zero(t, f.reloads)
}

func TestTransitionRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := &fakeJobs{}
	tr := f.transition()
	tr.Metrics = metrics.NewCollector(reg)

	tr.Run(context.Background(), 1, domain.JobClosed)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "panel_workflow_outcomes_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestKindIsExhaustive(t *testing.T) {
	assert.Equal(t, "success", Kind(Success{}))
	assert.Equal(t, "error", Kind(Failure{}))
	assert.Equal(t, "loading", Kind(Loading{}))
	assert.Equal(t, "", Kind(nil))
}

func TestActionLifecycle(t *testing.T) {
	var a Action
	assert.Equal(t, Idle, a.State())

	require.NoError(t, a.Begin())
	assert.Equal(t, Pending, a.State())
	assert.ErrorIs(t, a.Begin(), ErrPending)
	assert.IsType(t, Loading{}, a.Notification())

	a.Finish(Failure{Title: "x", Message: "y"})
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, Failure{Title: "x", Message: "y"}, a.Notification())

	a.Dismiss()
	assert.Equal(t, Idle, a.State())
	assert.Nil(t, a.Notification())
}

func TestActionWaitsForDismiss(t *testing.T) {
	var a Action
	_, err := a.Run(func() Notification { return Success{Title: "done"} })
	require.NoError(t, err)

	err = a.Begin()
	assert.ErrorIs(t, err, ErrUndismissed)
	assert.ErrorIs(t, err, ErrPending)
	assert.Equal(t, Success{Title: "done"}, a.Notification())

	a.Dismiss()
	assert.NoError(t, a.Begin())
}

func TestActionRunGuardsDoubleSubmit(t *testing.T) {
	var a Action
	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := a.Run(func() Notification {
			close(started)
			<-release
			return Success{Title: "done"}
		})
		assert.NoError(t, err)
	}()

	<-started
	_, err := a.Run(func() Notification { return Success{} })
	assert.ErrorIs(t, err, ErrPending)

	close(release)
	wg.Wait()
	assert.Equal(t, Succeeded, a.State())
}

func TestTrackerSeparatesActions(t *testing.T) {
	tr := NewTracker()
	upload := tr.Get("s1", "avatar")
	require.NoError(t, upload.Begin())

	assert.NoError(t, tr.Get("s1", "job.status").Begin())
	assert.NoError(t, tr.Get("s2", "avatar").Begin())
	assert.Same(t, upload, tr.Get("s1", "avatar"))

	tr.Forget("s1")
	assert.Equal(t, Idle, tr.Get("s1", "avatar").State())
	assert.Equal(t, Pending, tr.Get("s2", "avatar").State())
}
