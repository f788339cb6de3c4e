package workflow

import (
	"context"
	"log"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
)

// Message is the title and body shown after a successful transition.
type Message struct {
	Title string
	Body  string
}

// StatusTransition asks the server to move one record to a new status and
// reloads the collection once the server accepted it. The list only shows
// the new status after that reload.
type StatusTransition[S ~string] struct {
	// Name labels metrics and logs, e.g. "job.status".
	Name     string
	Update   func(ctx context.Context, id int64, status S) error
	Reload   func(ctx context.Context) error
	Messages map[S]Message
	// Describe maps an error to user-facing text.
	Describe     func(error) string
	FailureTitle string
	Metrics      *metrics.Collector
}

func (t StatusTransition[S]) Run(ctx context.Context, id int64, status S) Notification {
	if err := t.Update(ctx, id, status); err != nil {
		log.Printf("%s update of %d to %s failed: %v", t.Name, id, status, err)
		t.Metrics.RecordWorkflow(t.Name, "failure")
		title := t.FailureTitle
		if title == "" {
			title = "Update Failed"
		}
		return Fail(title, err, t.Describe)
	}

	if t.Reload != nil {
		if err := t.Reload(ctx); err != nil {
			log.Printf("%s reload after update of %d failed: %v", t.Name, id, err)
		}
	}
	t.Metrics.RecordWorkflow(t.Name, "success")

	if msg, ok := t.Messages[status]; ok {
		return Success{Title: msg.Title, Message: msg.Body}
	}
	return Success{Title: "Status Updated", Message: "The status was updated to " + string(status) + "."}
}

// JobMessages are the success notices per target job status.
var JobMessages = map[domain.JobStatus]Message{
	domain.JobActive: {Title: "Job Activated", Body: "The posting is live again and visible to applicants."},
	domain.JobClosed: {Title: "Job Closed", Body: "The posting no longer accepts applications."},
	domain.JobFilled: {Title: "Job Marked as Filled", Body: "The position has been filled and the posting is closed to applicants."},
}

// ApplicationMessages are the success notices per target application status.
var ApplicationMessages = map[domain.ApplicationStatus]Message{
	domain.ApplicationHired:       {Title: "Applicant Hired", Body: "The applicant has been marked as hired."},
	domain.ApplicationRejected:    {Title: "Applicant Rejected", Body: "The application has been rejected."},
	domain.ApplicationShortlisted: {Title: "Applicant Shortlisted", Body: "The applicant has been added to the shortlist."},
}
