package upload

import (
	"context"
	"log"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

// Workflow validates a file, optionally transforms it, submits it and
// reports the outcome. A rejected file never reaches Submit.
type Workflow struct {
	Constraints Constraints
	// Prepare rewrites the accepted bytes, e.g. ProcessAvatar.
	Prepare func(data []byte) ([]byte, error)
	Submit  func(ctx context.Context, f backend.File) (string, error)
	// Uploaded receives the stored file's URL after a successful submit.
	Uploaded func(url string)
	Describe func(error) string
	Metrics  *metrics.Collector

	SuccessTitle   string
	SuccessMessage string
}

func (w Workflow) Run(ctx context.Context, name, declared string, data []byte) (string, workflow.Notification) {
	detected, err := w.Constraints.Validate(declared, data)
	if err != nil {
		if rejected, ok := err.(*RejectedError); ok {
			w.Metrics.RecordUploadRejected(w.Constraints.Kind, rejected.Reason)
		}
		return "", workflow.Failure{Title: "Upload Rejected", Message: err.Error()}
	}
	return w.submit(ctx, backend.File{Name: name, ContentType: detected, Data: data})
}

func (w Workflow) submit(ctx context.Context, f backend.File) (string, workflow.Notification) {
	if w.Prepare != nil {
		prepared, err := w.Prepare(f.Data)
		if err != nil {
			w.Metrics.RecordUploadRejected(w.Constraints.Kind, "unprocessable")
			return "", workflow.Failure{Title: "Upload Rejected", Message: "The image could not be processed. Try a different file."}
		}
		f.Data = prepared
		if w.Constraints.Kind == Avatar.Kind {
			f.Name = PNGName(f.Name)
			f.ContentType = "image/png"
		}
	}

	action := w.Constraints.Kind + ".upload"
	url, err := w.Submit(ctx, f)
	if err != nil {
		log.Printf("%s upload failed: %v", w.Constraints.Kind, err)
		w.Metrics.RecordWorkflow(action, "failure")
		return "", workflow.Fail("Upload Failed", err, w.Describe)
	}
	w.Metrics.RecordWorkflow(action, "success")
	if w.Uploaded != nil {
		w.Uploaded(url)
	}

	title, msg := w.SuccessTitle, w.SuccessMessage
	if title == "" {
		title = "Upload Complete"
	}
	if msg == "" {
		msg = "Your file was uploaded."
	}
	return url, workflow.Success{Title: title, Message: msg}
}
