package compliance

import (
	"context"
	"errors"
	"log"
	"unicode/utf8"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/upload"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

const MaxMessageLength = 2000

type Section struct {
	Title string
	Items []string
}

var Checklists = []Section{
	{
		Title: "Job Posting Guidelines",
		Items: []string{"No Discrimination", "Wage Standards", "Clear Job Descriptions", "Zero Placement Fee"},
	},
	{
		Title: "Legal Acknowledgement",
		Items: []string{
			"Data Privacy Act (2012) Compliance",
			"Mandatory Government Benefits: SSS, PhilHealth, Pag-IBIG",
			"Zero Placement Fee Policy",
			"Anti-Discrimination Commitment",
			"Occupational Safety and Health (OSH) Standards",
		},
	},
	{
		Title: "Documents",
		Items: []string{
			"Mayor's Business Permit",
			"DTI/SEC Registration",
			"Barangay Business Permit",
			"Sanitary Permit",
			"Fire Safety Inspection Certificate",
		},
	},
}

// Violation is a report as typed into the form. Attachment is optional.
type Violation struct {
	Message    string
	Attachment *backend.File
}

type Reporter struct {
	Constraints upload.Constraints
	Submit      func(ctx context.Context, message string, attachment *backend.File) (string, error)
	Describe    func(error) string
	Metrics     *metrics.Collector
}

// Validate returns v with its message reduced to plain text. Errors are a
// *security.ValidationError or an upload rejection.
func (r Reporter) Validate(v Violation) (Violation, error) {
	v.Message = security.PlainText(v.Message)
	if v.Message == "" {
		return v, &security.ValidationError{Field: "message", Message: "Please describe the violation."}
	}
	if utf8.RuneCountInString(v.Message) > MaxMessageLength {
		return v, &security.ValidationError{Field: "message", Message: "Please keep the report under 2000 characters."}
	}
	if v.Attachment != nil {
		detected, err := r.Constraints.Validate(v.Attachment.ContentType, v.Attachment.Data)
		if err != nil {
			return v, err
		}
		att := *v.Attachment
		att.ContentType = detected
		v.Attachment = &att
	}
	return v, nil
}

// Report validates v and submits it. Nothing is sent when validation fails.
func (r Reporter) Report(ctx context.Context, v Violation) workflow.Notification {
	v, err := r.Validate(v)
	if err != nil {
		var rejected *upload.RejectedError
		if errors.As(err, &rejected) {
			r.Metrics.RecordUploadRejected(rejected.Kind, rejected.Reason)
		}
		return workflow.Failure{Title: "Report Not Sent", Message: err.Error()}
	}

	msg, err := r.Submit(ctx, v.Message, v.Attachment)
	if err != nil {
		log.Printf("violation report failed: %v", err)
		r.Metrics.RecordWorkflow("violation.report", "failure")
		return workflow.Fail("Report Not Sent", err, r.Describe)
	}
	r.Metrics.RecordWorkflow("violation.report", "success")
	if msg == "" {
		msg = "Thank you. Our compliance team will review your report."
	}
	return workflow.Success{Title: "Report Submitted", Message: msg}
}
