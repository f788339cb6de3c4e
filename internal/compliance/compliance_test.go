package compliance

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/upload"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

type call struct {
	message    string
	attachment *backend.File
}

func reporter(calls *[]call, fail error) Reporter {
	return Reporter{
		Constraints: upload.Attachment,
		Submit: func(_ context.Context, message string, att *backend.File) (string, error) {
			*calls = append(*calls, call{message, att})
			return "", fail
		},
		Describe: backend.UserMessage,
	}
}

func TestReportSanitizesAndSubmits(t *testing.T) {
	var calls []call
	r := reporter(&calls, nil)

	n := r.Report(context.Background(), Violation{
		Message: "  Employer <b>asked</b> for a <script>alert(1)</script>placement fee  ",
		Attachment: &backend.File{
			Name:        "receipt.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4\n%%EOF"),
		},
	})

	require.IsType(t, workflow.Success{}, n)
	require.Len(t, calls, 1)
	assert.Equal(t, "Employer asked for a placement fee", calls[0].message)
	assert.Equal(t, "receipt.pdf", calls[0].attachment.Name)
}

func TestReportBlocksInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		v    Violation
	}{
		{"empty", Violation{Message: "   "}},
		{"markup only", Violation{Message: "<img src=x>"}},
		{"too long", Violation{Message: strings.Repeat("a", MaxMessageLength+1)}},
		{"bad attachment", Violation{Message: "see file", Attachment: &backend.File{Name: "x.exe", Data: []byte("MZ\x90\x00")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []call
			n := reporter(&calls, nil).Report(context.Background(), tt.v)
			assert.IsType(t, workflow.Failure{}, n)
			assert.Empty(t, calls)
		})
	}

	_, err := Reporter{Constraints: upload.Attachment}.Validate(Violation{})
	assert.Equal(t, "message", security.FieldOf(err))
}

func TestReportSurfacesServerMessage(t *testing.T) {
	var calls []call
	r := reporter(&calls, &backend.APIError{Status: 422, Message: "Reports are limited to 5 per day"})

	n := r.Report(context.Background(), Violation{Message: "late wages"})

	require.IsType(t, workflow.Failure{}, n)
	assert.Equal(t, "Reports are limited to 5 per day", n.(workflow.Failure).Message)
}

func TestChecklistsArePopulated(t *testing.T) {
	require.Len(t, Checklists, 3)
	for _, s := range Checklists {
		assert.NotEmpty(t, s.Items, s.Title)
	}
}
