package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj<<>>endobj\ntrailer<<>>\n%%EOF")

func TestValidateRejectsBeforeSubmit(t *testing.T) {
	big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), int(Permit.MaxBytes))...)

	tests := []struct {
		name     string
		c        Constraints
		declared string
		data     []byte
		reason   string
	}{
		{"empty", Permit, "application/pdf", nil, ReasonEmpty},
		{"too large", Permit, "application/pdf", big, ReasonTooLarge},
		{"png as permit", Permit, "image/png", pngBytes(t, 4, 4), ReasonUnsupported},
		{"disguised png", Permit, "application/pdf", pngBytes(t, 4, 4), ReasonUnsupported},
		{"pdf as avatar", Avatar, "", pdfBytes, ReasonUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitted := false
			w := Workflow{
				Constraints: tt.c,
				Submit: func(context.Context, backend.File) (string, error) {
					submitted = true
					return "", nil
				},
			}

			url, n := w.Run(context.Background(), "file", tt.declared, tt.data)

			assert.False(t, submitted, "no request may be sent")
			assert.Empty(t, url)
			require.IsType(t, workflow.Failure{}, n)

			_, err := tt.c.Validate(tt.declared, tt.data)
			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.reason, rejected.Reason)
		})
	}
}

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	detected, err := Permit.Validate("application/pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", detected)

	detected, err = Avatar.Validate("application/octet-stream", pngBytes(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", detected)
}

func TestAvatarWorkflowProcessesAndNotifies(t *testing.T) {
	var sent backend.File
	var stored string
	w := Workflow{
		Constraints: Avatar,
		Prepare:     ProcessAvatar,
		Submit: func(_ context.Context, f backend.File) (string, error) {
			sent = f
			return "/uploads/avatars/1.png", nil
		},
		Uploaded: func(url string) { stored = url },
	}

	url, n := w.Run(context.Background(), "me.jpg", "image/png", pngBytes(t, 300, 200))

	require.IsType(t, workflow.Success{}, n)
	assert.Equal(t, "/uploads/avatars/1.png", url)
	assert.Equal(t, url, stored)
	assert.Equal(t, "me.png", sent.Name)
	assert.Equal(t, "image/png", sent.ContentType)

	img, err := png.Decode(bytes.NewReader(sent.Data))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, img.Bounds().Dx())
	assert.Equal(t, AvatarSize, img.Bounds().Dy())
}

func TestWorkflowSubmitFailure(t *testing.T) {
	called := false
	w := Workflow{
		Constraints: Permit,
		Submit: func(context.Context, backend.File) (string, error) {
			return "", &backend.APIError{Status: 400, Message: "Permit already verified"}
		},
		Uploaded: func(string) { called = true },
		Describe: backend.UserMessage,
	}

	_, n := w.Run(context.Background(), "permit.pdf", "application/pdf", pdfBytes)

	require.IsType(t, workflow.Failure{}, n)
	assert.Equal(t, "Permit already verified", n.(workflow.Failure).Message)
	assert.False(t, called)
}

func TestReadFormStopsAtLimit(t *testing.T) {
	small := Constraints{Kind: "attachment", AllowedTypes: []string{"application/pdf"}, MaxBytes: 16, TypeHint: "a PDF"}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="attachment"; filename="big.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 64)...))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, _, _, err = small.ReadForm(req, "attachment")
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, ReasonTooLarge, rejected.Reason)

	_, _, _, err = small.ReadForm(req, "other")
	assert.True(t, IsRejected(err))
}
