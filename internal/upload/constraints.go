package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

const (
	ReasonEmpty       = "empty"
	ReasonTooLarge    = "too_large"
	ReasonUnsupported = "unsupported_type"
	ReasonMissing     = "missing"
)

type Constraints struct {
	Kind         string
	AllowedTypes []string
	MaxBytes     int64
	// TypeHint is shown when a file has the wrong type, e.g. "PDF".
	TypeHint string
}

var (
	Avatar = Constraints{
		Kind:         "avatar",
		AllowedTypes: []string{"image/png", "image/jpeg", "image/webp", "image/gif"},
		MaxBytes:     5 << 20,
		TypeHint:     "a PNG, JPEG, WebP or GIF image",
	}
	Permit = Constraints{
		Kind:         "permit",
		AllowedTypes: []string{"application/pdf"},
		MaxBytes:     10 << 20,
		TypeHint:     "a PDF",
	}
	Attachment = Constraints{
		Kind:         "attachment",
		AllowedTypes: []string{"application/pdf", "image/png", "image/jpeg"},
		MaxBytes:     5 << 20,
		TypeHint:     "a PDF, PNG or JPEG file",
	}
)

// WithMaxBytes returns c with a different ceiling; n <= 0 keeps the preset.
func (c Constraints) WithMaxBytes(n int64) Constraints {
	if n > 0 {
		c.MaxBytes = n
	}
	return c
}

// RejectedError explains why a file never left the form.
type RejectedError struct {
	Kind    string
	Reason  string
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func IsRejected(err error) bool {
	var r *RejectedError
	return errors.As(err, &r)
}

// TooLarge is the rejection for a file over MaxBytes.
func (c Constraints) TooLarge() *RejectedError {
	return &RejectedError{Kind: c.Kind, Reason: ReasonTooLarge, Message: fmt.Sprintf("File is too large. The limit is %s.", humanBytes(c.MaxBytes))}
}

func (c Constraints) reject(reason, message string) error {
	return &RejectedError{Kind: c.Kind, Reason: reason, Message: message}
}

// Validate checks size and type of data. declared is the content type the
// client claimed; it must agree with the allow-list when it is specific.
// The sniffed type always has to be allowed. It returns the sniffed type.
func (c Constraints) Validate(declared string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", c.reject(ReasonEmpty, "The selected file is empty.")
	}
	if c.MaxBytes > 0 && int64(len(data)) > c.MaxBytes {
		return "", c.TooLarge()
	}
	if mediaType := baseType(declared); mediaType != "" && mediaType != "application/octet-stream" && !c.allows(mediaType) {
		return "", c.reject(ReasonUnsupported, "Only "+c.TypeHint+" is accepted.")
	}
	detected := baseType(http.DetectContentType(data))
	if !c.allows(detected) {
		return "", c.reject(ReasonUnsupported, "Only "+c.TypeHint+" is accepted.")
	}
	return detected, nil
}

func (c Constraints) allows(mediaType string) bool {
	return slices.ContainsFunc(c.AllowedTypes, func(allowed string) bool {
		return strings.EqualFold(strings.TrimSpace(allowed), mediaType)
	})
}

func baseType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return strings.ToLower(mediaType)
}

func humanBytes(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d KB", n>>10)
}

// ReadForm pulls field out of a multipart request and validates it. Reading
// stops one byte past the limit so an oversized file is rejected without
// buffering all of it.
func (c Constraints) ReadForm(r *http.Request, field string) (name, contentType string, data []byte, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", "", nil, c.reject(ReasonMissing, "Please choose a file to upload.")
		}
		return "", "", nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	defer file.Close()

	limit := c.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err = io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", "", nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	detected, err := c.Validate(header.Header.Get("Content-Type"), data)
	if err != nil {
		return "", "", nil, err
	}
	name = strings.TrimSpace(filepath.Base(header.Filename))
	if name == "" || name == "." {
		name = c.Kind
	}
	return name, detected, data, nil
}
