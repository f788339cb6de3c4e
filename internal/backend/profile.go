package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

// File is an upload already read into memory and validated.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (e *Employer) FetchProfile(ctx context.Context, userID int64) (domain.ProfileDetails, error) {
	var out domain.ProfileDetails
	err := e.get(ctx, "profile.fetch", "/user/profile/"+strconv.FormatInt(userID, 10), &out)
	return out, err
}

func (e *Employer) SaveProfile(ctx context.Context, userID int64, p domain.Profile) (string, error) {
	return e.sendJSON(ctx, "profile.save", http.MethodPut, "/user/profile/"+strconv.FormatInt(userID, 10), p, nil)
}

func (e *Employer) SaveBusiness(ctx context.Context, userID int64, b domain.Business) (string, error) {
	return e.sendJSON(ctx, "business.save", http.MethodPut, "/user/business/"+strconv.FormatInt(userID, 10), b, nil)
}

func (e *Employer) UploadAvatar(ctx context.Context, f File) (string, error) {
	var out struct {
		AvatarURL string `json:"avatar_url"`
	}
	if _, err := e.sendMultipart(ctx, "profile.avatar", "/user/avatar", "avatar", &f, nil, &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

func (e *Employer) UploadPermit(ctx context.Context, userID int64, f File) (string, error) {
	var out struct {
		PermitURL string `json:"permit_url"`
	}
	if _, err := e.sendMultipart(ctx, "business.permit", "/user/permit/"+strconv.FormatInt(userID, 10), "permit", &f, nil, &out); err != nil {
		return "", err
	}
	return out.PermitURL, nil
}

// ReportViolation files a compliance report as multipart form data.
// attachment may be nil.
func (e *Employer) ReportViolation(ctx context.Context, message string, attachment *File) (string, error) {
	return e.sendMultipart(ctx, "compliance.report", "/compliance/violations", "attachment", attachment,
		map[string]string{"message": message}, nil)
}

func (e *Employer) sendMultipart(ctx context.Context, endpoint, path, field string, f *File, fields map[string]string, out any) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write %s field: %w", k, err)
		}
	}
	if f != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		header.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("create %s part: %w", field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return "", fmt.Errorf("write %s part: %w", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	return e.c.do(ctx, request{
		endpoint:    endpoint,
		method:      http.MethodPost,
		path:        path,
		token:       e.token,
		body:        &body,
		contentType: writer.FormDataContentType(),
	}, out)
}
