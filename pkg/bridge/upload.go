package bridge

import (
	"errors"
	"io"
	"net/http"

	"tgbridge/pkg/staging"
	"tgbridge/pkg/telegram"

	"github.com/go-chi/chi/v5"
)

const (
	// multipartOverhead allows for part headers and small form fields on top
	// of the file itself.
	multipartOverhead = 1 << 20
	maxFieldBytes     = 64 << 10
)

// sendFile stages the uploaded file, sends it and removes the staged copy on
// every path out of the handler.
func (s *Service) sendFile(w http.ResponseWriter, r *http.Request) error {
	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}

	maxBytes := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		return telegram.Invalidf("parse form", "expected a multipart/form-data body: %v", err)
	}

	var (
		staged  *staging.File
		caption string
		voice   string
	)
	defer func() {
		if err := staged.Remove(); err != nil {
			s.log.Warn("Failed to remove staged upload", "error", err)
		}
	}()

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return telegram.Invalidf("parse form", "read multipart body: %v", err)
		}

		switch part.FormName() {
		case "file":
			if staged == nil {
				staged, err = s.uploads.Stage(part, part.FileName(), maxBytes)
				if err != nil {
					part.Close()
					return stagingError(err)
				}
			}
		case "caption":
			caption, err = readField(part)
		case "voice_note":
			voice, err = readField(part)
		}
		part.Close()
		if err != nil {
			return err
		}
	}

	if staged == nil {
		return telegram.Invalidf("parse form", "form field %q is required", "file")
	}
	voiceNote, err := formBool("voice_note", voice)
	if err != nil {
		return err
	}

	sent, err := s.client.SendFile(r.Context(), entity, staged.Path, telegram.FileOptions{
		FileName:  staged.Name,
		Caption:   caption,
		VoiceNote: voiceNote,
	})
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, newSendResponse(sent))
	return nil
}

func readField(part io.Reader) (string, error) {
	value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return "", telegram.Invalidf("parse form", "read form field: %v", err)
	}

	return string(value), nil
}

func stagingError(err error) error {
	switch staging.CategoryFromError(err) {
	case staging.ErrorTooLarge, staging.ErrorInvalidName, staging.ErrorOutsideArea:
		return telegram.NewError(telegram.KindInvalid, "stage upload", err)
	case staging.ErrorPermissionDenied:
		return telegram.NewError(telegram.KindPermissionDenied, "stage upload", err)
	default:
		return telegram.NewError(telegram.KindUnknown, "stage upload", err)
	}
}
