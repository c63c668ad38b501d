package handlers

import (
	"errors"
	"net/http"
	"strings"

	"stylestudio/internal/domain"
	"stylestudio/internal/intake"
	"stylestudio/internal/jobs"
	"stylestudio/internal/middleware"
	"stylestudio/internal/transform"
)

const formMemory = 8 << 20

type transformResponse struct {
	Message          string `json:"message"`
	OriginalImage    string `json:"originalImage"`
	TransformedImage string `json:"transformedImage"`
	Style            string `json:"style"`
	HistoryID        string `json:"historyId"`
}

func (a *App) TransformImage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", a.t(r, msgUnauthorized))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			a.error(w, http.StatusBadRequest, "too_large", a.t(r, msgTooLarge, a.uploadLimitMB()))
		case errors.Is(err, http.ErrNotMultipart):
			a.error(w, http.StatusBadRequest, "bad_request", a.t(r, msgInvalidRequestForm), a.t(r, msgNoImageHint))
		default:
			a.error(w, http.StatusBadRequest, "bad_request", a.t(r, msgNoImage), a.t(r, msgNoImageHint))
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "missing_image", a.t(r, msgNoImage), a.t(r, msgNoImageHint))
		return
	}
	defer file.Close()

	style := strings.TrimSpace(r.FormValue("style"))
	if style == "" {
		a.error(w, http.StatusBadRequest, "missing_style", a.t(r, msgStyleRequired), a.t(r, msgStyleRequiredHint))
		return
	}

	res, err := a.Jobs.Transform(r.Context(), jobs.Request{
		OwnerID:   userID,
		Style:     style,
		File:      file,
		Filename:  header.Filename,
		MIMEType:  header.Header.Get("Content-Type"),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		a.transformFailure(w, r, err)
		return
	}
	a.json(w, http.StatusOK, transformResponse{
		Message:          a.t(r, msgTransformed),
		OriginalImage:    res.OriginalImage,
		TransformedImage: res.TransformedImage,
		Style:            res.Style,
		HistoryID:        res.HistoryID,
	})
}

// transformFailure maps a job failure onto a status and a client message.
// Engine diagnostics stay in the logs.
func (a *App) transformFailure(w http.ResponseWriter, r *http.Request, err error) {
	log := a.requestLogger(r)
	fail, ok := jobs.FailureOf(err)
	if !ok {
		log.Error().Err(err).Msg("transform request failed")
		a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgTransformError))
		return
	}

	switch fail.Kind {
	case jobs.FailBadStyle:
		a.error(w, http.StatusBadRequest, "invalid_style", a.t(r, msgInvalidStyle), a.validStylesHint(r))
	case jobs.FailBadUpload:
		a.uploadFailure(w, r, fail.Err)
	case jobs.FailTransform:
		kind := transform.KindOf(fail.Err)
		var detail string
		var ee *transform.ExecutionError
		if errors.As(fail.Err, &ee) {
			detail = ee.Diagnostics
		}
		log.Error().Err(fail.Err).Str("kind", string(kind)).Str("diagnostics", detail).Msg("transformation failed")
		hint := a.t(r, msgTryDifferent)
		if kind == transform.KindTimeout || kind == transform.KindEngineUnavailable {
			hint = a.t(r, msgRetryLater)
		}
		a.error(w, http.StatusServiceUnavailable, string(kind), a.t(r, msgTransformFailed), hint)
	default:
		if errors.Is(fail.Err, domain.ErrUnauthorized) {
			a.error(w, http.StatusUnauthorized, "unauthorized", a.t(r, msgUnauthorized))
			return
		}
		log.Error().Err(err).Str("failure", string(fail.Kind)).Msg("transform request failed")
		a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgTransformError))
	}
}

func (a *App) uploadFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case intake.IsReason(err, intake.ReasonTooLarge):
		a.error(w, http.StatusBadRequest, "too_large", a.t(r, msgTooLarge, a.uploadLimitMB()))
	case intake.IsReason(err, intake.ReasonUnsupportedType):
		a.error(w, http.StatusBadRequest, "unsupported_type", a.t(r, msgUnsupportedType), a.t(r, msgUnsupportedHint))
	case intake.IsReason(err, intake.ReasonEmpty):
		a.error(w, http.StatusBadRequest, "empty_upload", a.t(r, msgEmptyUpload), a.t(r, msgNoImageHint))
	default:
		a.requestLogger(r).Error().Err(err).Msg("stage upload")
		a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgTransformError))
	}
}
