package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"stylestudio/internal/domain"
	"stylestudio/internal/jobs"
	"stylestudio/pkg/zip"
)

type historyItem struct {
	ID               string    `json:"id"`
	OriginalImage    string    `json:"originalImage"`
	TransformedImage string    `json:"transformedImage"`
	Style            string    `json:"style"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toHistoryItem(rec domain.TransformationRecord) historyItem {
	return historyItem{
		ID:               rec.ID,
		OriginalImage:    jobs.UploadURL(rec.SourcePath),
		TransformedImage: jobs.OutputURL(rec.ResultPath),
		Style:            rec.StyleName,
		CreatedAt:        rec.CreatedAt,
	}
}

func (a *App) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", a.t(r, msgUnauthorized))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.Jobs.History(r.Context(), userID, limit)
	if err != nil {
		a.requestLogger(r).Error().Err(err).Msg("list history")
		a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgServerError))
		return
	}
	total, err := a.Jobs.HistoryTotal(r.Context(), userID)
	if err != nil {
		a.requestLogger(r).Error().Err(err).Msg("count history")
		a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgServerError))
		return
	}
	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, toHistoryItem(rec))
	}
	a.json(w, http.StatusOK, map[string]any{"history": items, "total": total})
}

func (a *App) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", a.t(r, msgUnauthorized))
		return
	}
	rec, err := a.Jobs.Lookup(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.historyFailure(w, r, err, "get history")
		return
	}
	a.json(w, http.StatusOK, toHistoryItem(*rec))
}

func (a *App) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", a.t(r, msgUnauthorized))
		return
	}
	if _, err := a.Jobs.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		a.historyFailure(w, r, err, "delete history")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"message": a.t(r, msgHistoryDeleted)})
}

// HistoryArchive downloads the original and transformed images as one zip.
func (a *App) HistoryArchive(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", a.t(r, msgUnauthorized))
		return
	}
	rec, original, transformed, err := a.Jobs.Artifacts(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.historyFailure(w, r, err, "archive history")
		return
	}
	var buf bytes.Buffer
	err = zip.Write(&buf, []zip.Entry{
		{Filename: "original" + filepath.Ext(rec.SourcePath), Data: original, Modified: rec.CreatedAt},
		{Filename: rec.StyleName + filepath.Ext(rec.ResultPath), Data: transformed, Modified: rec.CreatedAt},
	})
	if err != nil {
		a.requestLogger(r).Error().Err(err).Msg("build archive")
		a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgServerError))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="history-%s.zip"`, rec.ID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) historyFailure(w http.ResponseWriter, r *http.Request, err error, op string) {
	if jobs.IsNotFound(err) {
		a.error(w, http.StatusNotFound, "not_found", a.t(r, msgHistoryNotFound))
		return
	}
	a.requestLogger(r).Error().Err(err).Msg(op)
	a.error(w, http.StatusInternalServerError, "internal", a.t(r, msgServerError))
}
