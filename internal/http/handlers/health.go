package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"message": a.t(r, msgServerRunning),
		"engine":  a.Engine,
		"uptime":  time.Since(a.Started).Round(time.Second).String(),
	})
}
