package handlers

import (
	"net/http"

	"stylestudio/internal/styles"
)

type styleDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

func (a *App) ListStyles(w http.ResponseWriter, r *http.Request) {
	catalog := styles.Catalog()
	out := make([]styleDTO, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, styleDTO{Name: def.Name, Description: def.Description, Steps: styles.StepStrings(def)})
	}
	a.json(w, http.StatusOK, map[string]any{"styles": out})
}
