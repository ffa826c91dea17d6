package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/username/stationetl/src/security/validation"
)

// ObservatoryIDReplacer is the store operation behind the endpoint.
type ObservatoryIDReplacer interface {
	ReplaceObservatoryID(ctx context.Context, actID, newID string) (int64, error)
}

// SecretChecker validates the per-day key.
type SecretChecker interface {
	Verify(candidate string) bool
}

type CompetitorHandler struct {
	store    ObservatoryIDReplacer
	verifier SecretChecker
	log      *slog.Logger
}

func NewCompetitorHandler(store ObservatoryIDReplacer, verifier SecretChecker, log *slog.Logger) *CompetitorHandler {
	return &CompetitorHandler{store: store, verifier: verifier, log: log}
}

var replacedPage = template.Must(template.New("replaced").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Observatory id updated</title></head>
<body style="font-family: Arial, sans-serif;">
<h2>Observatory id updated</h2>
<p>{{.ActID}} &rarr; {{.NewID}}</p>
<p>Competitors updated: <b>{{.Rows}}</b></p>
</body>
</html>`))

// queryParam reads name or its x_ prefixed variant.
func queryParam(r *http.Request, name string) string {
	q := r.URL.Query()
	if v := q.Get(name); v != "" {
		return v
	}
	return q.Get("x_" + name)
}

// HandleReplaceObservatoryID serves GET /updateConcorrenteOss.
func (h *CompetitorHandler) HandleReplaceObservatoryID(w http.ResponseWriter, r *http.Request) {
	rawNew, rawAct, key := queryParam(r, "newOssId"), queryParam(r, "actOssId"), queryParam(r, "secretKey")
	if rawNew == "" || rawAct == "" || key == "" {
		http.Error(w, "newOssId, actOssId and secretKey are required", http.StatusBadRequest)
		return
	}
	if !h.verifier.Verify(key) {
		h.log.Warn("Rejected observatory id replacement: bad secret", "remoteAddr", r.RemoteAddr)
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	newID, err := validation.ObservatoryID(rawNew)
	if err != nil {
		http.Error(w, "newOssId: "+err.Error(), http.StatusBadRequest)
		return
	}
	actID, err := validation.ObservatoryID(rawAct)
	if err != nil {
		http.Error(w, "actOssId: "+err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.store.ReplaceObservatoryID(r.Context(), actID, newID)
	if err != nil {
		h.log.Error("Observatory id replacement failed", "actId", actID, "newId", newID, "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	h.log.Info("Observatory id replaced", "actId", actID, "newId", newID, "rows", n)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := replacedPage.Execute(w, struct {
		ActID, NewID string
		Rows         int64
	}{actID, newID, n}); err != nil {
		h.log.Error("Failed to render confirmation page", "error", err)
	}
}
