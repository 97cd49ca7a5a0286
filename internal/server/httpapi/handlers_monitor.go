package httpapi

import "net/http"

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := a.monitor.Health(r.Context())
	status := http.StatusOK
	if !h.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := a.monitor.Metrics(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.monitor.Status(r.Context()))
}
