package http

import (
	"net/http"

	"finsight/internal/auth"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/services"
)

// dashboardQuery reads the period, feed filter and all flag from r.
func (s *Server) dashboardQuery(r *http.Request) (services.DashboardQuery, error) {
	q := r.URL.Query()
	filter, err := parseFeedFilter(q, s.dashboard.Location())
	if err != nil {
		return services.DashboardQuery{}, err
	}
	return services.DashboardQuery{
		Period:  parsePeriod(q, s.dashboard.CurrentPeriod()),
		Filter:  filter,
		ShowAll: parseBool(q.Get("all")),
	}, nil
}

func (s *Server) loadDashboard(r *http.Request) (core.Dashboard, services.DashboardQuery, error) {
	q, err := s.dashboardQuery(r)
	if err != nil {
		return core.Dashboard{}, q, err
	}
	d, err := s.dashboard.Load(r.Context(), auth.SessionFrom(r.Context()), q)
	return d, q, err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	d, q, err := s.loadDashboard(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	view := newDashboardView(auth.SessionFrom(r.Context()).User, d, q.Filter, s.dashboard.Location())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", view); err != nil {
		log.LogError(r.Context(), s.logger, "Dashboard template execution failed", err,
			log.ErrorTypeInternal, log.OpRender, log.NewFields().WithComponent(log.ComponentHTTP))
	}
}

func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	d, _, err := s.loadDashboard(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
