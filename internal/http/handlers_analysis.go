package http

import (
	"fmt"
	"math"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/services"
)

type analysisView struct {
	Month string
	services.Analysis
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	ctx := r.Context()
	if month := ParseMonthParam(r.URL.Query(), ""); month != "" {
		if err := s.svc.SelectMonth(sess, month); err != nil {
			s.renderBudgetPage(w, r, sess, statusFor(err), "", userMessage(err))
			return
		}
	}

	a, err := s.svc.Analyze(sess)
	if err != nil {
		logFailure(ctx, "Failed to analyze month", applog.OpRead, err)
		http.Error(w, userMessage(err), statusFor(err))
		return
	}
	s.renderPage(w, r, http.StatusOK, "analysis.html", pageData{
		Title:    "Analysis for " + sess.Month(),
		Username: sess.Username,
		Active:   "analysis",
		Data:     analysisView{Month: sess.Month(), Analysis: a},
	})
}

// bar is one row of a server-rendered bar chart. Width is a percentage of
// the largest absolute value in the series.
type bar struct {
	Label    string
	Value    core.Money
	Width    int
	Negative bool
}

type trendSeries struct {
	Metric core.Metric
	Title  string
	Bars   []bar
}

type trendsView struct {
	Month      string
	Series     []trendSeries
	Insights   []core.Insight
	Comparison []core.MonthSummary
	EnoughData bool
}

var metricTitles = map[core.Metric]string{
	core.MetricSavings:  "Savings Trend",
	core.MetricExpenses: "Expenses Trend",
	core.MetricDebt:     "Debt Trend",
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	ctx := r.Context()
	view := trendsView{
		Month:      sess.Month(),
		Comparison: s.svc.Comparison(sess),
	}
	view.EnoughData = len(view.Comparison) > 1

	if view.EnoughData {
		for _, m := range core.Metrics {
			points, err := s.svc.Trend(sess, string(m))
			if err != nil {
				logFailure(ctx, "Failed to build trend", applog.OpRead, err)
				http.Error(w, userMessage(err), statusFor(err))
				return
			}
			view.Series = append(view.Series, trendSeries{Metric: m, Title: metricTitles[m], Bars: bars(points)})
		}
		a, err := s.svc.Analyze(sess)
		if err != nil {
			logFailure(ctx, "Failed to analyze month", applog.OpRead, err)
			http.Error(w, userMessage(err), statusFor(err))
			return
		}
		view.Insights = a.Insights
	}

	s.renderPage(w, r, http.StatusOK, "trends.html", pageData{
		Title:    "Historical Trends & Insights",
		Username: sess.Username,
		Active:   "trends",
		Data:     view,
	})
}

func bars(points []core.Point) []bar {
	var maxAbs float64
	for _, p := range points {
		maxAbs = math.Max(maxAbs, math.Abs(p.Value.Float64()))
	}
	out := make([]bar, 0, len(points))
	for _, p := range points {
		b := bar{Label: p.Month, Value: p.Value, Negative: p.Value.IsNegative()}
		if maxAbs > 0 {
			b.Width = int(math.Round(math.Abs(p.Value.Float64()) / maxAbs * 100))
			if b.Width == 0 && !p.Value.IsZero() {
				b.Width = 1
			}
		}
		out = append(out, b)
	}
	return out
}

type trendResponse struct {
	Metric string       `json:"metric"`
	Points []core.Point `json:"points"`
}

func (s *Server) handleTrendAPI(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = string(core.MetricSavings)
	}
	points, err := s.svc.Trend(sess, metric)
	if err != nil {
		logFailure(r.Context(), "Trend request failed", applog.OpRead, err)
		writeJSON(w, statusFor(err), map[string]string{"error": userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{Metric: metric, Points: points})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	ctx := r.Context()
	snap, err := s.svc.Export(ctx, sess)
	if err != nil {
		logFailure(ctx, "Export failed", applog.OpExport, err)
		http.Error(w, userMessage(err), statusFor(err))
		return
	}
	s.appMetrics.exports.Add(1)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, snap.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Body)
}
