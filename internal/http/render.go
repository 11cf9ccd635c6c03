package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
)

// pageData is passed to every full-page template.
type pageData struct {
	Title    string
	Username string
	Active   string // nav tab
	Notice   string
	Error    string
	Data     any
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format() },
		"plain": func(m core.Money) string { return m.String() },
		"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"negative": func(m core.Money) bool {
			return m.IsNegative()
		},
	}
}

// renderTemplate executes name into a buffer so a template error never leaves
// a half-written page behind.
func (s *Server) renderTemplate(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			"template", name,
			applog.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	body, err := s.renderTemplate(r.Context(), name, data)
	if err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contextWithLogger(ctx context.Context, logger *applog.Logger) context.Context {
	return context.WithValue(ctx, applog.LoggerContextKey, logger)
}

// logFailure records errors the user cannot fix; domain errors are expected
// and stay at debug level.
func logFailure(ctx context.Context, msg string, op string, err error) {
	logger := applog.FromContext(ctx)
	if statusFor(err) >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, msg,
			applog.FieldOperation, op,
			applog.FieldError, err)
		return
	}
	logger.DebugContext(ctx, msg,
		applog.FieldOperation, op,
		applog.FieldError, err)
}
