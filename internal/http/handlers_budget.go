package http

import (
	"fmt"
	"net/http"
	"net/url"

	applog "budget/internal/log"
	"budget/internal/services"
)

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	if month := ParseMonthParam(r.URL.Query(), ""); month != "" {
		if err := s.svc.SelectMonth(sess, month); err != nil {
			s.renderBudgetPage(w, r, sess, statusFor(err), "", userMessage(err))
			return
		}
	}
	s.renderBudgetPage(w, r, sess, http.StatusOK, "", "")
}

func (s *Server) renderBudgetPage(w http.ResponseWriter, r *http.Request, sess *services.Session, status int, notice, errMsg string) {
	view, err := s.svc.Budget(sess)
	if err != nil {
		logFailure(r.Context(), "Failed to build budget view", applog.OpRead, err)
		http.Error(w, userMessage(err), statusFor(err))
		return
	}
	s.renderPage(w, r, status, "budget.html", pageData{
		Title:    "Budget for " + view.Month,
		Username: sess.Username,
		Active:   "budget",
		Notice:   notice,
		Error:    errMsg,
		Data:     view,
	})
}

// editFunc applies one change to the session's working copy and returns the
// confirmation shown to the user.
type editFunc func(p *RequestBodyParser) (string, error)

// handleEdit runs fn against the month named in the form (or the selected
// month). htmx requests get the refreshed budget panel; plain form posts are
// redirected back to the budget page.
func (s *Server) handleEdit(op string, sess *services.Session, w http.ResponseWriter, r *http.Request, fn editFunc) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.editFailed(w, r, sess, http.StatusBadRequest, "Invalid request format")
		return
	}

	if month := p.Get("month"); month != "" {
		if err := s.svc.SelectMonth(sess, month); err != nil {
			s.editFailed(w, r, sess, statusFor(err), userMessage(err))
			return
		}
	}

	msg, err := fn(p)
	if err != nil {
		logFailure(ctx, "Budget edit failed", op, err)
		s.editFailed(w, r, sess, statusFor(err), userMessage(err))
		return
	}

	applog.FromContext(ctx).DebugContext(ctx, "Budget edited",
		applog.FieldOperation, op,
		applog.FieldMonth, sess.Month())

	if !isHTMX(r) {
		http.Redirect(w, r, "/budget?month="+url.QueryEscape(sess.Month()), http.StatusSeeOther)
		return
	}

	view, err := s.svc.Budget(sess)
	if err != nil {
		logFailure(ctx, "Failed to build budget view", op, err)
		ErrorResponse(statusFor(err), userMessage(err)).Write(w)
		return
	}
	body, err := s.renderTemplate(ctx, "budget_panel", view)
	if err != nil {
		InternalServerError("Something went wrong. Please try again.").Write(w)
		return
	}

	resp := NewHTMXResponse().
		TriggerBudgetChanged(view.Month, view.Dirty).
		BodyHTML(string(body))
	if msg != "" {
		resp.TriggerSuccessNotification(msg)
	}
	resp.Write(w)
}

func (s *Server) editFailed(w http.ResponseWriter, r *http.Request, sess *services.Session, status int, msg string) {
	if isHTMX(r) {
		ErrorResponse(status, msg).Write(w)
		return
	}
	s.renderBudgetPage(w, r, sess, status, "", msg)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpUpdate, sess, w, r, func(p *RequestBodyParser) (string, error) {
		amount, err := ParseAmountField(p.Get("amount"))
		if err != nil {
			return "", err
		}
		return "Income updated", s.svc.SetIncome(sess, amount)
	})
}

func (s *Server) handleSetDebt(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpUpdate, sess, w, r, func(p *RequestBodyParser) (string, error) {
		amount, err := ParseAmountField(p.Get("amount"))
		if err != nil {
			return "", err
		}
		return "Debt updated", s.svc.SetDebt(sess, amount)
	})
}

func (s *Server) handleSetExpense(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpUpdate, sess, w, r, func(p *RequestBodyParser) (string, error) {
		amount, err := ParseAmountField(p.Get("amount"))
		if err != nil {
			return "", err
		}
		category := p.Get("category")
		return fmt.Sprintf("%s updated", category), s.svc.SetExpense(sess, category, amount)
	})
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpUpdate, sess, w, r, func(p *RequestBodyParser) (string, error) {
		category := p.Get("category")
		total, err := s.svc.QuickAdd(sess, category, p.Get("expression"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now %s", category, total.Format()), nil
	})
}

func (s *Server) handleAddOneTime(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpCreate, sess, w, r, func(p *RequestBodyParser) (string, error) {
		name := p.Get("name")
		total, err := s.svc.AddOneTimeExpense(sess, name, p.Get("amount"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %s: %s", name, total.Format()), nil
	})
}

func (s *Server) handleRemoveOneTime(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpDelete, sess, w, r, func(p *RequestBodyParser) (string, error) {
		name := p.Get("name")
		if err := s.svc.RemoveOneTimeExpense(sess, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed %s", name), nil
	})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpCreate, sess, w, r, func(p *RequestBodyParser) (string, error) {
		name := p.Get("name")
		if err := s.svc.AddCategory(sess, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Added category: %s", name), nil
	})
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.handleEdit(applog.OpDelete, sess, w, r, func(p *RequestBodyParser) (string, error) {
		name := p.Get("name")
		if err := s.svc.RemoveCategory(sess, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed category: %s", name), nil
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	ctx := r.Context()
	if err := s.svc.Save(ctx, sess); err != nil {
		logFailure(ctx, "Failed to save budget", applog.OpSave, err)
		s.editFailed(w, r, sess, statusFor(err), userMessage(err))
		return
	}
	s.appMetrics.saves.Add(1)
	s.afterPersist(w, r, sess, fmt.Sprintf("Data saved for %s!", sess.Month()), true)
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	ctx := r.Context()
	if err := s.svc.Revert(ctx, sess); err != nil {
		logFailure(ctx, "Failed to revert budget", applog.OpRevert, err)
		s.editFailed(w, r, sess, statusFor(err), userMessage(err))
		return
	}
	s.afterPersist(w, r, sess, "Unsaved changes discarded", false)
}

func (s *Server) afterPersist(w http.ResponseWriter, r *http.Request, sess *services.Session, msg string, saved bool) {
	if !isHTMX(r) {
		s.renderBudgetPage(w, r, sess, http.StatusOK, msg, "")
		return
	}
	view, err := s.svc.Budget(sess)
	if err != nil {
		ErrorResponse(statusFor(err), userMessage(err)).Write(w)
		return
	}
	body, err := s.renderTemplate(r.Context(), "budget_panel", view)
	if err != nil {
		InternalServerError("Something went wrong. Please try again.").Write(w)
		return
	}
	resp := NewHTMXResponse().
		TriggerBudgetChanged(view.Month, view.Dirty).
		TriggerSuccessNotification(msg).
		BodyHTML(string(body))
	if saved {
		resp.TriggerBudgetSaved(view.Month)
	}
	resp.Write(w)
}
