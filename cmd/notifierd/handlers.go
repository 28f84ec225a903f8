package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teamdocs/notifier/pkg/alerts"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/notifier"
	"github.com/teamdocs/notifier/pkg/requestid"
	"github.com/teamdocs/notifier/pkg/schedule"
	"github.com/teamdocs/notifier/pkg/targets"
	"github.com/teamdocs/notifier/pkg/templates"
)

type api struct {
	svc *notifier.Service
	log *slog.Logger
}

func newRouter(a *api, connect http.HandlerFunc, health, ready http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	r.Get("/health", health)
	r.Get("/ready", ready)
	r.Get("/connect", connect)

	r.Route("/notifications", func(r chi.Router) {
		r.Post("/send", a.sendNotification)
		r.Post("/custom", a.sendCustomNotification)
		r.Post("/publish-request", a.sendPublishRequest)
	})

	r.Route("/scheduled", func(r chi.Router) {
		r.Get("/", a.findScheduled)
		r.Put("/{id}", a.updateScheduled)
		r.Post("/run", a.runScheduled)
	})

	r.Route("/targets", func(r chi.Router) {
		r.Post("/", a.addTarget)
		r.Get("/", a.findTargets)
		r.Delete("/", a.deleteTarget)
		r.Delete("/{targetID}", a.deleteTargets)
	})

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", a.addTemplate)
		r.Get("/", a.getTemplates)
		r.Delete("/{id}", a.deleteTemplate)
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", a.findAllAlerts)
		r.Post("/", a.createAlert)
		r.Get("/active", a.findActiveAlerts)
		r.Get("/{id}", a.getAlert)
		r.Put("/{id}", a.updateAlert)
		r.Delete("/{id}", a.deleteAlert)
	})

	r.Get("/sent", a.findSent)
	r.Delete("/account/{accountID}", a.deleteAccount)

	return r
}

func (a *api) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrEventNotFound),
		errors.Is(err, targets.ErrTargetNotFound),
		errors.Is(err, templates.ErrTemplateNotFound),
		errors.Is(err, alerts.ErrAlertNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schedule.ErrEventClaimed):
		status = http.StatusConflict
	case errors.Is(err, notification.ErrUnknownKind):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.log.ErrorContext(r.Context(), "request failed", logger.Error(err),
			slog.String("path", r.URL.Path),
			slog.String("requestId", requestid.FromContext(r.Context())))
	}
	a.respond(w, status, map[string]string{"error": err.Error()})
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (a *api) sendNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notification notification.Notification `json:"notification"`
		SendAt       *time.Time                `json:"sendAt,omitempty"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.svc.SendNotification(r.Context(), req.Notification, req.SendAt); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusAccepted, nil)
}

func (a *api) sendCustomNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string                      `json:"accountId"`
		ItemID    string                      `json:"itemId"`
		Targets   []notification.SimpleTarget `json:"targets"`
		Subject   string                      `json:"subject"`
		Text      string                      `json:"text"`
		SendAt    *time.Time                  `json:"sendAt,omitempty"`
		ActorID   string                      `json:"actorId,omitempty"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	n, err := a.svc.SendCustomNotification(r.Context(), req.AccountID, req.ItemID, req.Targets, req.Subject, req.Text, req.SendAt, req.ActorID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusAccepted, n)
}

func (a *api) sendPublishRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"accountId"`
		ItemID    string `json:"itemId"`
		ActorID   string `json:"actorId"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.svc.SendPublishRequestNotification(r.Context(), req.AccountID, req.ItemID, req.ActorID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusAccepted, nil)
}

func (a *api) findScheduled(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := a.svc.FindScheduledNotifications(r.Context(), q.Get("accountId"), q.Get("itemId"), notification.Kind(q.Get("kind")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, events)
}

func (a *api) updateScheduled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notification notification.Notification `json:"notification"`
		SendAt       time.Time                 `json:"sendAt"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.svc.UpdateScheduledNotification(r.Context(), chi.URLParam(r, "id"), req.Notification, req.SendAt); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}

func (a *api) runScheduled(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.RunScheduledEvents(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}

func (a *api) addTarget(w http.ResponseWriter, r *http.Request) {
	var target targets.Target
	if !a.decode(w, r, &target) {
		return
	}
	created, err := a.svc.AddNotificationTarget(r.Context(), target)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusCreated, created)
}

func (a *api) findTargets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	found, err := a.svc.FindNotificationTargets(r.Context(), q.Get("accountId"), notification.Kind(q.Get("kind")), q["itemId"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, found)
}

func (a *api) deleteTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string            `json:"accountId"`
		TargetID  string            `json:"targetId"`
		Kind      notification.Kind `json:"notificationKind"`
		ItemID    *string           `json:"itemId,omitempty"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.svc.DeleteNotificationTarget(r.Context(), req.AccountID, req.TargetID, req.Kind, req.ItemID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}

func (a *api) deleteTargets(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteNotificationTargets(r.Context(), chi.URLParam(r, "targetID"), r.URL.Query().Get("accountId")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}

func (a *api) addTemplate(w http.ResponseWriter, r *http.Request) {
	var template templates.Template
	if !a.decode(w, r, &template) {
		return
	}
	created, err := a.svc.AddNotificationTemplate(r.Context(), template)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusCreated, created)
}

func (a *api) getTemplates(w http.ResponseWriter, r *http.Request) {
	found, err := a.svc.GetNotificationTemplates(r.Context(), r.URL.Query().Get("accountId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, found)
}

func (a *api) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteNotificationTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}

func (a *api) createAlert(w http.ResponseWriter, r *http.Request) {
	var alert alerts.Alert
	if !a.decode(w, r, &alert) {
		return
	}
	created, err := a.svc.CreateAlert(r.Context(), alert)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusCreated, created)
}

func (a *api) updateAlert(w http.ResponseWriter, r *http.Request) {
	var alert alerts.Alert
	if !a.decode(w, r, &alert) {
		return
	}
	alert.ID = chi.URLParam(r, "id")
	updated, err := a.svc.UpdateAlert(r.Context(), alert)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, updated)
}

func (a *api) deleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteAlert(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}

func (a *api) getAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := a.svc.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, alert)
}

func (a *api) findActiveAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := a.svc.FindActiveAlerts(r.Context(), q.Get("accountId"), q.Get("userId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, active)
}

func (a *api) findAllAlerts(w http.ResponseWriter, r *http.Request) {
	all, err := a.svc.FindAllAlerts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, all)
}

func (a *api) findSent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := a.svc.FindSentNotifications(r.Context(), q.Get("accountId"), q.Get("itemId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, records)
}

func (a *api) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteAllForAccount(r.Context(), chi.URLParam(r, "accountID")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusNoContent, nil)
}
