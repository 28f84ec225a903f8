package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teamdocs/notifier/pkg/alerts"
	"github.com/teamdocs/notifier/pkg/bridge"
	"github.com/teamdocs/notifier/pkg/dispatch"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/routing"
	"github.com/teamdocs/notifier/pkg/sanitizer"
	"github.com/teamdocs/notifier/pkg/schedule"
	"github.com/teamdocs/notifier/pkg/sentlog"
	"github.com/teamdocs/notifier/pkg/targets"
	"github.com/teamdocs/notifier/pkg/templates"
)

// AlertChangeType tags a live alert-change broadcast.
type AlertChangeType string

const (
	AlertCreated AlertChangeType = "created"
	AlertUpdated AlertChangeType = "updated"
	AlertDeleted AlertChangeType = "deleted"
)

type alertChangedEvent struct {
	ChangedAlert alerts.Alert    `json:"changedAlert"`
	ChangeType   AlertChangeType `json:"changeType"`
}

// Service maps the upstream operations onto the core components.
type Service struct {
	bridge     *bridge.Bridge
	dispatcher *dispatch.Dispatcher
	sweeper    *schedule.Sweeper
	events     schedule.Repository
	targets    targets.Repository
	templates  templates.Repository
	sent       sentlog.Repository
	alerts     alerts.Repository
	items      dispatch.ItemDirectory
	admin      bridge.AdminChecker
	log        *slog.Logger
	now        func() time.Time
}

// Connect hands a live connection to the bridge and returns its id.
func (s *Service) Connect(ctx context.Context, conn bridge.Conn, userID string) string {
	return s.bridge.Connect(ctx, conn, userID)
}

// HandleMessage routes one inbound connection frame.
func (s *Service) HandleMessage(ctx context.Context, connID string, raw []byte) error {
	return s.bridge.HandleMessage(ctx, connID, raw)
}

// Disconnect drops a live connection.
func (s *Service) Disconnect(connID string) {
	s.bridge.Disconnect(connID)
}

// SendNotification dispatches now, or schedules when sendAt is set.
func (s *Service) SendNotification(ctx context.Context, n notification.Notification, sendAt *time.Time) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if sendAt != nil {
		_, err := s.events.Insert(ctx, schedule.Event{
			ID:           uuid.NewString(),
			AccountID:    n.AccountID,
			Kind:         n.Kind,
			SendAt:       *sendAt,
			Created:      s.now(),
			Notification: n,
		})
		return err
	}
	return s.dispatcher.Dispatch(ctx, n)
}

// SendCustomNotification builds and sends (or schedules) a custom
// notification with an explicit target list.
func (s *Service) SendCustomNotification(ctx context.Context, accountID, itemID string, simpleTargets []notification.SimpleTarget, subject, text string, sendAt *time.Time, actorID string) (notification.Notification, error) {
	n := notification.Notification{
		AccountID: accountID,
		Kind:      notification.KindCustom,
		ItemID:    itemID,
		ActorID:   actorID,
		Targets:   simpleTargets,
		Subject:   subject,
		Text:      sanitizer.MessageHTML(text),
	}
	if err := s.SendNotification(ctx, n, sendAt); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

// SendPublishRequestNotification notifies the approvers of an item that
// a publish was requested.
func (s *Service) SendPublishRequestNotification(ctx context.Context, accountID, itemID, actorID string) error {
	if actorID == "" {
		return fmt.Errorf("notifier: publish request for account %s requires an actor", accountID)
	}
	return s.SendNotification(ctx, notification.Notification{
		AccountID: accountID,
		Kind:      notification.KindPublishRequest,
		ItemID:    itemID,
		ActorID:   actorID,
	}, nil)
}

// FindScheduledNotifications lists pending scheduled events for an item.
func (s *Service) FindScheduledNotifications(ctx context.Context, accountID, itemID string, kind notification.Kind) ([]schedule.Event, error) {
	return s.events.Find(ctx, schedule.Filter{AccountID: accountID, ItemID: itemID, Kind: kind})
}

// UpdateScheduledNotification replaces a pending event's notification and
// send time. A missing event yields schedule.ErrEventNotFound, a claimed
// one schedule.ErrEventClaimed.
func (s *Service) UpdateScheduledNotification(ctx context.Context, eventID string, n notification.Notification, sendAt time.Time) error {
	if err := n.Validate(); err != nil {
		return err
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.ClaimedAt != nil {
		return schedule.ErrEventClaimed
	}
	return s.events.Put(ctx, schedule.Event{
		ID:           eventID,
		AccountID:    n.AccountID,
		Kind:         n.Kind,
		SendAt:       sendAt,
		Created:      event.Created,
		Notification: n,
	})
}

// RunScheduledEvents performs one sweep of the scheduled dispatch queue.
func (s *Service) RunScheduledEvents(ctx context.Context) error {
	return s.sweeper.Run(ctx)
}

// AddNotificationTarget registers a durable notification target.
func (s *Service) AddNotificationTarget(ctx context.Context, target targets.Target) (targets.Target, error) {
	return s.targets.Insert(ctx, target)
}

// FindNotificationTargets lists an account's targets, optionally narrowed
// by kind and item ids.
func (s *Service) FindNotificationTargets(ctx context.Context, accountID string, kind notification.Kind, itemIDs []string) ([]targets.Target, error) {
	return s.targets.FindForAccount(ctx, accountID, targets.Filter{Kind: kind, ItemIDs: itemIDs})
}

// DeleteNotificationTarget removes one registration.
func (s *Service) DeleteNotificationTarget(ctx context.Context, accountID, targetID string, kind notification.Kind, itemID *string) error {
	return s.targets.Delete(ctx, accountID, targetID, kind, itemID)
}

// DeleteNotificationTargets removes every registration of a target id,
// used when a user or group is deleted.
func (s *Service) DeleteNotificationTargets(ctx context.Context, targetID, accountID string) error {
	return s.targets.DeleteAllForTarget(ctx, targetID, accountID)
}

// AddNotificationTemplate saves a reusable template.
func (s *Service) AddNotificationTemplate(ctx context.Context, template templates.Template) (templates.Template, error) {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	return s.templates.Insert(ctx, template)
}

// GetNotificationTemplates lists an account's templates.
func (s *Service) GetNotificationTemplates(ctx context.Context, accountID string) ([]templates.Template, error) {
	return s.templates.AllForAccount(ctx, accountID)
}

// DeleteNotificationTemplate removes one template.
func (s *Service) DeleteNotificationTemplate(ctx context.Context, templateID string) error {
	return s.templates.Delete(ctx, templateID)
}

// FindSentNotifications reads the audit log for an item and all of its
// descendants.
func (s *Service) FindSentNotifications(ctx context.Context, accountID, itemID string) ([]sentlog.Record, error) {
	ids, err := s.items.Descendants(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.sent.Find(ctx, accountID, ids)
}

// DeleteAllForAccount wipes everything the account owns, for account
// deletion.
func (s *Service) DeleteAllForAccount(ctx context.Context, accountID string) error {
	if err := s.targets.DeleteAllForAccount(ctx, accountID); err != nil {
		return err
	}
	if err := s.events.DeleteAllForAccount(ctx, accountID); err != nil {
		return err
	}
	if err := s.templates.DeleteAllForAccount(ctx, accountID); err != nil {
		return err
	}
	return s.sent.DeleteAllForAccount(ctx, accountID)
}

// CreateAlert stores an alert and broadcasts the change when the alert is
// active or starts soon.
func (s *Service) CreateAlert(ctx context.Context, alert alerts.Alert) (alerts.Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	created, err := s.alerts.Insert(ctx, alert)
	if err != nil {
		return alerts.Alert{}, err
	}
	if created.ActiveOrSoon(s.now()) {
		s.notifyAlertChanges(ctx, created.AccountIDs, created, AlertCreated)
	}
	return created, nil
}

// UpdateAlert replaces an alert. Accounts removed by the update are still
// notified so their clients drop the stale banner.
func (s *Service) UpdateAlert(ctx context.Context, alert alerts.Alert) (alerts.Alert, error) {
	previous, err := s.alerts.Get(ctx, alert.ID)
	if err != nil {
		return alerts.Alert{}, err
	}
	updated, err := s.alerts.Put(ctx, alert)
	if err != nil {
		return alerts.Alert{}, err
	}
	now := s.now()
	if previous.ActiveOrSoon(now) || updated.ActiveOrSoon(now) {
		s.notifyAlertChanges(ctx, unionIDs(previous.AccountIDs, updated.AccountIDs), updated, AlertUpdated)
	}
	return updated, nil
}

// DeleteAlert removes an alert, broadcasting the deletion when it was
// still visible.
func (s *Service) DeleteAlert(ctx context.Context, alertID string) error {
	alert, err := s.alerts.Get(ctx, alertID)
	if err != nil {
		return err
	}
	if err := s.alerts.Delete(ctx, alertID); err != nil {
		return err
	}
	if alert.ActiveOrSoon(s.now()) {
		s.notifyAlertChanges(ctx, alert.AccountIDs, alert, AlertDeleted)
	}
	return nil
}

// GetAlert reads one alert.
func (s *Service) GetAlert(ctx context.Context, alertID string) (alerts.Alert, error) {
	return s.alerts.Get(ctx, alertID)
}

// FindActiveAlerts lists the alerts visible to a user of the account now.
// Admins-only alerts are filtered out unless the user is an account admin.
func (s *Service) FindActiveAlerts(ctx context.Context, accountID, userID string) ([]alerts.Alert, error) {
	active, err := s.alerts.ActiveForAccount(ctx, accountID, s.now())
	if err != nil {
		return nil, err
	}
	restricted := false
	for _, a := range active {
		if a.AdminsOnly {
			restricted = true
			break
		}
	}
	if !restricted {
		return active, nil
	}
	isAdmin, err := s.admin(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return active, nil
	}
	visible := active[:0]
	for _, a := range active {
		if !a.AdminsOnly {
			visible = append(visible, a)
		}
	}
	return visible, nil
}

// FindAllAlerts lists every alert, for the management surface.
func (s *Service) FindAllAlerts(ctx context.Context) ([]alerts.Alert, error) {
	return s.alerts.All(ctx)
}

// notifyAlertChanges broadcasts an alert change on each affected account
// scope; an empty account list addresses everyone.
func (s *Service) notifyAlertChanges(ctx context.Context, accountIDs []string, alert alerts.Alert, change AlertChangeType) {
	keys := []routing.Key{routing.AllKey()}
	if len(accountIDs) > 0 {
		keys = keys[:0]
		for _, id := range accountIDs {
			keys = append(keys, routing.AccountKey(id))
		}
	}
	sn, err := notification.NewServiceNotification(notification.TypeAlertChange, alertChangedEvent{
		ChangedAlert: alert,
		ChangeType:   change,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "alert change encoding failed", logger.Error(err))
		return
	}
	sn.AdminsOnly = alert.AdminsOnly
	for _, key := range keys {
		if err := s.bridge.Dispatch(ctx, notification.Event{RoutingKey: key, Body: sn}); err != nil {
			s.log.ErrorContext(ctx, "alert change broadcast failed",
				logger.Error(err), logger.Channel(key.Channel()))
		}
	}
}

func unionIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, id := range append(append([]string{}, a...), b...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
