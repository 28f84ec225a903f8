package alerts

import (
	"context"
	"errors"
	"time"
)

var ErrAlertNotFound = errors.New("alerts: alert not found")

// Alert is a dated announcement targeting a set of accounts.
// An empty AccountIDs list addresses every account.
type Alert struct {
	ID            string     `bson:"alertId" json:"alertId"`
	Message       string     `bson:"message" json:"message"`
	AdminsOnly    bool       `bson:"adminsOnly" json:"adminsOnly"`
	CooldownHours int        `bson:"cooldownHours" json:"cooldownHours"`
	StartDate     *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	AccountIDs    []string   `bson:"accountIds" json:"accountIds"`
	ButtonText    string     `bson:"buttonText,omitempty" json:"buttonText,omitempty"`
	ButtonLink    string     `bson:"buttonLink,omitempty" json:"buttonLink,omitempty"`
}

// ActiveAt reports whether the alert should be visible at the given
// moment: the start date has passed (or is unset) and the end date has
// not (or is unset).
func (a Alert) ActiveAt(now time.Time) bool {
	if a.StartDate != nil && now.Before(*a.StartDate) {
		return false
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return false
	}
	return true
}

// ActiveOrSoon reports whether the alert is active or starts within the
// next three hours. Live change notifications are only broadcast for
// alerts in this window.
func (a Alert) ActiveOrSoon(now time.Time) bool {
	if a.StartDate != nil && a.StartDate.After(now) && a.StartDate.Sub(now) > 3*time.Hour {
		return false
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return false
	}
	return true
}

// Repository stores alerts.
type Repository interface {
	Insert(ctx context.Context, alert Alert) (Alert, error)
	// Put replaces the stored alert with the same ID.
	Put(ctx context.Context, alert Alert) (Alert, error)
	Get(ctx context.Context, alertID string) (Alert, error)
	Delete(ctx context.Context, alertID string) error
	// ActiveForAccount returns alerts visible to the account at the given
	// moment, including alerts with an empty account list.
	ActiveForAccount(ctx context.Context, accountID string, now time.Time) ([]Alert, error)
	All(ctx context.Context) ([]Alert, error)
}
