// Package alerts stores account alerts: banner-style messages shown to the
// users of one or more accounts between an optional start and end date.
// Alerts flagged admins-only are filtered out for non-admin readers by the
// service layer.
package alerts
