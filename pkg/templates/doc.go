// Package templates stores reusable notification templates: named partial
// custom notifications an account can send repeatedly, optionally carrying a
// preferred schedule date and time.
package templates
