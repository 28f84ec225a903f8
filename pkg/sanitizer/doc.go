// Package sanitizer cleans user-authored notification text before it is
// stored or mailed: script tags, javascript handlers and control characters
// are stripped, overly long input is truncated. Transforms compose with
// Apply and Compose.
package sanitizer
