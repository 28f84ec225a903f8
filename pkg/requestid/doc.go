// Package requestid assigns every HTTP request an id, taken from the
// X-Request-ID header when a well-formed one is supplied and generated
// otherwise. The id is echoed on the response and carried in the request
// context for log correlation.
package requestid
