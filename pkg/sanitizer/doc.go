// Package sanitizer normalizes user-supplied booking and profile input before validation
// and storage.
//
// All functions are idempotent. Invalid input is reported by returning an empty string
// rather than an error; callers decide whether an empty result is acceptable.
package sanitizer
