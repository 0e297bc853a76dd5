// Package middleware provides net/http middleware for session loading.
//
// The Session middleware extracts the token from the configured sources
// (cookie, header, bearer), loads and verifies the session, and attaches
// it to the request context. On any session error it attaches nothing and
// lets the request continue, so downstream authentication can translate
// absence into 401; RequireSession does exactly that for JSON APIs.
package middleware
