// Package api exposes the entitlement and billing services over HTTP:
// a small JSON API for the web client plus the payment provider webhook.
package api
