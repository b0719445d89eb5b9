// Package entitlement is the heart of the monetization model: it resolves
// what an authenticated user may do right now (pro status, plan type,
// monthly usage versus limits, effective boosts) and records the tracked
// actions that consume free-tier quota.
//
// The resolver is read-only and deterministic given the stores' contents;
// all state transitions happen elsewhere (usage writes here via RecordUsage,
// subscription and boost transitions in the billing webhook processor).
package entitlement
