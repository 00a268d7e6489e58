// Package usage accumulates token counts and cost into sessions.
//
// The Tracker adds every endpoint response's usage to the session's
// lifetime totals and persists the session immediately, so totals
// survive a crash between turns.
package usage
