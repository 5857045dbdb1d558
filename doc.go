// Package session provides the client-side session lifecycle for a banking
// portal: who is signed in, when an idle session is silently expired, and how
// administrative account actions taken out of band (bans, suspensions,
// verification holds) are reconciled against a live session.
//
// Session lifecycle:
//   - Store owns the single live Session/User pair and the primitive
//     operations (SignIn, SignUp, SignOut, ResetPassword). It is the only
//     component allowed to initiate a sign-out.
//   - IdleMonitor is a small state machine (armed, warning, expired) driven
//     by throttled activity events. Expiry triggers exactly one forced
//     sign-out through the Store.
//   - Reconciler polls the authoritative account-status endpoint and listens
//     on a change feed. Hard blocks (banned, suspended, closed) end the
//     session; a verification hold only raises a non-blocking advisory.
//
// Audit sinks:
//   - AuditSink is a light-weight audit emitter used by the Store for login,
//     logout, and password reset events. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking the
//     primitive operations. A Bun-backed sink lives in repo_audit.go.
//
// Navigation:
//   - TransitionRouter decides where the client router goes after signed-in
//     and signed-out events, including the path-exclusion and enrollment-flow
//     heuristics and the blocked/reason query parameters the sign-in screen
//     uses to explain a forced logout.
package session
