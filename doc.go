// Package membership provides the user status and permission layer for a
// community publishing platform: status derivation, permission policies,
// expert applications, and admin moderation actions backed by Bun.
//
// User lifecycle:
//   - A user's status is derived from two persisted flags. Verifying the
//     registration email moves an account from pending to approved, and an
//     admin granting verified membership moves it from approved to verified.
//     DeriveStatus is the single place that combination lives.
//   - UserStateMachine centralizes the transition graph, flag handling, hooks,
//     and persistence. Invoke Transition with ActorRef metadata whenever an
//     admin moves an account; verified is terminal unless forced.
//
// Permission policy:
//   - The CanCreatePost / CanModerate / CanApplyForExpert predicates are pure
//     functions over a loaded *User so templates and handlers share one
//     source of truth. BadgeFor maps the same state to a display badge.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the state machine,
//     the application workflow, and the moderation service to describe status,
//     role, and content decisions. Sinks run best-effort (errors are logged)
//     so you can forward to a database or queue without blocking moderation.
package membership
