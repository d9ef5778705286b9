// Package repository implements MySQL-backed stores for users, events,
// reservations and the revoked-token ledger. Sentinel errors defined here
// let handlers distinguish expected, user-correctable outcomes from real
// database failures without string matching at the call site.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when the email is already
// claimed. Handlers translate this into an HTTP 202 with an explanatory
// message, matching the registration contract.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateEvent is returned when an owner already hosts an event with
// the same name on the same date.
var ErrDuplicateEvent = errors.New("duplicate event")

// ErrOwnRsvp is returned when a user tries to reserve a spot at their own
// event.
var ErrOwnRsvp = errors.New("cannot rsvp to own event")

// ErrAlreadyRsvped is returned when a user has already reserved a spot at
// the event.
var ErrAlreadyRsvped = errors.New("already rsvped")
