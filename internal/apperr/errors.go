package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrStaleStatus is returned when a transition lost a race: the row no longer
// has the status the transition was validated against.
var ErrStaleStatus = errors.New("entity status changed concurrently")

// InvalidTransitionError reports an edge that is not in the status graph.
type InvalidTransitionError struct {
	Kind string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Kind, e.From, e.To)
}

// ForbiddenError reports an authenticated actor acting outside its scope.
type ForbiddenError struct {
	ActorID   uuid.UUID
	Resource  string
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("forbidden: %s on %s", e.Operation, e.Resource)
	}
	return fmt.Sprintf("forbidden: %s on %s: %s", e.Operation, e.Resource, e.Reason)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError marks malformed configuration or missing relationship data.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// IntegrityError marks stored data that contradicts itself, such as an audit
// trail that disagrees with the row it describes.
type IntegrityError struct {
	Entity string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation: %s: %s", e.Entity, e.Reason)
}

func InvalidTransition(kind, from, to string) error {
	return &InvalidTransitionError{Kind: kind, From: from, To: to}
}

func Forbidden(actorID uuid.UUID, resource, operation, reason string) error {
	return &ForbiddenError{ActorID: actorID, Resource: resource, Operation: operation, Reason: reason}
}

func NotFound(resource string, id uuid.UUID) error {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Integrity(entity, reason string) error {
	return &IntegrityError{Entity: entity, Reason: reason}
}

func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsIntegrity(err error) bool {
	var e *IntegrityError
	return errors.As(err, &e)
}
