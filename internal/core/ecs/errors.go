package ecs

import (
	"errors"
	"fmt"
)

// Base error classes. Every failure returned by this package matches one of
// them with errors.Is.
var (
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrUnsupportedDuplicate = errors.New("duplicates are not supported for this component kind")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Entity and component errors

var (
	ErrComponentNotFound = fmt.Errorf("%w: component does not exist on this entity", ErrInvalidOperation)
	ErrDuplicateRemoval  = fmt.Errorf("%w: component already queued for removal", ErrInvalidOperation)
	ErrDuplicateKind     = fmt.Errorf("%w: component kind already present", ErrInvalidOperation)
	ErrNilComponent      = fmt.Errorf("%w: nil component", ErrInvalidArgument)
	ErrKindChanged       = fmt.Errorf("%w: update must return the same component kind", ErrInvalidOperation)
)

// Engine and system errors

var (
	ErrEntityExists        = fmt.Errorf("%w: entity already in the engine", ErrInvalidOperation)
	ErrEntityQueued        = fmt.Errorf("%w: entity already queued for creation", ErrInvalidOperation)
	ErrEntityNotFound      = fmt.Errorf("%w: entity does not exist in the engine", ErrInvalidOperation)
	ErrEntityNotCreated    = fmt.Errorf("%w: entity is queued for creation but not yet created", ErrInvalidOperation)
	ErrEntityDeleteQueued  = fmt.Errorf("%w: entity already queued for deletion", ErrInvalidOperation)
	ErrUnbound             = fmt.Errorf("%w: system is not bound to an entity pool", ErrInvalidOperation)
	ErrNilEntity           = fmt.Errorf("%w: nil entity", ErrInvalidArgument)
	ErrNilSystem           = fmt.Errorf("%w: nil system", ErrInvalidArgument)
	ErrMismatchedQueueNode = fmt.Errorf("%w: queue node linked to a different kind", ErrUnsupportedOperation)
)
