package ecs

// EntityPool is the entity set a System is bound to. Creations and deletions
// are deferred until the next Update.
type EntityPool interface {
	Has(e *Entity) bool

	QueueCreate(e *Entity) error
	QueueCreateMany(entities ...*Entity) error
	QueueDelete(e *Entity) error
	QueueDeleteMany(entities ...*Entity) error

	Update() error
}
