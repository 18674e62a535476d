// Package domain defines the betting-market entity model, the operation
// catalogue, chain parameters, and the error and event vocabulary shared by
// the deterministic core and the node layer. It has no dependencies on
// storage or transport.
package domain

// Object is implemented by every persistent chain entity. Clone must return
// a deep copy; the object store hands out and accepts copies only, so
// evaluators never hold live references across mutations.
type Object interface {
	ObjectID() ObjectID
	Clone() Object
}
