// Package cluster groups subjects for aggregate availability queries. It
// carries no admission logic of its own.
package cluster

import "github.com/google/uuid"

type Cluster struct {
	id      uuid.UUID
	name    string
	ownerID *uuid.UUID
}

func New(name string, ownerID *uuid.UUID) *Cluster {
	return &Cluster{id: uuid.New(), name: name, ownerID: ownerID}
}

func Reconstruct(id uuid.UUID, name string, ownerID *uuid.UUID) *Cluster {
	return &Cluster{id: id, name: name, ownerID: ownerID}
}

func (c *Cluster) ID() uuid.UUID       { return c.id }
func (c *Cluster) Name() string        { return c.name }
func (c *Cluster) OwnerID() *uuid.UUID { return c.ownerID }
