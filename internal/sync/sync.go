// Package sync implements the batch synchronization protocol: a client
// submits an ordered batch of mutation intents, each is authorized,
// version-checked and applied independently, and accepted changes are
// fanned out to everyone else viewing the board.
package sync

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
)

type EntityType string

const (
	EntityBoard      EntityType = "board"
	EntityCard       EntityType = "card"
	EntityConnection EntityType = "connection"
	EntityShape      EntityType = "shape"
)

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Operation is one mutation intent inside a batch. Version is the
// client's last known version of the entity; it is only consulted on
// board updates (cards are last-write-wins).
type Operation struct {
	Type      EntityType      `json:"type"`
	Operation OpKind          `json:"operation"`
	ID        uuid.UUID       `json:"id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Version   *int            `json:"version,omitempty"`
}

// Conflict reports a rejected operation whose entity moved on under the
// client: the write is not applied and the client is expected to refetch.
type Conflict struct {
	ID            uuid.UUID  `json:"id"`
	Type          EntityType `json:"type"`
	ServerVersion *int       `json:"serverVersion,omitempty"`
	ClientVersion *int       `json:"clientVersion,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// OpError reports a terminally failed operation. Unlike a transport
// failure, these are not retried by the client.
type OpError struct {
	ID      uuid.UUID  `json:"id"`
	Type    EntityType `json:"type"`
	Message string     `json:"message"`
}

// Result is the per-batch outcome. Ids appear in Synced once per
// accepted operation, in submission order.
type Result struct {
	Synced    []string   `json:"synced"`
	Conflicts []Conflict `json:"conflicts"`
	Errors    []OpError  `json:"errors"`
}

func newResult() *Result {
	return &Result{
		Synced:    []string{},
		Conflicts: []Conflict{},
		Errors:    []OpError{},
	}
}

func (r *Result) synced(id uuid.UUID) {
	r.Synced = append(r.Synced, id.String())
}

func (r *Result) conflict(c Conflict) {
	r.Conflicts = append(r.Conflicts, c)
}

func (r *Result) operr(id uuid.UUID, t EntityType, msg string) {
	r.Errors = append(r.Errors, OpError{ID: id, Type: t, Message: msg})
}

// PermissionResolver answers what a user may do on a board.
// *sharing.Service satisfies it.
type PermissionResolver interface {
	Resolve(ctx context.Context, userID, boardID uuid.UUID) (domain.Permission, error)
}
