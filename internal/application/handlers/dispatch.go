package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
)

// Command names one mutation operation of the tool surface.
type Command string

const (
	CommandBatchCreate Command = "graph_batch_create"
	CommandUpsert      Command = "graph_upsert"
	CommandDeduplicate Command = "graph_deduplicate"
	CommandBatchDelete Command = "graph_batch_delete"
)

// HandlerFunc decodes a raw argument payload and executes one command.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Dispatcher maps command names to handlers, keeping the mutation core
// decoupled from transport framing. Transports decode a command name plus a
// raw payload and hand both to Dispatch.
type Dispatcher struct {
	handlers map[Command]HandlerFunc
}

// NewDispatcher builds the dispatch table over a MutationHandler.
func NewDispatcher(h *MutationHandler) *Dispatcher {
	return &Dispatcher{
		handlers: map[Command]HandlerFunc{
			CommandBatchCreate: func(ctx context.Context, args json.RawMessage) (any, error) {
				var req BatchCreateRequest
				if err := decode(args, &req); err != nil {
					return nil, err
				}
				return h.HandleBatchCreate(ctx, &req)
			},
			CommandUpsert: func(ctx context.Context, args json.RawMessage) (any, error) {
				var req UpsertRequest
				if err := decode(args, &req); err != nil {
					return nil, err
				}
				return h.HandleUpsert(ctx, &req)
			},
			CommandDeduplicate: func(ctx context.Context, args json.RawMessage) (any, error) {
				var req DeduplicateRequest
				if err := decode(args, &req); err != nil {
					return nil, err
				}
				return h.HandleDeduplicate(ctx, &req)
			},
			CommandBatchDelete: func(ctx context.Context, args json.RawMessage) (any, error) {
				var req BatchDeleteRequest
				if err := decode(args, &req); err != nil {
					return nil, err
				}
				return h.HandleBatchDelete(ctx, &req)
			},
		},
	}
}

// Dispatch runs the handler registered for a command. An unknown command is a
// ValidationError, not a panic, so transports can surface it to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command, args json.RawMessage) (any, error) {
	handler, ok := d.handlers[cmd]
	if !ok {
		return nil, &entities.ValidationError{
			Field:  "command",
			Reason: fmt.Sprintf("unknown command %q", cmd),
		}
	}
	return handler(ctx, args)
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []Command {
	cmds := make([]Command, 0, len(d.handlers))
	for cmd := range d.handlers {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })
	return cmds
}

// decode unmarshals a payload, reporting malformed JSON as a ValidationError.
func decode(args json.RawMessage, into any) error {
	if err := json.Unmarshal(args, into); err != nil {
		return &entities.ValidationError{
			Field:  "arguments",
			Reason: fmt.Sprintf("malformed payload: %v", err),
		}
	}
	return nil
}
