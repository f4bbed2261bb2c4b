// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package flow

import "context"

type actorKey struct{}

// WithActor tags ctx with the party running a flow step ("cli", "api", ...).
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor set by WithActor, or "system".
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "system"
}
