package server

import (
	"context"

	"github.com/goccy/date-detector/types"
)

type (
	serverKey    struct{}
	catalogKey   struct{}
	requestIDKey struct{}
)

func withServer(ctx context.Context, server *Server) context.Context {
	return context.WithValue(ctx, serverKey{}, server)
}

func serverFromContext(ctx context.Context) *Server {
	return ctx.Value(serverKey{}).(*Server)
}

func withCatalog(ctx context.Context, catalog *types.Catalog) context.Context {
	return context.WithValue(ctx, catalogKey{}, catalog)
}

// catalogFromContext returns nil when the request does not address an existing catalog.
func catalogFromContext(ctx context.Context) *types.Catalog {
	catalog, _ := ctx.Value(catalogKey{}).(*types.Catalog)
	return catalog
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
