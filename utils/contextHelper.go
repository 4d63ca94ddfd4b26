package utils

import (
	"context"

	"github.com/zayar/starsync_backend/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyFamilyId      = appctx.ContextKeyFamilyId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetFamilyIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyFamilyId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetFamilyIdInContext(ctx context.Context, familyId string) context.Context {
	return appctx.Set(ctx, ContextKeyFamilyId, familyId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
