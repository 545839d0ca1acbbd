package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/happycapy/capy-community-backend/internal/types"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData carries the resolved caller identity for one request.
type RequestData struct {
	UserID uuid.UUID
	User   *types.User
}
