package ports

import (
	"context"
	"encoding/json"
)

type Endpoint string

const (
	EndpointLogin        Endpoint = "friendly/growth-paas/third-party/access/accessToken"
	EndpointUserInfo     Endpoint = "friendly/growth-paas/mini-app-activity/third-party/user/user-info"
	EndpointTaskList     Endpoint = "friendly/growth-paas/mini-app-activity/third-party/task/list"
	EndpointTaskComplete Endpoint = "friendly/growth-paas/mini-app-activity/third-party/task/complete"
	EndpointGameStart    Endpoint = "friendly/growth-paas/mini-app-activity/third-party/game/start"
	EndpointGameComplete Endpoint = "friendly/growth-paas/mini-app-activity/third-party/game/complete"
)

const SuccessCode = "000000"

// Envelope is the shared response shape of every endpoint.
type Envelope struct {
	Code    string          `json:"code"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

func (e Envelope) OK() bool {
	return e.Code == SuccessCode && e.Success
}

// Transport posts a JSON body to an endpoint. An empty token sends the
// request unauthenticated. Errors are transport-level; envelope failures are
// returned as a normal Envelope.
type Transport interface {
	Send(ctx context.Context, endpoint Endpoint, token string, body any) (Envelope, error)
}
