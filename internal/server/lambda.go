package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/recipe"
	"go.uber.org/zap"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// LambdaHandler serves POST /api/optimize semantics behind a Lambda
// Function URL.
func LambdaHandler(logger *zap.Logger, b *balancer.Balancer, table *recipe.Table) func(context.Context, events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		body := event.Body
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(body)
			if err != nil {
				return errResp(http.StatusBadRequest, "invalid base64 body")
			}
			body = string(decoded)
		}

		var req balancer.Request
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return errResp(http.StatusBadRequest, "invalid JSON: "+err.Error())
		}

		resp, err := Optimize(ctx, b, table, req)
		if err != nil {
			logger.Warn("lambda request failed",
				zap.String("op", "server.LambdaHandler"),
				zap.String("requestID", event.RequestContext.RequestID),
				zap.Error(err),
			)
			return errResp(StatusCode(err), err.Error())
		}

		respJSON, err := json.Marshal(resp)
		if err != nil {
			return errResp(http.StatusInternalServerError, "failed to encode response")
		}
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
	}
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
