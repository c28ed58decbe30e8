package http

import (
	"nft-storefront/internal/pkg/apperrors"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any, logger *zap.Logger) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// writeError answers with the status mapped from err. Internal errors are not echoed.
func writeError(ctx *fasthttp.RequestCtx, err error, logger *zap.Logger) {
	status := apperrors.StatusCode(err)
	msg := err.Error()
	if status == fasthttp.StatusInternalServerError {
		msg = apperrors.ErrInternal.Error()
	}
	if status >= fasthttp.StatusInternalServerError {
		logger.Error("Request failed", zap.ByteString("uri", ctx.RequestURI()), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(ctx, status, errorBody{Error: msg}, logger)
}

// routePrefix returns the {chain} path segment, or "" for unprefixed routes.
func routePrefix(ctx *fasthttp.RequestCtx) string {
	prefix, _ := ctx.UserValue("chain").(string)
	return prefix
}
