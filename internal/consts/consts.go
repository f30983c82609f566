// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultHandlerTimeout is the default timeout for HTTP handlers.
	DefaultHandlerTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds a file streamed through the gateway.
	DefaultDownloadTimeout = 30 * time.Minute
	// MaxRequestBodySize caps inbound gateway request bodies.
	MaxRequestBodySize = 1 << 20
	// AuthSchemeAPIKey is the Authorization scheme understood by instances.
	AuthSchemeAPIKey = "Api-Key"
)

// HTTP response messages.
const (
	// RespInvalidRequestBody is returned when the request body is invalid.
	RespInvalidRequestBody = "invalid request body"
	// RespUnprocessableEntity is returned when the request cannot be processed.
	RespUnprocessableEntity = "unprocessable entity"
	// RespUnauthorized is returned when the Authorization header cannot be used.
	RespUnauthorized = "unauthorized"
	// RespStatusRetrieved is returned with the instance status.
	RespStatusRetrieved = "instance status retrieved"
	// RespServicesRetrieved is returned with the instance service list.
	RespServicesRetrieved = "services retrieved"
	// RespNoServices is returned when the instance reports no services.
	RespNoServices = "no services"
	// RespMediaResolved is returned with a decoded media response.
	RespMediaResolved = "media resolved"
	// RespInstanceUnreachable is returned when the instance cannot be reached.
	RespInstanceUnreachable = "instance unreachable"
	// RespInstanceTimeout is returned when the instance did not answer in time.
	RespInstanceTimeout = "instance timeout"
	// RespInstanceRejected is returned when the instance answers with a non-success status.
	RespInstanceRejected = "instance rejected request"
	// RespInstanceBadPayload is returned when the instance payload cannot be decoded.
	RespInstanceBadPayload = "instance returned an unexpected payload"
	// RespPresetNotFound is returned when the requested preset is not loaded.
	RespPresetNotFound = "preset not found"
	// RespPresetsRetrieved is returned with the preset names.
	RespPresetsRetrieved = "presets retrieved"
	// RespPresetRetrieved is returned with the options of one preset.
	RespPresetRetrieved = "preset retrieved"
	// RespInvalidItem is returned when the item query parameter is not a picker index.
	RespInvalidItem = "invalid item"
	// RespNotDownloadable is returned when the media response names no single file.
	RespNotDownloadable = "media is not downloadable"
	// RespFileStreamed is logged after a file was streamed to the caller.
	RespFileStreamed = "file streamed"
	// RespSourceRejected is returned when the file source fails the download checks.
	RespSourceRejected = "file source rejected download"
	// RespSourceTimeout is returned when the file source did not answer in time.
	RespSourceTimeout = "file source timeout"
	// RespStreamInterrupted is logged when a file fails after streaming started.
	RespStreamInterrupted = "file stream interrupted"
	// RespInternalError is returned for unexpected failures.
	RespInternalError = "internal error"
)
