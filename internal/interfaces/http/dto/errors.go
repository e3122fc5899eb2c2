package dto

import (
	"net/http"

	"github.com/invoicing/backend/internal/domain/shared"
)

// API error codes, ERR_<DESCRIPTION>
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists   = "ERR_ALREADY_EXISTS"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"

	ErrCodeMalformedSnapshot = "ERR_MALFORMED_ORDER_SNAPSHOT"
	ErrCodeRenderingFailed   = "ERR_RENDERING_FAILED"
	ErrCodePersistenceWrite  = "ERR_PERSISTENCE_WRITE_FAILED"
)

type apiCode struct {
	status int
	// domain is the shared.Code* this API code answers, if any
	domain string
}

var apiCodes = map[string]apiCode{
	ErrCodeInternal:          {status: http.StatusInternalServerError},
	ErrCodeValidation:        {status: http.StatusBadRequest},
	ErrCodeBadRequest:        {status: http.StatusBadRequest},
	ErrCodeInvalidJSON:       {status: http.StatusBadRequest},
	ErrCodePayloadTooLarge:   {status: http.StatusRequestEntityTooLarge},
	ErrCodeRateLimited:       {status: http.StatusTooManyRequests},
	ErrCodeInvalidInput:      {http.StatusBadRequest, shared.CodeInvalidInput},
	ErrCodeNotFound:          {http.StatusNotFound, shared.CodeNotFound},
	ErrCodeAlreadyExists:     {http.StatusConflict, shared.CodeAlreadyExists},
	ErrCodeMalformedSnapshot: {http.StatusBadRequest, shared.CodeMalformedSnapshot},
	ErrCodeRenderingFailed:   {http.StatusBadGateway, shared.CodeRenderingFailed},
	ErrCodePersistenceWrite:  {http.StatusServiceUnavailable, shared.CodePersistenceWrite},
}

var byDomainCode = func() map[string]string {
	m := make(map[string]string, len(apiCodes))
	for code, c := range apiCodes {
		if c.domain != "" {
			m[c.domain] = code
		}
	}
	return m
}()

// StatusOf returns the HTTP status of an API or domain error code, 500 for
// unknown codes
func StatusOf(code string) int {
	if c, ok := apiCodes[APICode(code)]; ok {
		return c.status
	}
	return http.StatusInternalServerError
}

// APICode translates a domain code; API and unknown codes pass through
func APICode(code string) string {
	if api, ok := byDomainCode[code]; ok {
		return api
	}
	return code
}
