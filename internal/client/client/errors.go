package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

type apiError struct {
	Error string `json:"error"`
}

// mapStatus converts a non-2xx response into a sentinel-wrapped error.
func mapStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error != "" {
		msg = ae.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	var base error
	switch status {
	case http.StatusBadRequest:
		base = common.ErrorValidation
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusNotFound:
		base = common.ErrorNotFound
	case http.StatusConflict:
		base = common.ErrorAlreadyExists
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		base = ErrUnavailable
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
	return fmt.Errorf("%w: %s", base, msg)
}
