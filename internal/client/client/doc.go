// Package client talks to the passvault REST API.
//
// HTTPClient keeps the bearer token of the current session and attaches it
// to every authenticated call. HTTP failures are mapped to sentinel errors
// that callers match with errors.Is:
//
//   - ErrUnavailable: the server cannot be reached or answered 503.
//   - ErrUnauthorized: 401, or no session.
//   - common.ErrorValidation, common.ErrorNotFound, common.ErrorAlreadyExists:
//     400, 404 and 409 respectively.
//
// The server's error text is kept in the wrapped message.
package client
