package chat

import (
	"errors"
	"fmt"
)

// User-facing messages shown in the assistant turn when a cycle fails.
const (
	MsgAuthentication = "Debes iniciar sesión para hablar con el asistente."
	MsgNetwork        = "Hubo un problema de conexión. Por favor, inténtalo de nuevo."
	MsgTimeout        = "El asistente tardó demasiado en responder. Por favor, inténtalo de nuevo."
	MsgServerGeneric  = "Fallo al obtener respuesta del agente."
	MsgDecode         = "Lo siento, no pude procesar tu solicitud."
	MsgNotification   = "Hubo un error al contactar al asistente."
)

var (
	// ErrEmptyInput is returned by Submit for blank input.
	ErrEmptyInput = errors.New("chat: empty input")
	// ErrBusy is returned by Submit while another cycle is in flight.
	ErrBusy = errors.New("chat: request already in flight")
)

// AuthenticationError means no credential was available to sign the request.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string { return "chat: no credential available" }

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("chat: network: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError means the request deadline expired before the stream completed.
type TimeoutError struct {
	After string
}

func (e *TimeoutError) Error() string { return "chat: deadline exceeded after " + e.After }

// ServerError is a non-2xx response from the chat endpoint.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("chat: server error %d: %s", e.Status, e.Message)
}

// DecodeError means the stream ended without a single decodable payload.
type DecodeError struct {
	Buffered int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("chat: no complete payload in %d buffered bytes", e.Buffered)
}

// UserMessage maps an error from a chat cycle to the text shown to the user.
func UserMessage(err error) string {
	var (
		authErr    *AuthenticationError
		timeoutErr *TimeoutError
		serverErr  *ServerError
		decodeErr  *DecodeError
		netErr     *NetworkError
	)
	switch {
	case errors.As(err, &authErr):
		return MsgAuthentication
	case errors.As(err, &timeoutErr):
		return MsgTimeout
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return MsgServerGeneric
	case errors.As(err, &decodeErr):
		return MsgDecode
	case errors.As(err, &netErr):
		return MsgNetwork
	default:
		return MsgNetwork
	}
}
