// Package apierr maps provider SDK errors to domain error kinds so that
// retries and user-facing messages do not depend on a particular SDK.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	ollama "github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// FromOpenAI classifies an error returned by the go-openai client.
func FromOpenAI(provider string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return withStatus(provider, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return withStatus(provider, reqErr.HTTPStatusCode, err)
	}
	return transport(provider, err)
}

// FromOllama classifies an error returned by the Ollama client.
func FromOllama(provider string, err error) error {
	if err == nil {
		return nil
	}
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		return withStatus(provider, statusErr.StatusCode, err)
	}
	var statusPtr *ollama.StatusError
	if errors.As(err, &statusPtr) {
		return withStatus(provider, statusPtr.StatusCode, err)
	}
	return transport(provider, err)
}

// FromAnthropic classifies an error returned by the Anthropic client.
func FromAnthropic(provider string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return withStatus(provider, apiErr.StatusCode, err)
	}
	return transport(provider, err)
}

// FromGemini classifies an error returned by the Gemini client, which may
// surface either a REST status or a gRPC code.
func FromGemini(provider string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return withStatus(provider, apiErr.Code, err)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Canceled:
			return fmt.Errorf("%s: %w: %w", provider, context.Canceled, err)
		case codes.DeadlineExceeded:
			return fmt.Errorf("%s: %w: %w", provider, context.DeadlineExceeded, err)
		}
		return withStatus(provider, HTTPStatus(st.Code()), err)
	}
	return transport(provider, err)
}

// HTTPStatus maps a gRPC code to the HTTP status a REST call would return.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func withStatus(provider string, code int, err error) error {
	kind := domain.ErrorForStatus(code)
	if kind == nil {
		kind = domain.ErrTransient
	}
	return fmt.Errorf("%s: status %d: %w: %w", provider, code, kind, err)
}

// transport treats anything without a status code as a network failure.
// Cancellation is passed through so callers stop instead of retrying.
func transport(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrTransient, err)
}
