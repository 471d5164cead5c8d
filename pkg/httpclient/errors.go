package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GenericErrorMessage is reported when a failed response carries no usable message.
const GenericErrorMessage = "something went wrong, please try again"

// ResponseError is a non-2xx answer from a downstream API. Message holds the
// API's own wording when it sent one.
type ResponseError struct {
	Service string
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Message)
}

// errorBody covers the shapes the storefront API uses for failures:
// {"error": "text"} and {"message": "text"}. A nested {"error": {"message"}}
// is accepted too.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and returns a
// *ResponseError. The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) *ResponseError {
	defer func() { _ = resp.Body.Close() }()

	rerr := &ResponseError{Service: serviceName, Status: resp.StatusCode}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		rerr.Message = GenericErrorMessage
		return rerr
	}

	rerr.Message = extractMessage(bodyBytes)
	return rerr
}

func extractMessage(body []byte) string {
	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		if len(parsed.Error) > 0 {
			var text string
			if json.Unmarshal(parsed.Error, &text) == nil && strings.TrimSpace(text) != "" {
				return text
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(parsed.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return GenericErrorMessage
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
