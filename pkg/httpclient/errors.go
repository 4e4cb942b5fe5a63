package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/lbksmart/storefront/pkg/errors"
)

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes a non-2xx response and converts it to an error.
// A {"error":{"code","message"}} body keeps its code; other bodies are quoted.
func ParseResponseError(resp *http.Response, downstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", downstream, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		msg := fmt.Sprintf("%s: %s", downstream, env.Error.Message)
		switch {
		case resp.StatusCode == http.StatusBadRequest:
			return apperrors.InvalidInput(msg)
		case resp.StatusCode == http.StatusConflict:
			return apperrors.Conflict(msg)
		case resp.StatusCode == http.StatusUnauthorized:
			return apperrors.Unauthorized(msg)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%s server error (%d/%s): %s", downstream, resp.StatusCode, env.Error.Code, env.Error.Message)
		default:
			return &apperrors.AppError{Code: env.Error.Code, Message: msg, Status: resp.StatusCode}
		}
	}
	return fmt.Errorf("%s returned status %d: %s", downstream, resp.StatusCode, string(body))
}
