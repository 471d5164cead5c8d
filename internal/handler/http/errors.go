package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/service"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
	"github.com/justinloleng/ecommerce/pkg/httputil"
	"github.com/justinloleng/ecommerce/pkg/validator"
)

// toAppError translates storefront errors into HTTP-facing errors. Errors
// that are already AppErrors or validation failures pass through unchanged.
func toAppError(err error) error {
	var (
		appErr     *apperrors.AppError
		stockErr   *domain.StockExceededError
		confirmErr *service.ConfirmationError
		netErr     *domain.NetworkError
		serverErr  *domain.ServerError
	)

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domain.ErrInvalidQuantity):
		return invalid("INVALID_QUANTITY", err)
	case errors.Is(err, domain.ErrEmptySelection):
		return invalid("EMPTY_SELECTION", err)
	case errors.Is(err, domain.ErrInvalidProofFile):
		return invalid("INVALID_FILE", err)
	case errors.Is(err, domain.ErrDeclineReason):
		return invalid("DECLINE_REASON_REQUIRED", err)
	case errors.Is(err, domain.ErrUnknownItem):
		return &apperrors.AppError{
			Code:    "UNKNOWN_ITEM",
			Message: domain.ErrUnknownItem.Error(),
			Status:  http.StatusNotFound,
			Err:     errors.Join(apperrors.ErrNotFound, err),
		}
	case errors.Is(err, domain.ErrProofTooLarge):
		return &apperrors.AppError{
			Code:    "FILE_TOO_LARGE",
			Message: err.Error(),
			Status:  http.StatusRequestEntityTooLarge,
			Err:     err,
		}
	case errors.As(err, &stockErr):
		return apperrors.Conflict("STOCK_EXCEEDED", stockErr.Error())
	case errors.As(err, &confirmErr):
		return apperrors.ConfirmationRequired(confirmErr.Prompt)
	case errors.Is(err, domain.ErrConfirmationRequired):
		return apperrors.ConfirmationRequired(err.Error())
	case errors.Is(err, domain.ErrMutationInProgress):
		return apperrors.Conflict("MUTATION_IN_PROGRESS", err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		return apperrors.Conflict("ORDER_NOT_CANCELLABLE", err.Error())
	case errors.Is(err, domain.ErrOrderNotPending):
		return apperrors.Conflict("ORDER_NOT_PENDING", err.Error())
	case errors.As(err, &netErr):
		return apperrors.ServiceUnavailable(service.NoticeUnreachable, err)
	case errors.As(err, &serverErr):
		if serverErr.Status >= http.StatusInternalServerError {
			return apperrors.Upstream(serverErr.Message, err)
		}
		code := "REJECTED"
		if serverErr.Status == http.StatusNotFound {
			code = "NOT_FOUND"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: serverErr.Message,
			Status:  serverErr.Status,
			Err:     err,
		}
	default:
		return err
	}
}

func invalid(code string, err error) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    code,
		Message: rootMessage(err),
		Status:  http.StatusBadRequest,
		Err:     errors.Join(apperrors.ErrInvalidInput, err),
	}
}

// rootMessage drops wrapping context such as "toggle item 4: " and keeps the
// message meant for the shopper.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrInvalidQuantity,
		domain.ErrEmptySelection,
		domain.ErrInvalidProofFile,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// writeResult answers with data, or with the error and data side by side.
// A degraded cart view is still worth rendering next to its error.
func writeResult(w http.ResponseWriter, r *http.Request, status int, data any, err error, logger *slog.Logger) {
	if err != nil {
		httputil.WriteErrorWithData(w, r, toAppError(err), data, logger)
		return
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: data})
}

// decodeBody decodes and validates a JSON body, answering the request itself
// when it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteError(w, r, err, logger)
		return false
	}
	return true
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: message},
	})
}
