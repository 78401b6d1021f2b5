package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"aurum/internal/core"
	"aurum/internal/log"
)

// emptyLedgerMessage is shown wherever there is nothing to compute over.
const emptyLedgerMessage = "No assets available. Please add assets in the Manage Assets section."

// templateFuncs are the display helpers available to every template.
var templateFuncs = template.FuncMap{
	"money":       core.FormatMoney,
	"signedMoney": core.FormatSignedMoney,
	"percent":     func(f float64) string { return core.Percent(f).String() },
	"signedPct":   func(f float64) string { return core.Percent(f).SignedString() },
	"ordinal":     func(f float64) string { return core.Percent(f).Ordinal() },
	"isNegative":  func(d decimal.Decimal) bool { return d.IsNegative() },
	"barWidth":    barWidth,
}

// barWidth scales |v| against max into a 0..100 meter value.
func barWidth(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	w := math.Abs(v) / max * 100
	return math.Round(math.Min(w, 100)*10) / 10
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorTypeFor is the log category of a failed request.
func errorTypeFor(status int) string {
	switch {
	case status == http.StatusNotFound:
		return log.ErrorTypeNotFound
	case status >= http.StatusInternalServerError:
		return log.ErrorTypeInternal
	default:
		return log.ErrorTypeValidation
	}
}

// errorResponseFor builds the error fragment for status. The message is
// also raised as an error notification, since htmx does not swap 4xx and
// 5xx bodies by default.
func errorResponseFor(status int, msg string) *HTMXResponseBuilder {
	var b *HTMXResponseBuilder
	switch status {
	case http.StatusBadRequest:
		b = BadRequestError(msg)
	case http.StatusNotFound:
		b = NotFoundError(msg)
	case http.StatusUnprocessableEntity:
		b = UnprocessableEntityError(msg)
	case http.StatusInternalServerError:
		b = InternalServerError(msg)
	default:
		b = ErrorResponse(status, msg)
	}
	return b.TriggerErrorNotification(msg)
}

// userMessage is the text shown for err. Internal errors are not echoed.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Asset name is required."
	case errors.Is(err, core.ErrNameTooLong):
		return "Asset name is too long."
	case errors.Is(err, core.ErrNegativeValue):
		return "Value cannot be negative."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Value and change must be numbers."
	case errors.Is(err, errBadPosition):
		return "Invalid asset position."
	case errors.Is(err, core.ErrNotFound):
		return "Asset not found. The list may be out of date, please reload it."
	case errors.Is(err, errBodyTooLarge):
		return "Request too large."
	case errors.Is(err, errMalformedBody):
		return "Malformed request."
	default:
		return "Something went wrong. Please try again."
	}
}
