package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"aurum/internal/core"
)

// maxBodyBytes bounds form and JSON bodies of mutating requests.
const maxBodyBytes = 64 << 10

// AssetForm is the raw input of the add-asset form.
type AssetForm struct {
	Name     string
	Category string
	Value    string
	Change   string
}

// ReadAssetForm extracts the add-asset fields from a parsed body.
func ReadAssetForm(p *RequestBodyParser) AssetForm {
	return AssetForm{
		Name:     p.Get("name"),
		Category: p.Get("category"),
		Value:    p.Get("value"),
		Change:   p.Get("change"),
	}
}

// Asset converts the form into a validated asset. A blank category becomes
// core.Uncategorized and blank amounts default to zero.
func (f AssetForm) Asset() (core.Asset, error) {
	a := core.Asset{
		Name:     strings.TrimSpace(f.Name),
		Category: strings.TrimSpace(f.Category),
		Value:    decimal.Zero,
		Change:   decimal.Zero,
	}
	if a.Category == "" {
		a.Category = core.Uncategorized
	}

	var err error
	if f.Value != "" {
		if a.Value, err = core.ParseAmount(f.Value); err != nil {
			return core.Asset{}, fmt.Errorf("value %q: %w", f.Value, err)
		}
	}
	if f.Change != "" {
		if a.Change, err = core.ParseAmount(f.Change); err != nil {
			return core.Asset{}, fmt.Errorf("change %q: %w", f.Change, err)
		}
	}

	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	return a, nil
}

// RemoveParams identifies the asset a client wants removed.
type RemoveParams struct {
	Position int
	Name     string
}

// errBadPosition marks a position that is not a non-negative integer.
var errBadPosition = fmt.Errorf("%w: position must be a non-negative integer", core.ErrValidation)

// ReadRemoveParams extracts position and name. DELETE requests may carry
// them in the query string.
func ReadRemoveParams(p *RequestBodyParser, query url.Values) (RemoveParams, error) {
	pos := p.Get("position")
	if pos == "" {
		pos = strings.TrimSpace(query.Get("position"))
	}
	name := p.Get("name")
	if name == "" {
		name = strings.TrimSpace(query.Get("name"))
	}

	n, err := strconv.Atoi(pos)
	if err != nil || n < 0 {
		return RemoveParams{}, errBadPosition
	}
	return RemoveParams{Position: n, Name: name}, nil
}

// SearchQuery returns the trimmed q parameter.
func SearchQuery(query url.Values) string {
	return sanitizeInput(query.Get("q"))
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

var (
	errBodyTooLarge  = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	errMalformedBody = errors.New("malformed request body")
)

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}

	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return p.err
	}

	// Fall back to form parsing
	var err error
	if p.formData, err = url.ParseQuery(string(p.body)); err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}
