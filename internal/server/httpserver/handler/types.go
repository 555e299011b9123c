package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    any    `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// BudgetRequest is the body of POST /api/budgets and PUT /api/budgets/{id}.
// Fields stay raw until validated so that absent, null and wrong-typed
// values can be told apart.
type BudgetRequest struct {
	Name      json.RawMessage `json:"name" validate:"required,jsonstring"`
	Timestamp json.RawMessage `json:"timestamp" validate:"required,jsonint"`
	State     json.RawMessage `json:"state" validate:"required"`
}

// budgetInput is a validated BudgetRequest.
type budgetInput struct {
	Name      string
	Timestamp int64
	State     domain.State
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("jsonint", func(fl validator.FieldLevel) bool {
		_, ok := parseJSONInt(fl.Field().Bytes())
		return ok
	})
	_ = v.RegisterValidation("jsonstring", func(fl validator.FieldLevel) bool {
		var s string
		return json.Unmarshal(fl.Field().Bytes(), &s) == nil && !isNull(fl.Field().Bytes())
	})
	return v
}

// decodeBudget reads and validates a budget body.
//
// Syntax problems and empty bodies are malformed input (400); missing,
// null or wrong-typed fields are validation failures (422); bodies over the
// limit are rejected with 413.
func decodeBudget(w http.ResponseWriter, r *http.Request, limit int64) (*budgetInput, error) {
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	dec := json.NewDecoder(body)
	var req BudgetRequest
	if err := dec.Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, decodeError(err)
		}
		return nil, domain.ErrMalformedInput.WithDetails("request body has trailing data")
	}

	if err := validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, newValidationError(verrs)
		}
		return nil, domain.ErrValidation.WithCause(err)
	}

	ts, _ := parseJSONInt(req.Timestamp)
	var name string
	if err := json.Unmarshal(req.Name, &name); err != nil {
		return nil, domain.ErrValidation.WithDetails("name must be a string")
	}
	state, err := domain.ParseState(req.State)
	if err != nil {
		return nil, err
	}
	return &budgetInput{Name: name, Timestamp: ts, State: state}, nil
}

func decodeError(err error) error {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return domain.ErrPayloadTooLarge.WithDetails(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, io.EOF):
		return domain.ErrMalformedInput.WithDetails("request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return domain.ErrMalformedInput.WithDetails("request body is truncated")
	case errors.As(err, &syntaxErr):
		return domain.ErrMalformedInput.WithDetails(fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		return &validationError{fields: []FieldError{{
			Loc:  []string{"body"},
			Msg:  "body must be a JSON object",
			Type: "type_error",
		}}}
	default:
		return domain.ErrMalformedInput.WithCause(err)
	}
}

// validationError carries per-field failures to the error writer.
type validationError struct {
	fields []FieldError
}

func (e *validationError) Error() string {
	msgs := make([]string, len(e.fields))
	for i, f := range e.fields {
		msgs[i] = strings.Join(f.Loc, ".") + ": " + f.Msg
	}
	return domain.ErrValidation.WithDetails(strings.Join(msgs, "; ")).Error()
}

func (e *validationError) Unwrap() error {
	return domain.ErrValidation
}

func newValidationError(verrs validator.ValidationErrors) *validationError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		f := FieldError{Loc: []string{"body", fe.Field()}}
		switch fe.Tag() {
		case "required":
			f.Msg, f.Type = "field required", "missing"
		case "jsonint":
			f.Msg, f.Type = "value is not a valid 64-bit integer", "int_type"
		case "jsonstring":
			f.Msg, f.Type = "value is not a valid string", "string_type"
		default:
			f.Msg, f.Type = "invalid value", fe.Tag()
		}
		fields = append(fields, f)
	}
	return &validationError{fields: fields}
}

// parseJSONInt accepts a JSON number with an integral value in int64 range,
// so 100, -3 and 1e3 pass while 1.5, "100" and null do not.
func parseJSONInt(raw []byte) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return n, true
	}
	rat, ok := new(big.Rat).SetString(string(raw))
	if !ok || !rat.IsInt() || !rat.Num().IsInt64() {
		return 0, false
	}
	return rat.Num().Int64(), true
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
