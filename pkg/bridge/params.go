package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"tgbridge/pkg/telegram"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// limitSpec is the default and upper bound of a "limit" query parameter.
type limitSpec struct {
	def int
	max int
}

var (
	chatsLimit    = limitSpec{def: 50, max: 200}
	messagesLimit = limitSpec{def: 20, max: 100}
	historyLimit  = limitSpec{def: 100, max: 500}
	searchLimit   = limitSpec{def: 20, max: 100}
	photosLimit   = limitSpec{def: 10, max: 50}
	gifsLimit     = limitSpec{def: 10, max: 50}
)

// contactSearchLimit is the fixed result size of a contact search.
const contactSearchLimit = 20

// queryLimit reads "limit", clamping values above the maximum.
func queryLimit(r *http.Request, spec limitSpec) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return spec.def, nil
	}

	value, err := nonNegativeInt("limit", raw)
	if err != nil {
		return 0, err
	}

	return min(value, spec.max), nil
}

// queryInt reads an optional non-negative integer, 0 when absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	return nonNegativeInt(name, raw)
}

// requiredQuery reads a query parameter that must be present and non-empty.
func requiredQuery(r *http.Request, name string) (string, error) {
	values, ok := r.URL.Query()[name]
	if !ok || len(values) == 0 || values[0] == "" {
		return "", telegram.Invalidf("parse query", "query parameter %q is required", name)
	}

	return values[0], nil
}

func nonNegativeInt(name string, raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0, telegram.Invalidf("parse query", "%s must be a non-negative integer, got %q", name, raw)
	}

	return value, nil
}

// messageID reads the {messageID} path segment.
func messageID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "messageID")
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, telegram.Invalidf("parse path", "message id must be a positive integer, got %q", raw)
	}

	return value, nil
}

// resolve parses a chat or user reference and resolves it with the client.
func (s *Service) resolve(ctx context.Context, raw string) (telegram.Entity, error) {
	ref, err := telegram.ParseRef(raw)
	if err != nil {
		return nil, err
	}

	return s.client.Resolve(ctx, ref)
}

// decodeBody reads a JSON body into dst and validates its struct tags.
func (s *Service) decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return telegram.Invalidf("decode body", "request body is required")
		}
		return telegram.Invalidf("decode body", "invalid JSON body: %v", err)
	}

	if err := s.validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return telegram.Invalidf("validate body", "%s", describeValidation(invalid))
		}
		return telegram.NewError(telegram.KindInvalid, "validate body", err)
	}

	return nil
}

func describeValidation(invalid validator.ValidationErrors) string {
	parts := make([]string, 0, len(invalid))
	for _, fieldErr := range invalid {
		parts = append(parts, fmt.Sprintf("field %q failed %q", fieldErr.Field(), fieldErr.Tag()))
	}

	return strings.Join(parts, "; ")
}

// newValidator reports struct fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// formBool parses a multipart boolean the way form frameworks commonly do.
func formBool(name string, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "f", "no", "n", "off":
		return false, nil
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	default:
		return false, telegram.Invalidf("parse form", "%s must be a boolean, got %q", name, raw)
	}
}
