package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zombor/parsewise/internal/scanning"
)

// ValidationError lists the draft fields that failed validation, keyed by
// JSON path (e.g. "lineItems[0].description") with the failed rule as value
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid invoice: " + strings.Join(parts, ", ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("document_uri", isDocumentURI); err != nil {
		panic(err)
	}
	return v
}

func isDocumentURI(fl validator.FieldLevel) bool {
	return validDocumentURI(fl.Field().String())
}

// validDocumentURI accepts base64 data URIs carrying a PDF or an image
func validDocumentURI(uri string) bool {
	doc, err := scanning.DecodeDataURI(uri)
	if err != nil {
		return false
	}
	return scanning.IsDocumentType(doc.MIMEType)
}

// validateDraft applies the form rules: text fields and line item
// descriptions are required, numbers must not be negative and an attached
// document must be a PDF or an image
func validateDraft(v *validator.Validate, d Draft) error {
	err := v.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating invoice: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Draft.lineItems[0].description"; drop the struct name
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		fields[path] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}
