// Package validator wraps go-playground/validator with the proxy's custom tags
// and holds the upload constraints.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/broadstream/qgem/pkg/storage"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// bucket: storage bucket naming rules
	_ = v.RegisterValidation("bucket", func(fl validator.FieldLevel) bool {
		return storage.ValidBucketName(fl.Field().String())
	})
	// objpath: folder or key without traversal segments
	_ = v.RegisterValidation("objpath", func(fl validator.FieldLevel) bool {
		_, err := storage.CleanKey(fl.Field().String())
		return err == nil
	})
	return v
}

// Struct validates s against its `validate` tags and flattens failures into one error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "bucket":
		return fmt.Sprintf("%s %q is not a valid bucket name", field, fe.Value())
	case "objpath":
		return fmt.Sprintf("%s %q must not contain '..' segments", field, fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
