package validator

import (
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/poi-cluster-service/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// ValidateRequest валидирует DTO и превращает ошибки в ErrInvalidRequest
// с перечнем полей в details
func ValidateRequest(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.ErrInvalidRequest.WithMessage(err.Error())
	}

	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return errors.ErrInvalidRequest.WithDetails(fields)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// fieldPath убирает имя корневой структуры: "LayersRequest.Viewport.Zoom" -> "Viewport.Zoom"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
