package util

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	validate   = validator.New(validator.WithRequiredStructEnabled())
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ErrValidation agrupa todas as falhas de validação de entrada.
var ErrValidation = errors.New("dados inválidos")

// ValidationError descreve falhas por campo.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap permite errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid cria um ValidationError simples.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateStruct aplica as tags `validate` do payload.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			fields[field] = "obrigatório"
		case "min":
			fields[field] = "mínimo " + fe.Param()
		case "max":
			fields[field] = "máximo " + fe.Param()
		case "gt", "gte":
			fields[field] = "deve ser maior que " + fe.Param()
		case "oneof":
			fields[field] = "deve ser um de: " + fe.Param()
		case "datetime":
			fields[field] = "data no formato " + fe.Param()
		default:
			fields[field] = "inválido (" + fe.Tag() + ")"
		}
	}
	return &ValidationError{Message: "payload inválido", Fields: fields}
}

// ValidateEmail aceita apenas o formato usuario@dominio.tld.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("email obrigatório")
	}
	if !emailRegex.MatchString(email) {
		return Invalid("email inválido")
	}
	return nil
}

// ValidateCNPJ exige exatamente 14 caracteres, contados em runas.
func ValidateCNPJ(cnpj string) error {
	if utf8.RuneCountInString(cnpj) != 14 {
		return Invalid("cnpj deve ter 14 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid("%s obrigatório", field)
	}
	return nil
}
