package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
)

// RegisterValidators добавляет доменные правила к валидатору gin.
// Теги: condition, damage_type, damage_severity.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validators: неожиданный движок валидации %T", binding.Validator.Engine())
	}

	rules := map[string]validator.Func{
		"condition": func(fl validator.FieldLevel) bool {
			return valueobject.ItemCondition(fl.Field().String()).IsValid()
		},
		"damage_type": func(fl validator.FieldLevel) bool {
			return valueobject.DamageType(fl.Field().String()).IsValid()
		},
		"damage_severity": func(fl validator.FieldLevel) bool {
			return valueobject.DamageSeverity(fl.Field().String()).IsValid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validators: %s: %w", tag, err)
		}
	}
	return nil
}
