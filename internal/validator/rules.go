package validator

import (
	"log"

	"investoriq_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует правила, завязанные на модели
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// без правил приложение не должно стартовать
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'property_type': off_market или mls
	mustRegister("property_type", validatePropertyType)

	// 'package_id': пакет есть в справочнике
	mustRegister("package_id", validatePackageID)
}

func validatePropertyType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения обрабатывает 'required'
	}
	return models.PropertyType(value).IsValid()
}

func validatePackageID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.LookupPackage(value)
	return ok
}
