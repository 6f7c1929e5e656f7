package training

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/crewhq/brigade/core"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	shiftKeyTag  = "shiftkey"
	shiftKeyText = "invalid shift key"
)

// InitValidators registers the training package's custom validators.
func InitValidators(v *validator.Validate, t ut.Translator) {
	validate = v
	translator = t

	_ = validate.RegisterValidation(shiftKeyTag, shiftKeyValidation)
	core.RegisterCustomTranslation(validate, translator, shiftKeyTag, shiftKeyText)
}

// shiftKeyValidation checks that the value is a known shift key.
func shiftKeyValidation(fl validator.FieldLevel) bool {
	return IsValidShiftKey(ShiftKey(fl.Field().String()))
}
