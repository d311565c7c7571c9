package handlers

import (
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/jurisdiction"
)

var phoneRegexp = regexp.MustCompile(`^[0-9+\-\s()]{10,15}$`)

// custom validation tags
const (
	phoneTag    = "phone"
	notBlankTag = "notblank"
)

// requestValidator validates request DTOs and renders failures in English
// using JSON field names
type requestValidator struct {
	v     *validator.Validate
	trans ut.Translator
}

var validate = newRequestValidator()

func newRequestValidator() *requestValidator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return phoneRegexp.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	registerFn := func(ut.Translator) error { return nil }
	_ = v.RegisterTranslation(phoneTag, trans, registerFn, func(_ ut.Translator, fe validator.FieldError) string {
		return fe.Field() + " must be a valid phone number"
	})
	_ = v.RegisterTranslation(notBlankTag, trans, registerFn, func(_ ut.Translator, fe validator.FieldError) string {
		return fe.Field() + " cannot be blank"
	})

	return &requestValidator{v: v, trans: trans}
}

// Struct validates s and returns a ValidationError listing every failed field
func (rv *requestValidator) Struct(s interface{}) error {
	err := rv.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(err, apperrors.ValidationError, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(rv.trans))
	}
	sort.Strings(msgs)
	return apperrors.Wrap(err, apperrors.ValidationError, strings.Join(msgs, "; "))
}

// location checks a district/sub-district pair against the directory
func location(dir jurisdiction.Directory, district, subDistrict string) error {
	if !dir.Valid(district, subDistrict) {
		return apperrors.Newf(apperrors.ValidationError, "unknown district or sub-district: %s / %s", district, subDistrict)
	}
	return nil
}
