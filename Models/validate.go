package Models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ValidationError lists the rejected fields of a record with a readable message each.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks records before they reach the store. The clock decides
// what counts as "in the future".
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
	now      func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	val := &Validator{validate: v, trans: trans, now: now}

	mustRegister(v.RegisterValidation("notfuture", val.notFuture))
	mustRegister(v.RegisterValidation("enum", isEnum))
	v.RegisterStructValidation(coordinatesTogether, Attendance{})

	registerMessage(v, trans, "notfuture", "{0} must not be in the future")
	registerMessage(v, trans, "enum", "{0} has an unknown value")
	registerMessage(v, trans, "coordinates", "{0} must be set together with the other coordinate")

	return val
}

// Struct validates s and returns a *ValidationError for rule violations.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Translate(v.trans)
	}
	return &ValidationError{Fields: fields}
}

// Var validates a single value under the given field name.
func (v *Validator) Var(name string, value interface{}, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	// Var errors carry no field name
	msg := strings.TrimSpace(verrs[0].Translate(v.trans))
	if verrs[0].Field() == "" {
		msg = name + " " + msg
	}
	return &ValidationError{Fields: map[string]string{name: msg}}
}

func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(v.now())
}

func isEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(Enum)
	if !ok {
		return false
	}
	return e.Valid()
}

func coordinatesTogether(sl validator.StructLevel) {
	a := sl.Current().Interface().(Attendance)
	switch {
	case a.Latitude != nil && a.Longitude == nil:
		sl.ReportError(a.Longitude, "longitude", "Longitude", "coordinates", "")
	case a.Latitude == nil && a.Longitude != nil:
		sl.ReportError(a.Latitude, "latitude", "Latitude", "coordinates", "")
	}
}

// fieldPath drops the root struct name: "Leave.leave_type.name" -> "leave_type.name".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string) {
	err := v.RegisterTranslation(tag, trans, func(t ut.Translator) error {
		return t.Add(tag, text, true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		msg, err := t.T(tag, fe.Field())
		if err != nil {
			return fe.Error()
		}
		return msg
	})
	mustRegister(err)
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
