package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Minimal internal validator. Supports:
// - required
// - oneof=a|b|c (empty allowed unless also required)
// - max=N (string length in runes)
// - phone (optional leading +, 7-15 digits)

var rePhone = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
// Nested struct pointers are validated when non-nil.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !field.IsExported() {
			continue
		}
		if fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Struct && !fv.IsNil() {
			if err := ValidateStruct(fv.Interface()); err != nil {
				return err
			}
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = strings.TrimSpace(fv.String())
		}
		for _, p := range strings.Split(tag, ",") {
			p = strings.TrimSpace(p)
			switch {
			case p == "required":
				if sval == "" {
					return errors.New(field.Name + " is required")
				}
			case p == "phone":
				if sval != "" && !rePhone.MatchString(sval) {
					return errors.New(field.Name + " must be a phone number")
				}
			case strings.HasPrefix(p, "oneof="):
				if sval == "" {
					continue
				}
				allowed := strings.Split(strings.TrimPrefix(p, "oneof="), "|")
				ok := false
				for _, a := range allowed {
					if sval == a {
						ok = true
						break
					}
				}
				if !ok {
					return errors.New(field.Name + " must be one of " + strings.Join(allowed, ", "))
				}
			case strings.HasPrefix(p, "max="):
				n, err := strconv.Atoi(strings.TrimPrefix(p, "max="))
				if err == nil && len([]rune(sval)) > n {
					return errors.New(field.Name + " must be at most " + strconv.Itoa(n) + " characters")
				}
			}
		}
	}
	return nil
}
