package helper

import (
	"fmt"
	"reflect"
	"strings"
)

// MissingFieldsError lists the error text of every mandatory field that was left unset.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("please supply values for %v", strings.Join(e.Fields, ", "))
}

// ValidateStructIsPopulated will check if any mandatory fields in cfg are missing.
// It uses struct tags to determine which fields are mandatory and the error text to report:
//
//	Host string `errorTxt:"postgres host" mandatory:"yes"`
//
// Nested structs and pointers to structs are descended into.
func ValidateStructIsPopulated(cfg interface{}) error {
	errs := make([]string, 0)
	getStructErrorTxt4UnsetFields(reflect.ValueOf(cfg), &errs)
	if len(errs) > 0 {
		return &MissingFieldsError{Fields: errs}
	}
	return nil
}

func getStructErrorTxt4UnsetFields(val reflect.Value, errTags *[]string) {
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}
	typ := val.Type()
	for idx := 0; idx < val.NumField(); idx++ { // for each field in the struct...
		field := typ.Field(idx)
		if field.PkgPath != "" { // if the field is not exported...
			continue
		}
		f := val.Field(idx)
		switch f.Kind() {
		case reflect.Struct, reflect.Ptr: // descend another level.
			getStructErrorTxt4UnsetFields(f, errTags)
		default:
			if field.Tag.Get("mandatory") == "yes" && f.IsZero() {
				*errTags = append(*errTags, field.Tag.Get("errorTxt"))
			}
		}
	}
}
