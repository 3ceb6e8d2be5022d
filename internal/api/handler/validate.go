// Package handler provides HTTP handlers for the Pavecast API.
package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavecast/pavecast/internal/api/models"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validateStruct returns one FieldError per failed rule, or nil.
func validateStruct(s any) []models.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "", Message: err.Error(), Code: "invalid"}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "latitude":
		return "must be a latitude between -90 and 90"
	case "longitude":
		return "must be a longitude between -180 and 180"
	case "numeric":
		return "must be a number"
	default:
		return "is invalid"
	}
}

// parseLocation validates and parses lat/lng query values.
func parseLocation(q models.LocationQuery) (lat, lng float64, errs []models.FieldError) {
	if errs = validateStruct(q); errs != nil {
		return 0, 0, errs
	}
	lat, lng = coordinates(q)
	return lat, lng, nil
}

// coordinates parses an already validated query; the latitude and longitude
// rules only accept decimal numbers.
func coordinates(q models.LocationQuery) (lat, lng float64) {
	lat, _ = strconv.ParseFloat(q.Lat, 64)
	lng, _ = strconv.ParseFloat(q.Lng, 64)
	return lat, lng
}

// parseDays parses the optional days query value; empty selects the default.
func parseDays(raw string) (int, []models.FieldError) {
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []models.FieldError{{Field: "days", Message: "must be an integer", Code: "integer"}}
	}
	return days, nil
}
