package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.RegisterValidation("user_role", validateUserRole)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("drive_url", validateDriveURL)
	if err != nil {
		return nil
	}

	return &CustomValidator{validator: v}
}

func validateUserRole(fl playgroundvalidator.FieldLevel) bool {
	role := fl.Field().String()
	return role == "admin" || role == "user"
}

func validateDriveURL(fl playgroundvalidator.FieldLevel) bool {
	u := fl.Field().String()
	return strings.Contains(u, "drive.google.com/") &&
		(strings.Contains(u, "/folders/") || strings.Contains(u, "/file/d/"))
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// Request validation structs

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,user_role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}

type ChatRequest struct {
	Message     string  `json:"message" validate:"required,min=1"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature" validate:"omitempty,min=0,max=1"`
	MaxTokens   int     `json:"maxTokens" validate:"omitempty,min=100,max=2000"`
}

type SyncFileRequest struct {
	URL string `json:"url" validate:"required,drive_url"`
}

type SyncFolderRequest struct {
	URL string `json:"url" validate:"required,drive_url"`
}

type PermissionRequest struct {
	UserID     string `json:"userId" validate:"required,uuid"`
	ResourceID string `json:"resourceId" validate:"required,uuid"`
}
