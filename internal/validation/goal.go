package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxTargetLength      = 500
	MinSuspendDays       = 1

	// MaxSuspendDays is the longest suspension a time.Duration can hold.
	MaxSuspendDays = int(math.MaxInt64 / int64(24*time.Hour))
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their json name so messages match what the client sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// GoalFields is the user-editable text of a goal.
type GoalFields struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Target      string `json:"target" validate:"max=500"`
	Priority    string `json:"priority" validate:"required,oneof=high medium low"`
}

// ValidateGoal checks goal fields after trimming the title.
func ValidateGoal(f GoalFields) error {
	f.Title = strings.TrimSpace(f.Title)
	return Struct(f)
}

// ValidateSuspendDays checks a suspension length in whole days.
func ValidateSuspendDays(days int) error {
	if days < MinSuspendDays {
		return fmt.Errorf("suspension must be at least %d day", MinSuspendDays)
	}
	if days > MaxSuspendDays {
		return errors.New("suspension is too long")
	}
	return nil
}

// ValidateEmail checks an email address format.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if err := validate.Var(email, "email,max=254"); err != nil {
		return errors.New("invalid email address format")
	}
	return nil
}

// Struct validates v and returns the first failure as a readable message.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	return errors.New(message(fieldErrs[0]))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s is too long (max %s characters)", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
