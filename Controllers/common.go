package Controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// validationIssues turns validator errors into the field-level issue list
// returned to clients.
func validationIssues(err error) []fiber.Map {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fiber.Map{{"error": err.Error()}}
	}
	issues := make([]fiber.Map, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, fiber.Map{
			"field": fe.Field(),
			"rule":  fe.Tag(),
			"value": fe.Param(),
		})
	}
	return issues
}

// isDuplicateErr detects a unique-constraint violation across the sqlite
// and mysql dialects. The constraint is the source of truth for duplicate
// rules; pre-checks only exist for friendlier messages.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
