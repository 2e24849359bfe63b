package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinFullNameLength    = 2
	MaxFullNameLength    = 100
	MaxNoteLength        = 2000
	MinProductNameLength = 2
	MaxProductNameLength = 200
	MaxDescriptionLength = 5000
	MinReportTitleLength = 3
	MaxReportTitleLength = 200
	MinReportBodyLength  = 10
	MaxReportBodyLength  = 5000
	MaxLocationLength    = 100
	MaxQuantity          = 1000000
	MaxPrice             = 100000000.0
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateLength checks the rune length of a string field.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return fmt.Errorf("email format is invalid")
	}
	return nil
}

// ValidateQuantity checks a requested product quantity.
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be a positive integer")
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("quantity must not exceed %d", MaxQuantity)
	}
	return nil
}
