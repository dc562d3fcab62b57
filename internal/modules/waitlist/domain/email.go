package domain

import "regexp"

// InvalidEmailMessage is shown next to the email field when validation fails.
const InvalidEmailMessage = "Por favor ingrese un email válido"

// local@domain.tld: no whitespace and no extra @ in any part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether email has the local@domain.tld shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// EmailError returns the inline error for email, empty when it is valid.
func EmailError(email string) string {
	if ValidateEmail(email) {
		return ""
	}
	return InvalidEmailMessage
}
