package validator

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidMeetingID = errors.New("meeting id must be 9 to 12 digits")
)

func IsEmail(email string) error {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || !strings.Contains(parts[1], ".") {
		return ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// IsMeetingID accepts the numeric meeting ids Zoom assigns.
func IsMeetingID(id string) error {
	if len(id) < 9 || len(id) > 12 {
		return ErrInvalidMeetingID
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ErrInvalidMeetingID
		}
	}
	return nil
}
