package runtime

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "message-room/errors"
)

var validate = validator.New()

type joinRequest struct {
	Username string `validate:"required,max=50"`
}

// ValidateUsername enforces the join policy: non-empty, at most 50
// characters, letters/digits/underscore/hyphen only.
func ValidateUsername(username string) error {
	if err := validate.Struct(joinRequest{Username: username}); err != nil {
		if username == "" {
			return apperrors.ErrEmptyUsername
		}
		return apperrors.ErrUsernameTooLong
	}

	if !isUsernameAllowed(username) {
		return apperrors.ErrUsernameInvalid
	}
	return nil
}

func isUsernameAllowed(s string) bool {
	for _, char := range s {
		switch {
		case unicode.IsLetter(char):
		case unicode.IsDigit(char):
		case char == '_' || char == '-':
		default:
			return false
		}
	}
	return true
}
