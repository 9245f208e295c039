package runtime

import (
	"fmt"
	"math"
	"superchat/domain/chat"
	"superchat/errors"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Storage keys carry the creation time as zero-padded unix nanoseconds,
// which only sort correctly between these bounds.
var (
	minCreatedAt = time.Unix(0, 0)
	maxCreatedAt = time.Unix(0, math.MaxInt64)
)

// MessageValidator enforces the rules every record must satisfy before it is
// written: non-blank text of bounded length, an author with a uid and, when
// set, a creation time after the unix epoch.
type MessageValidator struct {
	validate         *validator.Validate
	maxContentLength int
}

func NewMessageValidator(maxContentLength int) MessageValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	return MessageValidator{validate: validate, maxContentLength: maxContentLength}
}

func (v MessageValidator) Validate(message chat.Message) error {
	if err := v.validate.Struct(message); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	if v.maxContentLength > 0 && utf8.RuneCountInString(message.Text) > v.maxContentLength {
		return fmt.Errorf("%w: text longer than %d characters", errors.ErrInvalidMessage, v.maxContentLength)
	}
	// A zero time is filled in by the backend
	if at := message.CreatedAt; !at.IsZero() && (!at.After(minCreatedAt) || at.After(maxCreatedAt)) {
		return fmt.Errorf("%w: creation time %s out of range", errors.ErrInvalidMessage, at.UTC().Format(time.RFC3339))
	}
	return nil
}
