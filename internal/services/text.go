package services

import (
	"fmt"

	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/sanitizer"
)

// checkLength rejects free text over sanitizer.MaxTextLength instead of cutting it.
func checkLength(field, value string) error {
	if sanitizer.TooLong(value) {
		return apperrors.Validation(fmt.Sprintf("%s length must be less than or equal to %d", field, sanitizer.MaxTextLength))
	}
	return nil
}
