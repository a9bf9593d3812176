package identity

import (
	"strings"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion is used for numbers written without an international prefix
const DefaultPhoneRegion = "IT"

// ErrInvalidPhone is returned for numbers that cannot be dialled
var ErrInvalidPhone = shared.NewDomainError("INVALID_PHONE", "Phone number is not valid")

// NormalizePhone parses a phone number and returns it in E.164 form.
// An empty input yields an empty result.
func NormalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
