package service

import (
	"unicode/utf8"

	"backend/pkg/apperr"
)

const minOrgNameLen = 2

// taxCodeWeights are the per-digit weights of the 10-digit tax code
// checksum: the last digit must equal 10 - (weighted sum mod 11).
var taxCodeWeights = [9]int{31, 29, 23, 19, 17, 13, 7, 5, 3}

func validateOrgName(name string) error {
	if utf8.RuneCountInString(name) < minOrgNameLen {
		return apperr.Validation("name must be at least %d characters", minOrgNameLen)
	}
	return nil
}

// validateTaxCode checks the fixed 10-digit checksum format. An empty tax
// code is allowed; the field is optional.
func validateTaxCode(code string) error {
	if code == "" {
		return nil
	}
	if len(code) != 10 {
		return apperr.Validation("tax code must be exactly 10 digits")
	}

	sum := 0
	for i := 0; i < 9; i++ {
		d := int(code[i] - '0')
		if d < 0 || d > 9 {
			return apperr.Validation("tax code must contain only digits")
		}
		sum += d * taxCodeWeights[i]
	}

	last := int(code[9] - '0')
	if last < 0 || last > 9 {
		return apperr.Validation("tax code must contain only digits")
	}

	if check := 10 - sum%11; check != last {
		return apperr.Validation("tax code checksum mismatch")
	}
	return nil
}
