package token

import (
	"encoding/base32"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// Spotify's web player signs token requests with a TOTP whose secret is
// embedded in the player bundle. Two scheme generations are still accepted
// upstream; the version travels alongside the code as `totpVer`.
const (
	totpPeriod = 30
	totpDigits = otp.DigitsSix
)

// secretV8 is the fixed ASCII secret of the current scheme.
var secretV8 = []byte("449443649084886328893534571041315")

// secretV5 derives the older scheme's secret from its obfuscated cipher:
// each byte is XORed with (index%33 + 9) and the results are concatenated
// as decimal digits.
func secretV5() []byte {
	cipher := []int{12, 56, 76, 33, 88, 44, 88, 33, 78, 78, 11, 66, 22, 22, 55, 69, 54}

	var digits string
	for i, b := range cipher {
		digits += fmt.Sprintf("%d", b^(i%33+9))
	}
	return []byte(digits)
}

// TOTP derives one-time codes for the token endpoint. The zero value is not
// usable; construct with NewTOTP.
type TOTP struct {
	secret  string // base32, as the otp library expects
	Version int
	period  int64
	digits  otp.Digits
}

// NewTOTP returns the generator for the given scheme version. Unknown
// versions fall back to the current scheme.
func NewTOTP(version int) *TOTP {
	secret := secretV8
	if version == 5 {
		secret = secretV5()
	} else {
		version = 8
	}

	return &TOTP{
		secret:  base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret),
		Version: version,
		period:  totpPeriod,
		digits:  totpDigits,
	}
}

// Generate derives the 6-digit zero-padded code for the given timestamp in
// milliseconds. Pure: identical timestamps within one period window yield
// identical codes. A wrong secret or clock skew surfaces upstream as an
// authentication failure, never as a local error.
func (t *TOTP) Generate(timestampMs int64) string {
	counter := uint64(timestampMs / t.period)

	code, err := hotp.GenerateCodeCustom(t.secret, counter, hotp.ValidateOpts{
		Digits:    t.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// Only reachable with an invalid base32 secret, which NewTOTP
		// cannot produce.
		return ""
	}
	return code
}
