package paycode

import (
	"strings"

	"github.com/ivlev/invoice-qr-bot/constants"
)

// Fault describes a single validation failure. Missing carries the names of
// the absent required keys when Reason is missing_fields.
type Fault struct {
	Reason  constants.Reason
	Missing []string
}

func (f *Fault) Error() string {
	if len(f.Missing) > 0 {
		return string(f.Reason) + ": " + strings.Join(f.Missing, ", ")
	}
	return string(f.Reason)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate enforces the payment-code contract on an encoded string and
// returns nil when the string may cross the encoder boundary. The checks are
// linear; retries live one level up in the pipeline.
func Validate(encoded string, rules Rules) *Fault {
	if !strings.HasPrefix(encoded, FormatTag+"|") {
		return &Fault{Reason: constants.ReasonNotRecognizedFormat}
	}

	fields := make(map[string]string)
	for _, seg := range strings.Split(encoded, "|")[1:] {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			return &Fault{Reason: constants.ReasonMalformedFields}
		}
		fields[k] = v
	}

	var missing []string
	for _, k := range RequiredKeys {
		if strings.TrimSpace(fields[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &Fault{Reason: constants.ReasonMissingFields, Missing: missing}
	}

	if d := Digits(fields["BIC"]); len(d) != rules.BICLen {
		return &Fault{Reason: constants.ReasonBadBIC}
	}
	if d := Digits(fields["PersonalAcc"]); len(d) != rules.AccountLen {
		return &Fault{Reason: constants.ReasonBadPayeeAccount}
	}
	if d := Digits(fields["CorrespAcc"]); len(d) != rules.AccountLen {
		return &Fault{Reason: constants.ReasonBadCorrespondentAccount}
	}

	sum := fields["Sum"]
	if !allDigits(sum) || strings.Trim(sum, "0") == "" {
		return &Fault{Reason: constants.ReasonBadAmount}
	}

	if strings.TrimSpace(fields["Purpose"]) == "" {
		return &Fault{Reason: constants.ReasonBadPurpose}
	}
	return nil
}
