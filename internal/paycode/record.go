// Package paycode builds, validates and rasterizes ST00012 payment codes
// (GOST R 56042-2014) from extracted invoice fields.
package paycode

// FormatTag is segment 0 of every encoded payment string.
const FormatTag = "ST00012"

// RequiredKeys are the mandatory ST00012 keys, in canonical encoding order.
var RequiredKeys = []string{"Name", "PersonalAcc", "BankName", "BIC", "CorrespAcc", "Sum", "Purpose"}

// OptionalKeys are appended after the required keys, only when non-empty.
var OptionalKeys = []string{"PayeeINN", "KPP"}

// Record is the canonical extracted invoice payload. Field names follow the
// ST00012 wire keys. Sum is an unsigned integer string in kopecks.
type Record struct {
	Name        string
	PersonalAcc string
	BankName    string
	BIC         string
	CorrespAcc  string
	Sum         string
	Purpose     string
	PayeeINN    string
	KPP         string
}

// FromMap builds a Record from a raw field map without any normalization.
func FromMap(fields map[string]string) Record {
	return Record{
		Name:        fields["Name"],
		PersonalAcc: fields["PersonalAcc"],
		BankName:    fields["BankName"],
		BIC:         fields["BIC"],
		CorrespAcc:  fields["CorrespAcc"],
		Sum:         fields["Sum"],
		Purpose:     fields["Purpose"],
		PayeeINN:    fields["PayeeINN"],
		KPP:         fields["KPP"],
	}
}

// ToMap returns the record as a wire-key field map. Empty optionals are
// omitted so the map round-trips through FromMap.
func (r Record) ToMap() map[string]string {
	m := map[string]string{
		"Name":        r.Name,
		"PersonalAcc": r.PersonalAcc,
		"BankName":    r.BankName,
		"BIC":         r.BIC,
		"CorrespAcc":  r.CorrespAcc,
		"Sum":         r.Sum,
		"Purpose":     r.Purpose,
	}
	if r.PayeeINN != "" {
		m["PayeeINN"] = r.PayeeINN
	}
	if r.KPP != "" {
		m["KPP"] = r.KPP
	}
	return m
}

// get returns the record field for a wire key.
func (r Record) get(key string) string {
	switch key {
	case "Name":
		return r.Name
	case "PersonalAcc":
		return r.PersonalAcc
	case "BankName":
		return r.BankName
	case "BIC":
		return r.BIC
	case "CorrespAcc":
		return r.CorrespAcc
	case "Sum":
		return r.Sum
	case "Purpose":
		return r.Purpose
	case "PayeeINN":
		return r.PayeeINN
	case "KPP":
		return r.KPP
	}
	return ""
}

// NonEmptyCount reports how many recognized fields carry a value. The retry
// controller uses it to pick the more informative of two failed attempts.
func (r Record) NonEmptyCount() int {
	n := 0
	for _, k := range append(append([]string{}, RequiredKeys...), OptionalKeys...) {
		if r.get(k) != "" {
			n++
		}
	}
	return n
}

// Rules holds the locale-specific digit-length constants. The ST00012
// defaults are Russian; the pipeline shape does not depend on the values.
type Rules struct {
	BICLen        int
	AccountLen    int
	TaxIDLens     []int
	TaxRegCodeLen int
}

// DefaultRules returns the ST00012 (Russia) validation constants.
func DefaultRules() Rules {
	return Rules{
		BICLen:        9,
		AccountLen:    20,
		TaxIDLens:     []int{10, 12},
		TaxRegCodeLen: 9,
	}
}
