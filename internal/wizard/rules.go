package wizard

import (
	"math"

	"opulanz-onboarding/internal/common/validation"
)

// PercentTolerance is how far a percentage split may drift from 100.
const PercentTolerance = 0.01

// ConsentsGiven reports whether every key of the nested consents object is true.
func ConsentsGiven(d Draft, keys ...string) []validation.ValidationError {
	consents := Draft(d.Map("consents"))
	var errs []validation.ValidationError
	for _, k := range keys {
		if !consents.Bool(k) {
			errs = append(errs, FieldError("consents."+k, validation.CodeRequired, "consent required"))
		}
	}
	return errs
}

// FlagsSet requires each top-level boolean to be true.
func FlagsSet(d Draft, keys ...string) []validation.ValidationError {
	var errs []validation.ValidationError
	for _, k := range keys {
		if !d.Bool(k) {
			errs = append(errs, FieldError(k, validation.CodeRequired, "must be confirmed"))
		}
	}
	return errs
}

// DocumentsReady passes when uploadLater is set or every required document id
// appears in the list under listKey. Entries with "uploaded": false do not count.
func DocumentsReady(d Draft, listKey string, required ...string) []validation.ValidationError {
	if d.Bool("uploadLater") {
		return nil
	}
	have := make(map[string]bool)
	for _, doc := range d.Maps(listKey) {
		if v, ok := doc["uploaded"]; ok && v != true {
			continue
		}
		have[doc.String("id")] = true
	}

	var errs []validation.ValidationError
	for _, id := range required {
		if !have[id] {
			errs = append(errs, FieldError(listKey, validation.CodeRequired, "document missing: "+id))
		}
	}
	return errs
}

// SumField adds up a numeric field across a list of objects. Unparseable values count as 0.
func SumField(items []Draft, key string) float64 {
	var total float64
	for _, it := range items {
		if v, ok := it.Float(key); ok {
			total += v
		}
	}
	return total
}

// TotalsHundred reports whether total is 100 within PercentTolerance.
func TotalsHundred(total float64) bool {
	return math.Abs(total-100) < PercentTolerance
}
