package formation

import (
	"errors"
	"fmt"
	"math"
)

// FormType is a Luxembourg legal form.
type FormType string

const (
	SARL  FormType = "SARL"
	SARLS FormType = "SARL-S"
	SA    FormType = "SA"
	SCSp  FormType = "SCSp"
	SOLE  FormType = "SOLE"
)

var (
	ErrUnknownForm         = errors.New("UNKNOWN_FORM_TYPE")
	ErrCapitalBelowMinimum = errors.New("CAPITAL_BELOW_MINIMUM")
	ErrCapitalAboveMaximum = errors.New("CAPITAL_ABOVE_MAXIMUM")
	ErrPaidUpOutOfRange    = errors.New("PAID_UP_OUT_OF_RANGE")
)

// FormRules are the statutory constraints of one legal form.
type FormRules struct {
	MinCapital     float64
	MaxCapital     float64
	MinManagers    int
	MinDirectors   int
	RequiresPaidUp bool
}

const (
	MinPaidUpPercent     = 25
	MaxPaidUpPercent     = 100
	DefaultPaidUpPercent = 100
)

// Rules is keyed by form type.
var Rules = map[FormType]FormRules{
	SARL:  {MinCapital: 12000, MaxCapital: math.Inf(1), MinManagers: 1},
	SARLS: {MinCapital: 1, MaxCapital: 100000, MinManagers: 1},
	SA:    {MinCapital: 30000, MaxCapital: math.Inf(1), MinDirectors: 3, RequiresPaidUp: true},
	SCSp:  {MinCapital: 0, MaxCapital: math.Inf(1), MinManagers: 1},
	SOLE:  {MinCapital: 0, MaxCapital: math.Inf(1)},
}

// FormTypes lists the forms in display order.
func FormTypes() []FormType {
	return []FormType{SARL, SARLS, SA, SCSp, SOLE}
}

// RulesFor looks up the rules of a form.
func RulesFor(form FormType) (FormRules, error) {
	r, ok := Rules[form]
	if !ok {
		return FormRules{}, fmt.Errorf("%w: %q", ErrUnknownForm, form)
	}
	return r, nil
}

// ValidateCapital checks amount against the form's bounds. The maximum only
// applies when it is finite.
func ValidateCapital(form FormType, amount float64) error {
	r, err := RulesFor(form)
	if err != nil {
		return err
	}
	if amount < r.MinCapital {
		return fmt.Errorf("%w: %s requires at least EUR %g", ErrCapitalBelowMinimum, form, r.MinCapital)
	}
	if !math.IsInf(r.MaxCapital, 1) && amount > r.MaxCapital {
		return fmt.Errorf("%w: %s allows at most EUR %g", ErrCapitalAboveMaximum, form, r.MaxCapital)
	}
	return nil
}

// ValidatePaidUp checks the paid-up share of capital for forms that require one.
func ValidatePaidUp(form FormType, percent float64) error {
	r, err := RulesFor(form)
	if err != nil {
		return err
	}
	if !r.RequiresPaidUp {
		return nil
	}
	if percent < MinPaidUpPercent || percent > MaxPaidUpPercent {
		return fmt.Errorf("%w: %g%% not in %d..%d", ErrPaidUpOutOfRange, percent, MinPaidUpPercent, MaxPaidUpPercent)
	}
	return nil
}
