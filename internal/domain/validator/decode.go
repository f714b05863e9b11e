package validator

import (
	"encoding/json"

	"kitabu/internal/pkg/errs"
)

var (
	ErrUnknownKind   = errs.New("unknown validator kind")
	ErrInvalidParams = errs.New("invalid validator params")
)

// Decode resolves a persisted (kind, params) pair to its concrete rule.
// Every stored validator resolves to exactly one variant; unknown kinds and
// unregistered static predicates fail here, before any candidate is
// evaluated.
func Decode(kind Kind, params []byte, registry *Registry) (Rule, error) {
	var rule Rule

	switch kind {
	case KindFullTime:
		rule = &FullTime{}
	case KindTimeInterval:
		rule = &TimeInterval{}
	case KindWithinPeriod:
		rule = &WithinPeriod{}
	case KindNotWithinPeriod:
		rule = &NotWithinPeriod{}
	case KindPeriodsInWeekdays:
		rule = &PeriodsInWeekdays{}
	case KindMaxDuration:
		rule = &MaxDuration{}
	case KindMaxReservationsPerUser:
		rule = &MaxReservationsPerUser{}
	case KindStatic:
		s := &Static{}
		if err := json.Unmarshal(params, s); err != nil {
			return nil, errs.Mark(errs.Wrapf(err, "failed to decode %s validator params", kind), ErrInvalidParams)
		}
		if registry == nil {
			return nil, errs.New("static validator requires a registry")
		}
		fn, err := registry.Resolve(s.Name)
		if err != nil {
			return nil, err
		}
		s.fn = fn
		return s, nil
	default:
		return nil, errs.Mark(errs.Newf("unknown validator kind %q", kind), ErrUnknownKind)
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, rule); err != nil {
			return nil, errs.Mark(errs.Wrapf(err, "failed to decode %s validator params", kind), ErrInvalidParams)
		}
	}
	return rule, nil
}

// EncodeParams serializes a rule's parameters for persistence alongside its
// kind discriminator.
func EncodeParams(rule Rule) ([]byte, error) {
	params, err := json.Marshal(rule)
	if err != nil {
		return nil, errs.Wrapf(err, "failed to encode %s validator params", rule.Kind())
	}
	return params, nil
}
