package variant

import (
	"context"

	"github.com/minazuki-dev/zhconv/pkg/dict"
	"gitlab.com/tozd/go/errors"
)

// Transform applies the dictionary and the bulk script conversion in
// the direction-dependent order.
//
// Forward runs the generic conversion first and the dictionary second,
// so dictionary entries override whatever the generic conversion
// produced. Reverse runs the dictionary first and the conversion
// second, undoing dictionary-specific substitutions before collapsing
// script variants. The two orders are not interchangeable.
func Transform(ctx context.Context, text string, rules *dict.RuleSet, converter Converter) (string, error) {
	if rules.Direction == dict.Reverse {
		text = rules.Apply(text)
		return converter.Convert(ctx, text, rules.Direction)
	}

	converted, err := converter.Convert(ctx, text, rules.Direction)
	if err != nil {
		return "", err
	}
	return rules.Apply(converted), nil
}

// TransformValue applies Transform to every string leaf of a decoded
// JSON value, returning a transformed copy. Maps and slices are
// rebuilt; the input value is never mutated.
func TransformValue(ctx context.Context, value any, rules *dict.RuleSet, converter Converter) (any, error) {
	switch v := value.(type) {
	case string:
		return Transform(ctx, v, rules, converter)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			transformed, err := TransformValue(ctx, elem, rules, converter)
			if err != nil {
				return nil, errors.Errorf("transforming field %q: %w", key, err)
			}
			out[key] = transformed
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			transformed, err := TransformValue(ctx, elem, rules, converter)
			if err != nil {
				return nil, errors.Errorf("transforming element %d: %w", i, err)
			}
			out[i] = transformed
		}
		return out, nil
	default:
		return value, nil
	}
}
