package adapter

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeParams decodes driver params into out, a pointer to an options
// struct tagged with `mapstructure`. Unknown keys are rejected so a typo in a
// source definition fails loudly instead of being ignored. Scalar values are
// weakly typed ("true" decodes into a bool, "5432" into an int) because params
// often come from environment variables.
func DecodeParams(params Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build params decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(params)); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
