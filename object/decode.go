package object

import (
	"github.com/go-viper/mapstructure/v2"
)

// Decode copies rec's live values into dest, a pointer to a
// caller-defined struct, matching attribute names against `coreql`
// struct tags (falling back to the field name). This is the typed-
// destination counterpart to the string-keyed Get/Set accessor, for
// callers that want a concrete Go type rather than Record's map —
// built on go-viper/mapstructure/v2.
func Decode(rec *Record, dest any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "coreql",
		Result:           dest,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(rec.values)
}
