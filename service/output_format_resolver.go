package service

import (
	"fmt"

	"github.com/ludo-technologies/flowstruct/domain"
)

// OutputFormatResolver resolves output format and file extension from flags.
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine evaluates format flags and returns the selected format and extension.
// At most one of json/yaml/dot/msgpack may be true; if none are true, defaults to text.
func (r *OutputFormatResolver) Determine(json, yaml, dot, msgpack bool) (domain.OutputFormat, string, error) {
	formatCount := 0
	var format domain.OutputFormat
	var ext string

	if json {
		formatCount++
		format = domain.OutputFormatJSON
		ext = "json"
	}
	if yaml {
		formatCount++
		format = domain.OutputFormatYAML
		ext = "yaml"
	}
	if dot {
		formatCount++
		format = domain.OutputFormatDOT
		ext = "dot"
	}
	if msgpack {
		formatCount++
		format = domain.OutputFormatMsgpack
		ext = "msgpack"
	}

	if formatCount > 1 {
		return "", "", fmt.Errorf("only one output format flag can be specified")
	}
	if formatCount == 0 {
		return domain.OutputFormatText, "txt", nil
	}
	return format, ext, nil
}
