package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data), nil
}

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// EncodeYAML returns a YAML string for the given value.
func EncodeYAML(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	if err := enc.Close(); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// EncodeMsgpack returns the MessagePack encoding of the given value. Map
// keys are sorted so equal values encode to equal bytes.
func EncodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, domain.NewOutputError("failed to encode msgpack", err)
	}
	return buf.Bytes(), nil
}

// Standard formatting constants
const (
	HeaderWidth    = 40
	SectionPadding = 2
	ItemPadding    = 4
)

// FormatUtils provides shared formatting utilities
type FormatUtils struct {
	colored bool
}

// NewFormatUtils creates a new format utilities instance; colored enables
// ANSI colors regardless of the terminal
func NewFormatUtils(colored bool) *FormatUtils {
	return &FormatUtils{colored: colored}
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(f.paint(title, color.Bold) + "\n")
	builder.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")
	return builder.String()
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(strings.ToUpper(title) + "\n")
	builder.WriteString(strings.Repeat("-", len(title)) + "\n")
	return builder.String()
}

// FormatSectionSeparator creates a section separator
func (f *FormatUtils) FormatSectionSeparator() string {
	return "\n"
}

// FormatLabelWithIndent creates a formatted label with specific indentation
func (f *FormatUtils) FormatLabelWithIndent(indent int, label string, value interface{}) string {
	return fmt.Sprintf("%s%s: %v\n", strings.Repeat(" ", indent), label, value)
}

// FormatDuration formats duration in milliseconds consistently
func (f *FormatUtils) FormatDuration(durationMs int64) string {
	return fmt.Sprintf("%dms", durationMs)
}

// FormatTableHeader creates a table header with consistent formatting
func (f *FormatUtils) FormatTableHeader(header string) string {
	return header + "\n" + strings.Repeat("-", len(header)) + "\n"
}

// FormatStatus pads a method status to width and colors it by severity.
// Padding happens before coloring so columns stay aligned.
func (f *FormatUtils) FormatStatus(status domain.MethodStatus, width int) string {
	text := fmt.Sprintf("%-*s", width, string(status))
	switch status {
	case domain.MethodStructured:
		return f.paint(text, color.FgGreen)
	case domain.MethodIrreducible:
		return f.paint(text, color.FgYellow)
	case domain.MethodAborted:
		return f.paint(text, color.FgMagenta)
	default:
		return f.paint(text, color.FgRed)
	}
}

// FormatWarningsSection creates a standardized warnings section
func (f *FormatUtils) FormatWarningsSection(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(f.FormatSectionHeader("WARNINGS"))
	for _, warning := range warnings {
		builder.WriteString(f.FormatLabelWithIndent(SectionPadding, f.paint("!", color.FgYellow), warning))
	}
	builder.WriteString(f.FormatSectionSeparator())
	return builder.String()
}

// FormatErrorsSection creates a standardized errors section
func (f *FormatUtils) FormatErrorsSection(errs []string) string {
	if len(errs) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(f.FormatSectionHeader("ERRORS"))
	for _, e := range errs {
		builder.WriteString(f.FormatLabelWithIndent(SectionPadding, f.paint("x", color.FgRed), e))
	}
	builder.WriteString(f.FormatSectionSeparator())
	return builder.String()
}

func (f *FormatUtils) paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if f.colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}
