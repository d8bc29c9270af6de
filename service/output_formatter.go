package service

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ludo-technologies/flowstruct/domain"
	"golang.org/x/term"
)

const (
	nameColumnWidth   = 36
	statusColumnWidth = 12
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	colored bool
	showIDs bool
}

// NewOutputFormatter creates a new output formatter service
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WithColor enables colored status in text output
func (f *OutputFormatterImpl) WithColor(colored bool) *OutputFormatterImpl {
	f.colored = colored
	return f
}

// WithNodeIDs appends statement ids to rendered token lines
func (f *OutputFormatterImpl) WithNodeIDs(show bool) *OutputFormatterImpl {
	f.showIDs = show
	return f
}

// ApplyRequest takes the display options of a merged request. Colour is
// only used when the report goes to a terminal.
func (f *OutputFormatterImpl) ApplyRequest(req *domain.StructureRequest) {
	f.showIDs = req.ShowIDs
	f.colored = req.Color && req.OutputPath == "" && isTerminal(req.OutputWriter)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Format formats the response according to the specified format
func (f *OutputFormatterImpl) Format(response *domain.StructureResponse, format domain.OutputFormat) (string, error) {
	if response == nil {
		return "", domain.NewOutputError("nothing to format", nil)
	}
	switch format {
	case domain.OutputFormatText, "":
		return f.formatText(response), nil
	case domain.OutputFormatJSON:
		return EncodeJSON(response)
	case domain.OutputFormatYAML:
		return EncodeYAML(response)
	case domain.OutputFormatDOT:
		return f.formatDOT(response), nil
	case domain.OutputFormatMsgpack:
		data, err := EncodeMsgpack(response)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write writes the formatted output to the writer
func (f *OutputFormatterImpl) Write(response *domain.StructureResponse, format domain.OutputFormat, writer io.Writer) error {
	output, err := f.Format(response, format)
	if err != nil {
		return err
	}
	if format == domain.OutputFormatJSON {
		output += "\n"
	}
	if _, err := io.WriteString(writer, output); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

// formatText formats the response as human-readable text
func (f *OutputFormatterImpl) formatText(response *domain.StructureResponse) string {
	var builder strings.Builder
	utils := NewFormatUtils(f.colored)

	builder.WriteString(utils.FormatMainHeader("Control-Flow Structuring Report"))

	s := response.Summary
	builder.WriteString(utils.FormatSectionHeader("SUMMARY"))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Files Analyzed", s.FilesAnalyzed))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Total Methods", s.TotalMethods))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Structured", s.Structured))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Irreducible", s.Irreducible))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Aborted", s.Aborted))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Failed", s.Failed))
	if s.CacheHits > 0 {
		builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Cache Hits", s.CacheHits))
	}
	builder.WriteString(utils.FormatSectionSeparator())

	if len(response.Methods) > 0 {
		builder.WriteString(utils.FormatSectionHeader("METHOD DETAILS"))
		builder.WriteString(utils.FormatTableHeader(fmt.Sprintf("%-*s %-*s %7s %7s %9s",
			nameColumnWidth, "Method", statusColumnWidth, "Status", "Blocks", "Passes", "Generals")))
		for i := range response.Methods {
			m := &response.Methods[i]
			fmt.Fprintf(&builder, "%-*s %s %7d %7d %9d\n",
				nameColumnWidth, truncate(m.QualifiedName(), nameColumnWidth),
				utils.FormatStatus(m.Status, statusColumnWidth),
				m.Blocks, m.Passes, m.Generals)
			if m.Error != "" {
				builder.WriteString(strings.Repeat(" ", ItemPadding) + m.Error + "\n")
			}
			for _, c := range m.Comments {
				builder.WriteString(strings.Repeat(" ", ItemPadding) + "// " + c + "\n")
			}
		}
		builder.WriteString(utils.FormatSectionSeparator())
	}

	if kinds := statementTotals(response.Methods); len(kinds) > 0 {
		builder.WriteString(utils.FormatSectionHeader("STATEMENTS"))
		for _, k := range kinds {
			builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, k.name, k.count))
		}
		builder.WriteString(utils.FormatSectionSeparator())
	}

	for i := range response.Methods {
		m := &response.Methods[i]
		if len(m.Tokens) == 0 {
			continue
		}
		builder.WriteString(utils.FormatSectionHeader(m.QualifiedName()))
		builder.WriteString(RenderTokens(m.Tokens, f.showIDs))
		builder.WriteString(utils.FormatSectionSeparator())
	}

	builder.WriteString(utils.FormatWarningsSection(response.Warnings))
	builder.WriteString(utils.FormatErrorsSection(response.Errors))

	return builder.String()
}

// formatDOT concatenates the digraphs of all methods; methods without a
// graph are listed as comments
func (f *OutputFormatterImpl) formatDOT(response *domain.StructureResponse) string {
	var builder strings.Builder
	for i := range response.Methods {
		m := &response.Methods[i]
		if m.DOT == "" {
			fmt.Fprintf(&builder, "// %s: %s", m.QualifiedName(), m.Status)
			if m.Error != "" {
				builder.WriteString(": " + m.Error)
			}
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(m.DOT)
		if !strings.HasSuffix(m.DOT, "\n") {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

type kindCount struct {
	name  string
	count int
}

func statementTotals(methods []domain.MethodResult) []kindCount {
	totals := make(map[string]int)
	for i := range methods {
		for k, n := range methods[i].Statements {
			totals[k] += n
		}
	}
	out := make([]kindCount, 0, len(totals))
	for k, n := range totals {
		out = append(out, kindCount{name: k, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// RenderTokens lays a token stream out as indented pseudo-code
func RenderTokens(tokens []domain.Token, showIDs bool) string {
	var out strings.Builder
	var line strings.Builder
	lineDepth, lineNode := 0, -1

	flush := func() {
		if line.Len() == 0 {
			return
		}
		out.WriteString(strings.Repeat("  ", lineDepth))
		out.WriteString(line.String())
		if showIDs && lineNode >= 0 {
			fmt.Fprintf(&out, "  #%d", lineNode)
		}
		out.WriteString("\n")
		line.Reset()
		lineNode = -1
	}
	start := func(t domain.Token) {
		lineDepth, lineNode = t.Depth, t.Node
	}
	whole := func(t domain.Token, text string) {
		flush()
		start(t)
		line.WriteString(text)
		flush()
	}

	afterClose := false
	for _, t := range tokens {
		switch t.Kind {
		case "keyword":
			if afterClose && line.String() == "}" {
				line.WriteString(" " + t.Text)
			} else {
				flush()
				start(t)
				line.WriteString(t.Text)
			}
		case "condition", "catch":
			if line.Len() == 0 {
				start(t)
			}
			line.WriteString(" (" + t.Text + ")")
		case "open":
			if line.Len() == 0 {
				start(t)
				line.WriteString("{")
			} else {
				line.WriteString(" {")
			}
			flush()
		case "close":
			flush()
			start(t)
			line.WriteString("}")
		case "block":
			text := t.Text
			if t.Detail != "" {
				text += ": " + t.Detail
			}
			whole(t, text)
		case "jump":
			whole(t, t.Text+";")
		case "comment":
			whole(t, "// "+t.Text)
		default:
			whole(t, t.Text)
		}
		afterClose = t.Kind == "close"
	}
	flush()
	return out.String()
}
