package service

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

func sampleResponse() *domain.StructureResponse {
	resp := &domain.StructureResponse{
		Methods: []domain.MethodResult{
			{
				File: "a.yaml", Class: "demo/Example", Method: "max",
				Status: domain.MethodStructured, Blocks: 4, Passes: 2,
				Statements: map[string]int{"If": 1, "Block": 4},
				Hash:       "h1",
				DOT:        "digraph \"max\" {\n}\n",
				Tokens: []domain.Token{
					{Kind: "block", Text: "B0", Node: 3},
					{Kind: "keyword", Text: "if", Node: 7},
					{Kind: "condition", Text: "a > b", Node: 7},
					{Kind: "open", Text: "{", Node: 7},
					{Kind: "block", Text: "B1", Detail: "m = b", Depth: 1, Node: 4},
					{Kind: "close", Text: "}", Node: 7},
					{Kind: "keyword", Text: "else", Node: 7},
					{Kind: "open", Text: "{", Node: 7},
					{Kind: "block", Text: "B2", Detail: "m = a", Depth: 1, Node: 5},
					{Kind: "close", Text: "}", Node: 7},
					{Kind: "block", Text: "B3", Detail: "return m", Node: 6},
					{Kind: "jump", Text: "return", Node: 6},
				},
			},
			{
				File: "a.yaml", Class: "demo/Example", Method: "broken",
				Status: domain.MethodFailed, Error: "graph rejected", ErrorCode: domain.ErrCodeInvalidInput,
			},
		},
		Warnings:    []string{"[b.yaml] No methods matched"},
		GeneratedAt: "2026-01-01T00:00:00Z",
		Version:     "test",
	}
	for i := range resp.Methods {
		resp.Summary.Add(&resp.Methods[i])
	}
	resp.Summary.FilesAnalyzed = 1
	return resp
}

func TestOutputFormatter_Text(t *testing.T) {
	out, err := NewOutputFormatter().Format(sampleResponse(), domain.OutputFormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "Control-Flow Structuring Report")
	assert.Contains(t, out, "Total Methods: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "demo/Example.max")
	assert.Contains(t, out, "graph rejected")
	assert.Contains(t, out, "If: 1")
	assert.Contains(t, out, "WARNINGS")
	assert.NotContains(t, out, "\x1b[", "no color unless enabled")
	assert.NotContains(t, out, "Cache Hits")

	colored, err := NewOutputFormatter().WithColor(true).Format(sampleResponse(), domain.OutputFormatText)
	require.NoError(t, err)
	assert.Contains(t, colored, "\x1b[")
}

func TestRenderTokens(t *testing.T) {
	out := RenderTokens(sampleResponse().Methods[0].Tokens, false)
	want := strings.Join([]string{
		"B0",
		"if (a > b) {",
		"  B1: m = b",
		"} else {",
		"  B2: m = a",
		"}",
		"B3: return m",
		"return;",
		"",
	}, "\n")
	assert.Equal(t, want, out)

	withIDs := RenderTokens(sampleResponse().Methods[0].Tokens, true)
	assert.Contains(t, withIDs, "if (a > b) {  #7")
	assert.Contains(t, withIDs, "  B1: m = b  #4")
}

func TestRenderTokens_DoWhile(t *testing.T) {
	tokens := []domain.Token{
		{Kind: "keyword", Text: "do"},
		{Kind: "open", Text: "{"},
		{Kind: "block", Text: "B1", Depth: 1},
		{Kind: "close", Text: "}"},
		{Kind: "keyword", Text: "while"},
		{Kind: "condition", Text: "i < n"},
		{Kind: "label", Text: "label4:"},
	}
	assert.Equal(t, "do {\n  B1\n} while (i < n)\nlabel4:\n", RenderTokens(tokens, false))
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOutputFormatter().Write(sampleResponse(), domain.OutputFormatJSON, &buf))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	methods := decoded["methods"].([]interface{})
	require.Len(t, methods, 2)
	first := methods[0].(map[string]interface{})
	assert.Equal(t, "structured", first["status"])
	assert.NotContains(t, first, "dot", "DOT is not part of JSON output")
	assert.Equal(t, float64(1), decoded["summary"].(map[string]interface{})["failed"])
}

func TestOutputFormatter_YAML(t *testing.T) {
	out, err := NewOutputFormatter().Format(sampleResponse(), domain.OutputFormatYAML)
	require.NoError(t, err)

	var decoded domain.StructureResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleResponse().Summary, decoded.Summary)
	assert.Equal(t, "max", decoded.Methods[0].Method)
	assert.Contains(t, out, "error_code: INVALID_INPUT")
}

func TestOutputFormatter_Msgpack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOutputFormatter().Write(sampleResponse(), domain.OutputFormatMsgpack, &buf))

	var decoded domain.StructureResponse
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleResponse().Summary, decoded.Summary)
	assert.Equal(t, sampleResponse().Methods[0].DOT, decoded.Methods[0].DOT)
}

func TestOutputFormatter_DOT(t *testing.T) {
	out, err := NewOutputFormatter().Format(sampleResponse(), domain.OutputFormatDOT)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `digraph "max"`))
	assert.Contains(t, out, "// demo/Example.broken: failed: graph rejected")
}

func TestOutputFormatter_Unsupported(t *testing.T) {
	_, err := NewOutputFormatter().Format(sampleResponse(), domain.OutputFormat("csv"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))

	_, err = NewOutputFormatter().Format(nil, domain.OutputFormatText)
	assert.Error(t, err)
}

func TestOutputFormatResolver(t *testing.T) {
	r := NewOutputFormatResolver()

	format, ext, err := r.Determine(false, false, false, false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutputFormatText, format)
	assert.Equal(t, "txt", ext)

	format, ext, err = r.Determine(false, false, true, false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutputFormatDOT, format)
	assert.Equal(t, "dot", ext)

	_, _, err = r.Determine(true, true, false, false)
	assert.Error(t, err)
}

func TestFileOutputWriter(t *testing.T) {
	var status, direct bytes.Buffer
	w := NewFileOutputWriter(&status)

	write := func(out io.Writer) error {
		_, err := io.WriteString(out, "hello")
		return err
	}

	require.NoError(t, w.Write(&direct, "", domain.OutputFormatText, write))
	assert.Equal(t, "hello", direct.String())
	assert.Empty(t, status.String())

	path := filepath.Join(t.TempDir(), "reports", "out.json")
	require.NoError(t, w.Write(&direct, path, domain.OutputFormatJSON, write))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Contains(t, status.String(), "JSON report generated: ")

	err = w.Write(&direct, "", domain.OutputFormatText, func(io.Writer) error { return assert.AnError })
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeOutputError, domain.ErrorCode(err))
}
