package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// exampleDocument holds a reducible, an irreducible and a malformed method
const exampleDocument = `class: demo/Example
methods:
  - name: max
    entry: 0
    exit: 99
    blocks:
      - id: 0
        instructions:
          - {op: if, text: "a > b", offset: 0}
        successors: [1, 2]
      - id: 1
        instructions:
          - {op: plain, text: "m = b", offset: 1}
        successors: [3]
      - id: 2
        instructions:
          - {op: plain, text: "m = a", offset: 2}
        successors: [3]
      - id: 3
        instructions:
          - {op: return, text: m, offset: 3}
        successors: [99]
  - name: twoEntries
    entry: 0
    exit: 99
    blocks:
      - id: 0
        instructions:
          - {op: if, text: c, offset: 0}
        successors: [1, 2]
      - id: 1
        instructions:
          - {op: plain, text: "a()", offset: 1}
        successors: [2]
      - id: 2
        instructions:
          - {op: plain, text: "b()", offset: 2}
        successors: [1]
  - name: broken
    entry: 0
    exit: 99
    blocks:
      - id: 0
        instructions:
          - {op: plain, text: "x = 1", offset: 0}
        successors: [7]
`

// guardedDocument is a JSON document with a try/catch method
const guardedDocument = `{
  "class": "demo/Guarded",
  "methods": [
    {
      "name": "typed",
      "entry": 0,
      "exit": 99,
      "blocks": [
        {"id": 0, "instructions": [{"op": "plain", "text": "read()", "offset": 0}], "successors": [3],
         "handlers": [{"handler": 1, "types": ["java/io/IOException"]}, {"handler": 2, "types": ["java/lang/RuntimeException"]}]},
        {"id": 1, "instructions": [{"op": "plain", "text": "log(e)", "offset": 1}], "successors": [3]},
        {"id": 2, "instructions": [{"op": "plain", "text": "fail(e)", "offset": 2}], "successors": [3]},
        {"id": 3, "instructions": [{"op": "return", "offset": 3}], "successors": [99]}
      ]
    }
  ]
}
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
