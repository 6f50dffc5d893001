package sheet

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gitYAML = `
filename: git_cheatsheet
terminal_title: Git Cheatsheet
sections:
  - title: Basics
    commands:
      - command: git init
        description: Create an empty repository
      - command: git status
  - title: Empty
    commands: []
  - title: Search
    commands:
      - command: grep -e "<pattern>" file
        description: Lines matching <pattern> & more
`

func TestLoadValidDocument(t *testing.T) {
	doc, err := Load([]byte(gitYAML))
	require.NoError(t, err)

	assert.Equal(t, "git_cheatsheet", doc.Filename)
	assert.Equal(t, "Git Cheatsheet", doc.Title)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Basics", doc.Sections[0].Title)
	assert.Equal(t, []Command{
		{Command: "git init", Description: "Create an empty repository"},
		{Command: "git status", Description: ""},
	}, doc.Sections[0].Commands)
	assert.Empty(t, doc.Sections[1].Commands)
	assert.Equal(t, `grep -e "<pattern>" file`, doc.Sections[2].Commands[0].Command)
	assert.Equal(t, 3, doc.EntryCount())
}

func TestLoadDefaultsTitleToFilename(t *testing.T) {
	doc, err := Load([]byte("filename: tmux\nsections: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "tmux", doc.Title)
	assert.Empty(t, doc.Sections)
}

func TestLoadAcceptsNonStringScalars(t *testing.T) {
	doc, err := Load([]byte("filename: 2024\nsections:\n  - title: 1\n    commands:\n      - command: true\n        description: ~\n"))
	require.NoError(t, err)
	assert.Equal(t, "2024", doc.Filename)
	assert.Equal(t, "1", doc.Sections[0].Title)
	assert.Equal(t, "true", doc.Sections[0].Commands[0].Command)
	assert.Equal(t, "", doc.Sections[0].Commands[0].Description)
}

func TestLoadNormalizesToNFC(t *testing.T) {
	// "e" + combining acute accent
	doc, err := Load([]byte("filename: cafe\nsections:\n  - title: \"Cafe\\u0301\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", doc.Sections[0].Title)
}

func TestLoadSchemaErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		field string
	}{
		{"missing filename", "sections: []\n", "filename"},
		{"empty filename", "filename: \"\"\nsections: []\n", "filename"},
		{"unsafe filename", "filename: ../etc/passwd\nsections: []\n", "filename"},
		{"filename is a list", "filename: [a]\nsections: []\n", "filename"},
		{"missing sections", "filename: a\n", "sections"},
		{"sections not a list", "filename: a\nsections: {title: x}\n", "sections"},
		{"sections null", "filename: a\nsections:\n", "sections"},
		{"section not a mapping", "filename: a\nsections:\n  - just text\n", "sections[0]"},
		{"commands not a list", "filename: a\nsections:\n  - title: x\n    commands: nope\n", "sections[0].commands"},
		{"missing command", "filename: a\nsections:\n  - title: x\n    commands:\n      - description: d\n", "sections[0].commands[0].command"},
		{"blank command", "filename: a\nsections:\n  - title: x\n    commands:\n      - command: ok\n      - command: \"  \"\n", "sections[0].commands[1].command"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.input))
			var se *SchemaError
			require.True(t, errors.As(err, &se), "want SchemaError, got %v", err)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestLoadRootMustBeMapping(t *testing.T) {
	for _, input := range []string{"", "just a string\n", "- a\n- b\n"} {
		_, err := Load([]byte(input))
		var se *SchemaError
		assert.True(t, errors.As(err, &se), "input %q: got %v", input, err)
	}
}

func TestLoadParseError(t *testing.T) {
	_, err := Load([]byte("filename: a: b\nsections: []\n"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
	assert.Greater(t, pe.Line, 0)

	var se *SchemaError
	assert.False(t, errors.As(err, &se))
}

func TestLoadReader(t *testing.T) {
	doc, err := LoadReader(strings.NewReader(gitYAML))
	require.NoError(t, err)
	assert.Equal(t, "git_cheatsheet", doc.Filename)

	_, err = LoadReader(iotest.ErrReader(errors.New("disk gone")))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.EqualError(t, errors.Unwrap(err), "disk gone")
}

func TestFinishRejectsNil(t *testing.T) {
	_, err := Finish(nil)
	var se *SchemaError
	assert.True(t, errors.As(err, &se))
}
