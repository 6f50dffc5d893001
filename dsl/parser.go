package dsl

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/termsheet/sheet"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Ident", Pattern: `[A-Za-z0-9_][A-Za-z0-9_.-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	sheetParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is the root AST node of a .sheet definition:
//
//	sheet git_cheatsheet "Git Cheatsheet" {
//	  section "Basics" {
//	    "git init" : "Create an empty repository"
//	    "git status"
//	  }
//	}
type File struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Filename string         `parser:"Newline* 'sheet' @Ident"`
	Title    *StringLiteral `parser:"@String?"`
	Sections []*SectionNode `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// SectionNode is a titled block of entries.
type SectionNode struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Title   StringLiteral  `parser:"'section' @String"`
	Entries []*EntryNode   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// EntryNode is one command with an optional description.
type EntryNode struct {
	Pos         lexer.Position `parser:"" json:"-"`
	Command     StringLiteral  `parser:"@String"`
	Description *StringLiteral `parser:"( ':' @String )?"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// ParseAST parses .sheet content into its syntax tree without validation.
func ParseAST(r io.Reader) (*File, error) {
	f, err := sheetParser.Parse("", r)
	if err != nil {
		return nil, toParseError(err)
	}
	return f, nil
}

// Parse parses .sheet content into a validated document.
func Parse(r io.Reader) (*sheet.Document, error) {
	f, err := ParseAST(r)
	if err != nil {
		return nil, err
	}
	return sheet.Finish(f.Document())
}

// Document converts the syntax tree into the shared model.
func (f *File) Document() *sheet.Document {
	doc := &sheet.Document{Filename: f.Filename, Sections: make([]sheet.Section, 0, len(f.Sections))}
	if f.Title != nil {
		doc.Title = string(*f.Title)
	}
	for _, s := range f.Sections {
		sec := sheet.Section{Title: string(s.Title), Commands: make([]sheet.Command, 0, len(s.Entries))}
		for _, e := range s.Entries {
			cmd := sheet.Command{Command: string(e.Command)}
			if e.Description != nil {
				cmd.Description = string(*e.Description)
			}
			sec.Commands = append(sec.Commands, cmd)
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

func toParseError(err error) error {
	pe := &sheet.ParseError{Msg: err.Error(), Err: err}
	var perr participle.Error
	if errors.As(err, &perr) {
		pe.Line = perr.Position().Line
		pe.Msg = perr.Message()
	}
	return pe
}
