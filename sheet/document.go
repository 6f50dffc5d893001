// Package sheet defines the validated cheatsheet document model and loads it
// from YAML definitions.
package sheet

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Document 是校验后的速查表定义。下游组件只消费此类型。
type Document struct {
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section 是一组命令；Commands 可以为空（仅渲染标题）。
type Section struct {
	Title    string    `json:"title"`
	Commands []Command `json:"commands"`
}

// Command 是一条命令及其说明。
type Command struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// EntryCount returns the number of commands across all sections.
func (d *Document) EntryCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Commands)
	}
	return n
}

var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate enforces the invariants shared by every input format.
func Validate(doc *Document) error {
	if doc == nil {
		return &SchemaError{Reason: "文档为空"}
	}
	if strings.TrimSpace(doc.Filename) == "" {
		return &SchemaError{Field: "filename", Reason: "缺少或为空"}
	}
	if !filenamePattern.MatchString(doc.Filename) {
		return &SchemaError{Field: "filename", Reason: "包含不安全的字符: " + doc.Filename}
	}
	for si, sec := range doc.Sections {
		for ci, cmd := range sec.Commands {
			if strings.TrimSpace(cmd.Command) == "" {
				return &SchemaError{Field: commandField(si, ci, "command"), Reason: "不能为空"}
			}
		}
	}
	return nil
}

// normalize 统一为 NFC，并在缺少标题时使用 filename。
func normalize(doc *Document) {
	doc.Filename = norm.NFC.String(doc.Filename)
	doc.Title = norm.NFC.String(doc.Title)
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = doc.Filename
	}
	for si := range doc.Sections {
		sec := &doc.Sections[si]
		sec.Title = norm.NFC.String(sec.Title)
		for ci := range sec.Commands {
			sec.Commands[ci].Command = norm.NFC.String(sec.Commands[ci].Command)
			sec.Commands[ci].Description = norm.NFC.String(sec.Commands[ci].Description)
		}
	}
}

// Finish normalizes and validates a document built by any front end.
func Finish(doc *Document) (*Document, error) {
	if doc == nil {
		return nil, &SchemaError{Reason: "文档为空"}
	}
	normalize(doc)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
