package sheet

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// Load parses a YAML definition into a validated Document.
//
// The raw YAML is walked node by node rather than unmarshalled into structs so
// that every schema problem carries a field path and a line number.
func Load(raw []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, newParseError(err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, &SchemaError{Reason: "定义为空"}
	}
	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, &SchemaError{Line: top.Line, Reason: "根节点必须是映射"}
	}
	fields := mappingFields(top)

	doc := &Document{}
	fnNode, ok := fields["filename"]
	if !ok {
		return nil, &SchemaError{Field: "filename", Reason: "缺少必填字段"}
	}
	fn, err := scalarText(fnNode, "filename")
	if err != nil {
		return nil, err
	}
	doc.Filename = strings.TrimSpace(fn)

	if titleNode, ok := fields["terminal_title"]; ok {
		if doc.Title, err = scalarText(titleNode, "terminal_title"); err != nil {
			return nil, err
		}
	}

	secNode, ok := fields["sections"]
	if !ok {
		return nil, &SchemaError{Field: "sections", Reason: "缺少必填字段"}
	}
	secNode = resolve(secNode)
	if secNode.Kind != yaml.SequenceNode {
		return nil, &SchemaError{Field: "sections", Line: secNode.Line, Reason: "必须是列表"}
	}
	doc.Sections = make([]Section, 0, len(secNode.Content))
	for si, n := range secNode.Content {
		sec, err := loadSection(n, si)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return Finish(doc)
}

// LoadReader reads all of r and calls Load.
func LoadReader(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Msg: "读取定义失败", Err: err}
	}
	return Load(raw)
}

func loadSection(n *yaml.Node, si int) (Section, error) {
	path := fmt.Sprintf("sections[%d]", si)
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return Section{}, &SchemaError{Field: path, Line: n.Line, Reason: "必须是映射"}
	}
	fields := mappingFields(n)
	var sec Section
	if t, ok := fields["title"]; ok {
		title, err := scalarText(t, path+".title")
		if err != nil {
			return Section{}, err
		}
		sec.Title = title
	}
	cmds, ok := fields["commands"]
	if !ok || isNull(cmds) {
		sec.Commands = []Command{}
		return sec, nil
	}
	cmds = resolve(cmds)
	if cmds.Kind != yaml.SequenceNode {
		return Section{}, &SchemaError{Field: path + ".commands", Line: cmds.Line, Reason: "必须是列表"}
	}
	sec.Commands = make([]Command, 0, len(cmds.Content))
	for ci, cn := range cmds.Content {
		cn = resolve(cn)
		if cn.Kind != yaml.MappingNode {
			return Section{}, &SchemaError{Field: fmt.Sprintf("%s.commands[%d]", path, ci), Line: cn.Line, Reason: "必须是映射"}
		}
		cf := mappingFields(cn)
		cmdNode, ok := cf["command"]
		if !ok {
			return Section{}, &SchemaError{Field: commandField(si, ci, "command"), Line: cn.Line, Reason: "缺少必填字段"}
		}
		text, err := scalarText(cmdNode, commandField(si, ci, "command"))
		if err != nil {
			return Section{}, err
		}
		entry := Command{Command: text}
		if d, ok := cf["description"]; ok {
			if entry.Description, err = scalarText(d, commandField(si, ci, "description")); err != nil {
				return Section{}, err
			}
		}
		sec.Commands = append(sec.Commands, entry)
	}
	return sec, nil
}

func mappingFields(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = n.Content[i+1]
	}
	return out
}

// scalarText accepts any scalar (numbers and booleans included) as text; null is empty.
func scalarText(n *yaml.Node, field string) (string, error) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return "", &SchemaError{Field: field, Line: n.Line, Reason: "必须是字符串"}
	}
	if n.Tag == "!!null" {
		return "", nil
	}
	return n.Value, nil
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func newParseError(err error) *ParseError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	pe := &ParseError{Msg: msg, Err: err}
	if m := yamlLinePattern.FindStringSubmatch(msg); len(m) == 2 {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			pe.Line = line
		}
	}
	return pe
}
