// Package schema parses the micro interface-declaration grammar used by
// per-document schemas and validates entity fields against it.
//
// The grammar is deliberately tiny:
//
//	interface Name { field[?]: Type; ... }
//
// where Type is a scalar (string, number, boolean, date, or a custom type
// name), an array T[], a Record<string, T> container, or a string-literal
// union ("a" | "b").
package schema

import (
	"strings"
	"sync"
	"unicode"
)

// TypeKind identifies a field type shape.
type TypeKind string

const (
	TypeString  TypeKind = "string"
	TypeNumber  TypeKind = "number"
	TypeBoolean TypeKind = "boolean"
	TypeDate    TypeKind = "date"
	TypeCustom  TypeKind = "custom"
	TypeArray   TypeKind = "array"
	TypeRecord  TypeKind = "record"
	TypeUnion   TypeKind = "union"
)

// FieldType describes the declared type of one field.
type FieldType struct {
	Kind TypeKind
	// Name is the custom type name for TypeCustom and the Record item type
	// name when the item is itself custom.
	Name string
	// Elem is the item type for TypeArray and TypeRecord.
	Elem *FieldType
	// Allowed holds the permitted literals for TypeUnion.
	Allowed []string
}

// Field is one parsed interface member.
type Field struct {
	Name     string
	Optional bool
	Type     FieldType
}

// Interface is the parsed form of an interface declaration.
type Interface struct {
	Name string
	// Fields maps field name to its declaration.
	Fields map[string]Field
	// Order preserves declaration order for rendering fallbacks.
	Order []string
}

// Record returns the declared Record item type for a field, if the field is
// declared Record<string, T>.
func (i *Interface) Record(field string) (FieldType, bool) {
	decl, ok := i.Fields[field]
	if !ok || decl.Type.Kind != TypeRecord || decl.Type.Elem == nil {
		return FieldType{}, false
	}
	return *decl.Type.Elem, true
}

var memo = struct {
	sync.RWMutex
	bySource map[string]*Interface
}{bySource: map[string]*Interface{}}

// Parse parses an interface declaration. It returns false for input that
// does not match the grammar. Results are memoized by exact source string:
// schema sources are re-validated on every mutation, so repeat parses are
// map lookups.
func Parse(source string) (*Interface, bool) {
	memo.RLock()
	cached, hit := memo.bySource[source]
	memo.RUnlock()
	if hit {
		return cached, cached != nil
	}

	parsed := parse(source)
	memo.Lock()
	memo.bySource[source] = parsed
	memo.Unlock()
	return parsed, parsed != nil
}

func parse(source string) *Interface {
	p := &parser{input: source}
	p.skipSpace()
	if !p.keyword("interface") {
		return nil
	}
	name, ok := p.identifier()
	if !ok {
		return nil
	}
	p.skipSpace()
	if !p.consume('{') {
		return nil
	}

	iface := &Interface{Name: name, Fields: map[string]Field{}}
	for {
		p.skipSpace()
		if p.consume('}') {
			break
		}
		field, ok := p.field()
		if !ok {
			return nil
		}
		if _, dup := iface.Fields[field.Name]; dup {
			return nil
		}
		iface.Fields[field.Name] = field
		iface.Order = append(iface.Order, field.Name)
	}
	p.skipSpace()
	if !p.done() {
		return nil
	}
	return iface
}

type parser struct {
	input string
	pos   int
}

func (p *parser) done() bool { return p.pos >= len(p.input) }

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) keyword(word string) bool {
	if strings.HasPrefix(p.input[p.pos:], word) {
		end := p.pos + len(word)
		if end < len(p.input) && isWordByte(p.input[end]) {
			return false
		}
		p.pos = end
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// identifier reads a leading-letter word. Interface and custom type names
// allow mixed case; field names are lowercased by convention but the grammar
// does not enforce it.
func (p *parser) identifier() (string, bool) {
	p.skipSpace()
	start := p.pos
	if p.pos >= len(p.input) {
		return "", false
	}
	c := p.input[p.pos]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return "", false
	}
	for p.pos < len(p.input) && isWordByte(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos], true
}

func (p *parser) field() (Field, bool) {
	name, ok := p.identifier()
	if !ok {
		return Field{}, false
	}
	field := Field{Name: name}
	p.skipSpace()
	if p.consume('?') {
		field.Optional = true
		p.skipSpace()
	}
	if !p.consume(':') {
		return Field{}, false
	}
	ft, ok := p.fieldType()
	if !ok {
		return Field{}, false
	}
	field.Type = ft
	p.skipSpace()
	if !p.consume(';') {
		return Field{}, false
	}
	return field, true
}

func (p *parser) fieldType() (FieldType, bool) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '"' {
		return p.union()
	}
	base, ok := p.baseType()
	if !ok {
		return FieldType{}, false
	}
	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], "[]") {
		p.pos += 2
		elem := base
		return FieldType{Kind: TypeArray, Elem: &elem}, true
	}
	return base, true
}

func (p *parser) baseType() (FieldType, bool) {
	name, ok := p.identifier()
	if !ok {
		return FieldType{}, false
	}
	switch name {
	case "string":
		return FieldType{Kind: TypeString}, true
	case "number":
		return FieldType{Kind: TypeNumber}, true
	case "boolean":
		return FieldType{Kind: TypeBoolean}, true
	case "date":
		return FieldType{Kind: TypeDate}, true
	case "Record":
		return p.record()
	}
	return FieldType{Kind: TypeCustom, Name: name}, true
}

func (p *parser) record() (FieldType, bool) {
	p.skipSpace()
	if !p.consume('<') {
		return FieldType{}, false
	}
	key, ok := p.identifier()
	if !ok || key != "string" {
		return FieldType{}, false
	}
	p.skipSpace()
	if !p.consume(',') {
		return FieldType{}, false
	}
	elem, ok := p.fieldType()
	if !ok {
		return FieldType{}, false
	}
	p.skipSpace()
	if !p.consume('>') {
		return FieldType{}, false
	}
	name := ""
	if elem.Kind == TypeCustom {
		name = elem.Name
	}
	return FieldType{Kind: TypeRecord, Name: name, Elem: &elem}, true
}

func (p *parser) union() (FieldType, bool) {
	var allowed []string
	for {
		literal, ok := p.stringLiteral()
		if !ok {
			return FieldType{}, false
		}
		allowed = append(allowed, literal)
		p.skipSpace()
		if !p.consume('|') {
			break
		}
		p.skipSpace()
	}
	return FieldType{Kind: TypeUnion, Allowed: allowed}, true
}

func (p *parser) stringLiteral() (string, bool) {
	p.skipSpace()
	if !p.consume('"') {
		return "", false
	}
	start := p.pos
	for p.pos < len(p.input) {
		if p.input[p.pos] == '"' {
			literal := p.input[start:p.pos]
			p.pos++
			return literal, true
		}
		p.pos++
	}
	return "", false
}
