package timing

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SiteIdentity names the operation a site instruments
type SiteIdentity struct {
	Package     string
	Type        string
	Method      string
	Constructor bool
}

// Key is the stable registry key for the identity
func (id SiteIdentity) Key() string {
	var b strings.Builder
	if id.Package != "" {
		b.WriteString(id.Package)
		b.WriteByte('.')
	}
	if id.Type != "" {
		b.WriteString(id.Type)
		b.WriteByte('.')
	}
	if id.Constructor {
		b.WriteString("new ")
		b.WriteString(id.Type)
	} else {
		b.WriteString(id.Method)
	}
	return b.String()
}

// DisplayNameResolver turns an identity into the label printed in reports.
// It runs once per site, at registration.
type DisplayNameResolver func(id SiteIdentity, prefixType bool) string

// DefaultDisplayName renders "Method()", "Type.Method()" or "new Type()".
func DefaultDisplayName(id SiteIdentity, prefixType bool) string {
	var b strings.Builder
	if prefixType && id.Type != "" {
		b.WriteString(id.Type)
		b.WriteByte('.')
	}
	if id.Constructor {
		b.WriteString("new ")
		b.WriteString(id.Type)
	} else {
		b.WriteString(id.Method)
	}
	b.WriteString("()")
	return b.String()
}

// Method builds an identity for a method on a type
func Method(typeName, method string) SiteIdentity {
	return SiteIdentity{Type: typeName, Method: method}
}

// Func builds an identity for a free function
func Func(name string) SiteIdentity {
	return SiteIdentity{Method: name}
}

// Constructor builds an identity for the constructor of a type
func Constructor(typeName string) SiteIdentity {
	return SiteIdentity{Type: typeName, Constructor: true}
}

// IdentityOf derives an identity from a function or method value using the
// runtime symbol table. It returns the zero identity for non-functions and
// nil functions; Registry.Func names those by their Go type.
func IdentityOf(fn any) SiteIdentity {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return SiteIdentity{}
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return SiteIdentity{}
	}
	return ParseFuncName(f.Name())
}

// ParseFuncName splits a fully qualified runtime function name such as
// "example.com/app/store.(*Cache).Get" into an identity. Functions named
// NewT are treated as constructors of T.
func ParseFuncName(name string) SiteIdentity {
	name = strings.TrimSuffix(name, "-fm")
	name = stripTypeArgs(name)

	var id SiteIdentity
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		id.Method = name
		return id
	}
	dot += slash + 1
	id.Package = name[:dot]
	rest := name[dot+1:]

	switch {
	case strings.HasPrefix(rest, "(*"):
		end := strings.Index(rest, ")")
		if end < 0 {
			id.Method = rest
			return id
		}
		id.Type = rest[2:end]
		id.Method = firstSegment(strings.TrimPrefix(rest[end+1:], "."))
		return id
	case strings.Contains(rest, "."):
		head, tail, _ := strings.Cut(rest, ".")
		if isClosureSegment(firstSegment(tail)) {
			id.Method = head
		} else {
			id.Type = head
			id.Method = firstSegment(tail)
		}
	default:
		id.Method = rest
	}

	if id.Type == "" && isConstructorName(id.Method) {
		id.Type = id.Method[3:]
		id.Constructor = true
	}
	return id
}

// isConstructorName reports whether name is New followed by an exported
// type name, so NewCache counts and Newsletter does not.
func isConstructorName(name string) bool {
	rest, ok := strings.CutPrefix(name, "New")
	if !ok || rest == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r)
}

func firstSegment(s string) string {
	head, _, _ := strings.Cut(s, ".")
	return head
}

// isClosureSegment reports whether s names an anonymous function ("func1")
// or a compiler generated suffix ("1").
func isClosureSegment(s string) bool {
	s = strings.TrimPrefix(s, "func")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func stripTypeArgs(name string) string {
	for {
		open := strings.Index(name, "[")
		if open < 0 {
			return name
		}
		end := strings.Index(name[open:], "]")
		if end < 0 {
			return name
		}
		name = name[:open] + name[open+end+1:]
	}
}
