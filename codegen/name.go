package codegen

import (
	"strings"
	"unicode"
)

var goReserved = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// GoName converts a tool or parameter name into an exported Go identifier:
// "get_forecast-v2" becomes "GetForecastV2". A leading digit gets a "Tool"
// prefix so the identifier stays valid.
func GoName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ' || r == '/':
			upper = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				b.WriteRune(unicode.ToUpper(r))
				upper = false
			} else {
				b.WriteRune(r)
			}
		}
	}
	ret := b.String()
	if ret == "" {
		return "Tool"
	}
	if unicode.IsDigit(rune(ret[0])) {
		ret = "Tool" + ret
	}
	return ret
}

// PackageName converts a server name into a valid Go package name.
func PackageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	ret := b.String()
	if ret == "" || unicode.IsDigit(rune(ret[0])) {
		ret = "server" + ret
	}
	if goReserved[ret] {
		ret += "stub"
	}
	return ret
}
