// Package strings holds the few string rules shared by adapters and modules
package strings

import std "strings"

// Prefix normalizes a route prefix to one leading slash and no trailing one.
// Blank input and "/" both mean the mount root and yield "".
func Prefix(s string) string {
	s = std.Trim(std.TrimSpace(s), "/")
	if s == "" {
		return ""
	}
	return "/" + s
}

// Credential returns the trimmed secret, or "" when it is blank or a
// template placeholder such as "your_openai_api_key"
func Credential(s string) string {
	s = std.TrimSpace(s)
	l := std.ToLower(s)
	switch {
	case l == "":
		return ""
	case std.HasPrefix(l, "your_") || std.HasPrefix(l, "your-"):
		return ""
	case l == "changeme" || l == "xxx" || l == "<api_key>":
		return ""
	}
	return s
}

// Ext returns the lower-cased extension of the last path element, dot included
func Ext(name string) string {
	i := std.LastIndexByte(name, '.')
	if i < 0 || i < std.LastIndexAny(name, `/\`) {
		return ""
	}
	return std.ToLower(name[i:])
}
