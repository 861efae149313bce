package config

import (
	"path/filepath"
	"strings"
)

const SourceFileExt = ".py"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".py", ".pyh"}

// ASTFileExtensions are recognized extensions for serialized ASTs.
var ASTFileExtensions = []string{".json", ".yaml", ".yml"}

// DefaultMaxDepth is the call depth at which execution aborts with a fatal error.
const DefaultMaxDepth = 1000

// Backend names
const (
	BackendTree     = "tree"
	BackendCompiled = "compiled"
)

// Built-in function names
const (
	PrintFuncName      = "print"
	LenFuncName        = "len"
	ReprFuncName       = "repr"
	SuperFuncName      = "super"
	HostClassFuncName  = "hostclass"
	IsInstanceFuncName = "isinstance"
)

// Builtin module names
const (
	AtExitModuleName = "atexit"
	MathModuleName   = "math"
)

// Special method names
const (
	InitMethod     = "__init__"
	StrMethod      = "__str__"
	ReprMethod     = "__repr__"
	CallMethod     = "__call__"
	LenMethod      = "__len__"
	GetItemMethod  = "__getitem__"
	SetItemMethod  = "__setitem__"
	DelItemMethod  = "__delitem__"
	ContainsMethod = "__contains__"
	EnterMethod    = "__enter__"
	ExitMethod     = "__exit__"
	EqMethod       = "__eq__"
	NeMethod       = "__ne__"
	BoolMethod     = "__bool__"
	HashMethod     = "__hash__"
)

// Environment variable overrides for Settings.
const (
	EnvBackend  = "PYHOST_BACKEND"
	EnvMaxDepth = "PYHOST_MAX_DEPTH"
	EnvLogLevel = "PYHOST_LOG_LEVEL"
)

// DefaultConfigNames are looked up by FindSettings, nearest directory first.
var DefaultConfigNames = []string{"pyhost.yaml", "pyhost.yml"}

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from name.
func TrimSourceExt(name string) string {
	if HasSourceExt(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// IsASTFile reports whether path names a serialized AST.
func IsASTFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ASTFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
