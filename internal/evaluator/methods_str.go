package evaluator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// method wraps a native method whose receiver arrives as args[0]. min and
// max bound the remaining positional arguments; max < 0 means unbounded.
func method(name string, min, max int, fn BuiltinFunction) *Builtin {
	return &Builtin{Name: name, Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		if len(kwargs) > 0 {
			return nil, newException(TypeErrorClass, "%s() takes no keyword arguments", name)
		}
		if err := checkArity(name, len(args)-1, min, max); err != nil {
			return nil, err
		}
		return fn(e, args, kwargs)
	}}
}

func checkArity(name string, n, min, max int) error {
	switch {
	case min == max && n != min:
		return newException(TypeErrorClass, "%s() takes exactly %d %s (%d given)", name, min, plural(min, "argument"), n)
	case n < min:
		return newException(TypeErrorClass, "%s() takes at least %d %s (%d given)", name, min, plural(min, "argument"), n)
	case max >= 0 && n > max:
		return newException(TypeErrorClass, "%s() takes at most %d %s (%d given)", name, max, plural(max, "argument"), n)
	}
	return nil
}

func strArg(fn string, o Object) (string, error) {
	s, ok := o.(*Str)
	if !ok {
		return "", newException(TypeErrorClass, "%s() argument must be str, not %s", fn, typeName(o))
	}
	return s.Value, nil
}

func intArg(fn string, o Object) (int64, error) {
	n, ok := toInt(o)
	if !ok {
		if isNumber(o) {
			return 0, newException(TypeErrorClass, "'float' object cannot be interpreted as an integer")
		}
		return 0, newException(TypeErrorClass, "%s() argument must be int, not %s", fn, typeName(o))
	}
	return n, nil
}

// optionalInt reads args[i] as an int, treating a missing, unset or None
// argument as def.
func optionalInt(fn string, args []Object, i int, def int64) (int64, error) {
	if i >= len(args) || args[i] == nil || args[i] == None {
		return def, nil
	}
	return intArg(fn, args[i])
}

func strSelf(args []Object) string { return args[0].(*Str).Value }

func strList(parts []string) *List {
	elems := make([]Object, len(parts))
	for i, p := range parts {
		elems[i] = NewStr(p)
	}
	return &List{Elements: elems}
}

// window applies optional start/end arguments to s by code point.
func window(fn string, s string, args []Object, from int) (string, int, error) {
	runes := []rune(s)
	n := len(runes)
	start, err := optionalInt(fn, args, from, 0)
	if err != nil {
		return "", 0, err
	}
	end, err := optionalInt(fn, args, from+1, int64(n))
	if err != nil {
		return "", 0, err
	}
	clamp := func(i int64) int {
		if i < 0 {
			i += int64(n)
			if i < 0 {
				i = 0
			}
		}
		if i > int64(n) {
			i = int64(n)
		}
		return int(i)
	}
	a, b := clamp(start), clamp(end)
	if a > b {
		return "", -1, nil
	}
	return string(runes[a:b]), a, nil
}

func runeIndex(s string, byteIndex int) int {
	return utf8.RuneCountInString(s[:byteIndex])
}

func strFind(name string, last, mustFind bool) *Builtin {
	return method(name, 1, 3, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		sub, err := strArg(name, args[1])
		if err != nil {
			return nil, err
		}
		s, offset, err := window(name, strSelf(args), args, 2)
		if err != nil {
			return nil, err
		}
		i := -1
		if offset >= 0 {
			if last {
				i = strings.LastIndex(s, sub)
			} else {
				i = strings.Index(s, sub)
			}
		}
		if i < 0 {
			if mustFind {
				return nil, newException(ValueErrorClass, "substring not found")
			}
			return NewInt(-1), nil
		}
		return NewInt(int64(offset + runeIndex(s, i))), nil
	})
}

func strAffix(name string, match func(s, affix string) bool) *Builtin {
	return method(name, 1, 3, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		s, offset, err := window(name, strSelf(args), args, 2)
		if err != nil {
			return nil, err
		}
		if offset < 0 {
			return False, nil
		}
		var candidates []Object
		switch a := args[1].(type) {
		case *Str:
			candidates = []Object{a}
		case *Tuple:
			candidates = a.Elements
		default:
			return nil, newException(TypeErrorClass, "%s first arg must be str or a tuple of str, not %s", name, typeName(a))
		}
		for _, c := range candidates {
			affix, err := strArg(name, c)
			if err != nil {
				return nil, err
			}
			if match(s, affix) {
				return True, nil
			}
		}
		return False, nil
	})
}

func strStrip(name string, trim func(s, cutset string) string, trimSpace func(string) string) *Builtin {
	return method(name, 0, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		if len(args) == 1 || args[1] == None {
			return NewStr(trimSpace(strSelf(args))), nil
		}
		chars, err := strArg(name, args[1])
		if err != nil {
			return nil, err
		}
		return NewStr(trim(strSelf(args), chars)), nil
	})
}

func strPredicate(name string, pred func(rune) bool) *Builtin {
	return method(name, 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		s := strSelf(args)
		if s == "" {
			return False, nil
		}
		for _, r := range s {
			if !pred(r) {
				return False, nil
			}
		}
		return True, nil
	})
}

func strTransform(name string, fn func(string) string) *Builtin {
	return method(name, 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		return NewStr(fn(strSelf(args))), nil
	})
}

// splitWhitespace splits on runs of whitespace, at most max times when
// max >= 0.
func splitWhitespace(s string, max int, fromRight bool) []string {
	fields := strings.Fields(s)
	if max < 0 || len(fields) <= max+1 {
		return fields
	}
	if fromRight {
		// keep the leading remainder intact
		rest := strings.TrimRightFunc(s, unicode.IsSpace)
		var tail []string
		for i := 0; i < max; i++ {
			j := strings.LastIndexFunc(rest, unicode.IsSpace)
			tail = append([]string{rest[j+1:]}, tail...)
			rest = strings.TrimRightFunc(rest[:j], unicode.IsSpace)
		}
		return append([]string{strings.TrimLeftFunc(rest, unicode.IsSpace)}, tail...)
	}
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	var head []string
	for i := 0; i < max; i++ {
		j := strings.IndexFunc(rest, unicode.IsSpace)
		head = append(head, rest[:j])
		rest = strings.TrimLeftFunc(rest[j:], unicode.IsSpace)
	}
	return append(head, strings.TrimRightFunc(rest, unicode.IsSpace))
}

func strSplit(name string, fromRight bool) *Builtin {
	return &Builtin{Name: name, Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		params, err := parseKwargs(name, args[1:], kwargs, "sep", "maxsplit")
		if err != nil {
			return nil, err
		}
		max, err := optionalInt(name, params, 1, -1)
		if err != nil {
			return nil, err
		}
		s := strSelf(args)
		if params[0] == nil || params[0] == None {
			return strList(splitWhitespace(s, int(max), fromRight)), nil
		}
		sep, err := strArg(name, params[0])
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, newException(ValueErrorClass, "empty separator")
		}
		if max < 0 {
			return strList(strings.Split(s, sep)), nil
		}
		if !fromRight {
			return strList(strings.SplitN(s, sep, int(max)+1)), nil
		}
		var tail []string
		for i := int64(0); i < max; i++ {
			j := strings.LastIndex(s, sep)
			if j < 0 {
				break
			}
			tail = append([]string{s[j+len(sep):]}, tail...)
			s = s[:j]
		}
		return strList(append([]string{s}, tail...)), nil
	}}
}

func splitLines(s string, keepEnds bool) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		end := i + 1
		if s[i] == '\r' && end < len(s) && s[end] == '\n' {
			end++
		}
		if keepEnds {
			lines = append(lines, s[:end])
		} else {
			lines = append(lines, s[:i])
		}
		s = s[end:]
	}
	return lines
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}

func strJustify(name string, align byte) *Builtin {
	return method(name, 1, 2, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		width, err := intArg(name, args[1])
		if err != nil {
			return nil, err
		}
		fill := ' '
		if len(args) > 2 {
			f, err := strArg(name, args[2])
			if err != nil {
				return nil, err
			}
			if utf8.RuneCountInString(f) != 1 {
				return nil, newException(TypeErrorClass, "The fill character must be exactly one character long")
			}
			fill, _ = utf8.DecodeRuneInString(f)
		}
		return NewStr(pad(strSelf(args), formatSpec{fill: fill, align: align, width: int(width)}, align)), nil
	})
}

func strPartition(name string, last bool) *Builtin {
	return method(name, 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		sep, err := strArg(name, args[1])
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, newException(ValueErrorClass, "empty separator")
		}
		s := strSelf(args)
		i := strings.Index(s, sep)
		if last {
			i = strings.LastIndex(s, sep)
		}
		if i < 0 {
			if last {
				return NewTuple(NewStr(""), NewStr(""), NewStr(s)), nil
			}
			return NewTuple(NewStr(s), NewStr(""), NewStr("")), nil
		}
		return NewTuple(NewStr(s[:i]), NewStr(sep), NewStr(s[i+len(sep):])), nil
	})
}

var strMethods = map[string]*Builtin{
	"upper":      strTransform("upper", strings.ToUpper),
	"lower":      strTransform("lower", strings.ToLower),
	"casefold":   strTransform("casefold", strings.ToLower),
	"title":      strTransform("title", titleCase),
	"capitalize": strTransform("capitalize", capitalize),
	"swapcase":   strTransform("swapcase", swapCase),
	"strip":      strStrip("strip", strings.Trim, strings.TrimSpace),
	"lstrip": strStrip("lstrip", strings.TrimLeft, func(s string) string {
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	}),
	"rstrip": strStrip("rstrip", strings.TrimRight, func(s string) string {
		return strings.TrimRightFunc(s, unicode.IsSpace)
	}),
	"split":      strSplit("split", false),
	"rsplit":     strSplit("rsplit", true),
	"find":       strFind("find", false, false),
	"rfind":      strFind("rfind", true, false),
	"index":      strFind("index", false, true),
	"rindex":     strFind("rindex", true, true),
	"startswith": strAffix("startswith", strings.HasPrefix),
	"endswith":   strAffix("endswith", strings.HasSuffix),
	"isdigit":    strPredicate("isdigit", unicode.IsDigit),
	"isnumeric":  strPredicate("isnumeric", unicode.IsNumber),
	"isdecimal":  strPredicate("isdecimal", unicode.IsDigit),
	"isalpha":    strPredicate("isalpha", unicode.IsLetter),
	"isalnum": strPredicate("isalnum", func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}),
	"isspace":   strPredicate("isspace", unicode.IsSpace),
	"center":    strJustify("center", '^'),
	"ljust":     strJustify("ljust", '<'),
	"rjust":     strJustify("rjust", '>'),
	"partition": strPartition("partition", false),
	"rpartition": strPartition("rpartition", true),
}

func init() {
	strMethods["join"] = method("join", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		items, err := e.collect(args[1])
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(*Str)
			if !ok {
				return nil, newException(TypeErrorClass, "sequence item %d: expected str instance, %s found", i, typeName(it))
			}
			parts[i] = s.Value
		}
		return NewStr(strings.Join(parts, strSelf(args))), nil
	})
	strMethods["replace"] = method("replace", 2, 3, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		old, err := strArg("replace", args[1])
		if err != nil {
			return nil, err
		}
		repl, err := strArg("replace", args[2])
		if err != nil {
			return nil, err
		}
		n, err := optionalInt("replace", args, 3, -1)
		if err != nil {
			return nil, err
		}
		return NewStr(strings.Replace(strSelf(args), old, repl, int(n))), nil
	})
	strMethods["count"] = method("count", 1, 3, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		sub, err := strArg("count", args[1])
		if err != nil {
			return nil, err
		}
		s, offset, err := window("count", strSelf(args), args, 2)
		if err != nil || offset < 0 {
			return NewInt(0), err
		}
		return NewInt(int64(strings.Count(s, sub))), nil
	})
	strMethods["format"] = &Builtin{Name: "format", Fn: func(e *Evaluator, args []Object, kwargs Kwargs) (Object, error) {
		s, err := e.strFormat(strSelf(args), args[1:], kwargs)
		if err != nil {
			return nil, err
		}
		return NewStr(s), nil
	}}
	strMethods["isupper"] = method("isupper", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		s := strSelf(args)
		return nativeBool(strings.IndexFunc(s, unicode.IsLetter) >= 0 && strings.ToUpper(s) == s), nil
	})
	strMethods["islower"] = method("islower", 0, 0, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		s := strSelf(args)
		return nativeBool(strings.IndexFunc(s, unicode.IsLetter) >= 0 && strings.ToLower(s) == s), nil
	})
	strMethods["zfill"] = method("zfill", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		width, err := intArg("zfill", args[1])
		if err != nil {
			return nil, err
		}
		s := strSelf(args)
		n := int(width) - utf8.RuneCountInString(s)
		if n <= 0 {
			return NewStr(s), nil
		}
		sign := ""
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
			sign, s = s[:1], s[1:]
		}
		return NewStr(sign + strings.Repeat("0", n) + s), nil
	})
	strMethods["splitlines"] = method("splitlines", 0, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		keep := len(args) > 1 && isTruthy(args[1])
		return strList(splitLines(strSelf(args), keep)), nil
	})
	strMethods["removeprefix"] = method("removeprefix", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		p, err := strArg("removeprefix", args[1])
		if err != nil {
			return nil, err
		}
		return NewStr(strings.TrimPrefix(strSelf(args), p)), nil
	})
	strMethods["removesuffix"] = method("removesuffix", 1, 1, func(e *Evaluator, args []Object, _ Kwargs) (Object, error) {
		p, err := strArg("removesuffix", args[1])
		if err != nil {
			return nil, err
		}
		return NewStr(strings.TrimSuffix(strSelf(args), p)), nil
	})
}
