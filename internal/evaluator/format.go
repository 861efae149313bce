package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/utils"
)

// repr renders obj the way repr() does, honoring __repr__ on instances,
// including instances nested in collections.
func (e *Evaluator) repr(obj Object) (string, error) {
	return e.reprSeen(obj, nil)
}

func (e *Evaluator) reprSeen(obj Object, seen map[Object]bool) (string, error) {
	switch o := obj.(type) {
	case *Instance:
		if v, ok, err := e.dunder(o, config.ReprMethod); ok {
			if err != nil {
				return "", err
			}
			s, isStr := v.(*Str)
			if !isStr {
				return "", newException(TypeErrorClass, "__repr__ returned non-string (type %s)", typeName(v))
			}
			return s.Value, nil
		}
		return fmt.Sprintf("<%s object at %#x>", o.Class.Name, identityHash(o)), nil
	case *List, *Tuple, *Dict, *Set:
		if seen[obj] {
			switch obj.(type) {
			case *Dict:
				return "{...}", nil
			case *Tuple:
				return "(...)", nil
			}
			return "[...]", nil
		}
		if seen == nil {
			seen = make(map[Object]bool)
		}
		seen[obj] = true
		defer delete(seen, obj)
	}
	join := func(elems []Object) (string, error) {
		parts := make([]string, len(elems))
		for i, el := range elems {
			s, err := e.reprSeen(el, seen)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ", "), nil
	}
	switch o := obj.(type) {
	case *List:
		s, err := join(o.Elements)
		return "[" + s + "]", err
	case *Tuple:
		s, err := join(o.Elements)
		if len(o.Elements) == 1 {
			return "(" + s + ",)", err
		}
		return "(" + s + ")", err
	case *Set:
		if o.Len() == 0 {
			return "set()", nil
		}
		s, err := join(o.Members())
		return "{" + s + "}", err
	case *Dict:
		parts := make([]string, 0, o.Len())
		for _, item := range o.Items() {
			kv := item.(*Tuple).Elements
			k, err := e.reprSeen(kv[0], seen)
			if err != nil {
				return "", err
			}
			v, err := e.reprSeen(kv[1], seen)
			if err != nil {
				return "", err
			}
			parts = append(parts, k+": "+v)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return obj.Inspect(), nil
}

// str renders obj the way str() does.
func (e *Evaluator) str(obj Object) (string, error) {
	switch o := obj.(type) {
	case *Str:
		return o.Value, nil
	case *Instance:
		if v, ok, err := e.dunder(o, config.StrMethod); ok {
			if err != nil {
				return "", err
			}
			s, isStr := v.(*Str)
			if !isStr {
				return "", newException(TypeErrorClass, "__str__ returned non-string (type %s)", typeName(v))
			}
			return s.Value, nil
		}
	case *HostObject:
		if s, ok := o.Value.(fmt.Stringer); ok {
			return s.String(), nil
		}
	}
	return e.repr(obj)
}

// asciiEscape escapes non-ASCII runes the way ascii() does.
func asciiEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, "\\x%02x", r)
		case r <= 0xffff:
			fmt.Fprintf(&b, "\\u%04x", r)
		default:
			fmt.Fprintf(&b, "\\U%08x", r)
		}
	}
	return b.String()
}

// --- Format specification mini-language ---

type formatSpec struct {
	fill      rune
	align     byte // '<' '>' '^' '=' or 0
	sign      byte // '+' '-' ' ' or 0
	alternate bool
	zero      bool
	width     int
	grouping  byte // ',' '_' or 0
	precision int  // -1 when absent
	verb      byte // type character or 0
}

func parseFormatSpec(spec string) (formatSpec, error) {
	fs := formatSpec{fill: ' ', precision: -1}
	runes := []rune(spec)
	i := 0
	isAlign := func(r rune) bool { return r == '<' || r == '>' || r == '^' || r == '=' }
	if len(runes) >= 2 && isAlign(runes[1]) {
		fs.fill, fs.align = runes[0], byte(runes[1])
		i = 2
	} else if len(runes) >= 1 && isAlign(runes[0]) {
		fs.align = byte(runes[0])
		i = 1
	}
	if i < len(runes) && (runes[i] == '+' || runes[i] == '-' || runes[i] == ' ') {
		fs.sign = byte(runes[i])
		i++
	}
	if i < len(runes) && runes[i] == '#' {
		fs.alternate = true
		i++
	}
	if i < len(runes) && runes[i] == '0' {
		fs.zero = true
		i++
	}
	start := i
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	if i > start {
		fs.width, _ = strconv.Atoi(string(runes[start:i]))
	}
	if i < len(runes) && (runes[i] == ',' || runes[i] == '_') {
		fs.grouping = byte(runes[i])
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		start = i
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			i++
		}
		if i == start {
			return fs, newException(ValueErrorClass, "Format specifier missing precision")
		}
		fs.precision, _ = strconv.Atoi(string(runes[start:i]))
	}
	if i < len(runes) {
		fs.verb = byte(runes[i])
		i++
	}
	if i != len(runes) {
		return fs, newException(ValueErrorClass, "Invalid format specifier '%s'", spec)
	}
	if fs.zero && fs.align == 0 {
		fs.fill, fs.align = '0', '='
	}
	return fs, nil
}

// formatValue implements format(v, spec).
func (e *Evaluator) formatValue(v Object, spec string) (string, error) {
	if inst, ok := v.(*Instance); ok {
		if r, ok, err := e.dunder(inst, "__format__", NewStr(spec)); ok {
			if err != nil {
				return "", err
			}
			return e.str(r)
		}
	}
	if spec == "" {
		return e.str(v)
	}
	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}
	if n, ok := toNumber(v); ok {
		if _, isBool := v.(*Bool); isBool && fs.verb == 0 {
			return pad(v.Inspect(), fs, '<'), nil
		}
		return formatNumber(n, fs, typeName(v))
	}
	if fs.verb != 0 && fs.verb != 's' {
		return "", newException(ValueErrorClass, "Unknown format code '%c' for object of type '%s'", fs.verb, typeName(v))
	}
	if fs.sign != 0 {
		return "", newException(ValueErrorClass, "Sign not allowed in string format specifier")
	}
	s, err := e.str(v)
	if err != nil {
		return "", err
	}
	if fs.precision >= 0 && utf8.RuneCountInString(s) > fs.precision {
		s = string([]rune(s)[:fs.precision])
	}
	return pad(s, fs, '<'), nil
}

func formatNumber(n number, fs formatSpec, tname string) (string, error) {
	verb := fs.verb
	if verb == 'n' {
		if n.isInt() {
			verb = 'd'
		} else {
			verb = 'g'
		}
	}
	neg := false
	var body string
	switch verb {
	case 0, 'd', 'b', 'o', 'x', 'X', 'c':
		if !n.isInt() {
			if verb != 0 {
				return "", newException(ValueErrorClass, "Unknown format code '%c' for object of type '%s'", verb, tname)
			}
			return formatFloat(n.f, fs, 0)
		}
		if fs.precision >= 0 {
			return "", newException(ValueErrorClass, "Precision not allowed in integer format specifier")
		}
		x := n.i
		if verb == 'c' {
			return pad(string(rune(x)), fs, '<'), nil
		}
		neg = x < 0
		u := absU(x)
		prefix := ""
		switch verb {
		case 'b':
			body, prefix = strconv.FormatUint(u, 2), "0b"
		case 'o':
			body, prefix = strconv.FormatUint(u, 8), "0o"
		case 'x':
			body, prefix = strconv.FormatUint(u, 16), "0x"
		case 'X':
			body, prefix = strings.ToUpper(strconv.FormatUint(u, 16)), "0X"
		default:
			body = strconv.FormatUint(u, 10)
		}
		if fs.grouping != 0 {
			every := 3
			if verb != 0 && verb != 'd' {
				every = 4
			}
			body = group(body, fs.grouping, every)
		}
		if fs.alternate {
			body = prefix + body
		}
		return padNumber(body, neg, fs), nil
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		return formatFloat(n.float(), fs, verb)
	}
	return "", newException(ValueErrorClass, "Unknown format code '%c' for object of type '%s'", verb, tname)
}

func formatFloat(f float64, fs formatSpec, verb byte) (string, error) {
	neg := math.Signbit(f) && !math.IsNaN(f)
	if neg {
		f = -f
	}
	prec := fs.precision
	var body string
	switch {
	case math.IsInf(f, 0):
		body = "inf"
	case math.IsNaN(f):
		body = "nan"
	}
	if body != "" {
		if verb == 'E' || verb == 'F' || verb == 'G' {
			body = strings.ToUpper(body)
		}
		if verb == '%' {
			body += "%"
		}
		return padNumber(body, neg, fs), nil
	}
	switch verb {
	case 'e', 'E':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f, 'e', prec, 64)
	case 'f', 'F':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f, 'f', prec, 64)
	case '%':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
	case 'g', 'G':
		if prec < 0 {
			prec = 6
		}
		if prec == 0 {
			prec = 1
		}
		body = formatG(f, prec, fs.alternate, false)
	default:
		if prec < 0 {
			body = utils.FormatFloat(f, 64)
		} else {
			if prec == 0 {
				prec = 1
			}
			body = formatG(f, prec, fs.alternate, true)
		}
	}
	if verb == 'E' || verb == 'G' {
		body = strings.ToUpper(body)
	}
	if fs.grouping != 0 {
		intPart, rest := body, ""
		if i := strings.IndexAny(body, ".e%"); i >= 0 {
			intPart, rest = body[:i], body[i:]
		}
		body = group(intPart, fs.grouping, 3) + rest
	}
	return padNumber(body, neg, fs), nil
}

// formatG implements the 'g' presentation. In general mode (no type given)
// scientific notation starts one exponent earlier and fixed-point output
// always keeps a fractional digit.
func formatG(f float64, prec int, alternate, general bool) string {
	if f == 0 {
		if general {
			return "0.0"
		}
		return "0"
	}
	exp := int(math.Floor(math.Log10(f)))
	// rounding may carry into the next power of ten
	if r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'e', prec-1, 64), 64); err == nil && r != 0 {
		exp = int(math.Floor(math.Log10(r)))
	}
	limit := prec
	if general {
		limit = prec - 1
	}
	if exp < -4 || exp >= limit {
		s := strconv.FormatFloat(f, 'e', prec-1, 64)
		if !alternate {
			mant, e := s, ""
			if i := strings.IndexByte(s, 'e'); i >= 0 {
				mant, e = s[:i], s[i:]
			}
			if strings.Contains(mant, ".") {
				mant = strings.TrimRight(strings.TrimRight(mant, "0"), ".")
			}
			s = mant + e
		}
		return s
	}
	s := strconv.FormatFloat(f, 'f', prec-1-exp, 64)
	if !alternate && strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if general && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func group(digits string, sep byte, every int) string {
	if len(digits) <= every {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % every
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += every {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+every])
	}
	return b.String()
}

func padNumber(body string, neg bool, fs formatSpec) string {
	sign := ""
	switch {
	case neg:
		sign = "-"
	case fs.sign == '+':
		sign = "+"
	case fs.sign == ' ':
		sign = " "
	}
	if fs.align == '=' {
		n := fs.width - utf8.RuneCountInString(sign) - utf8.RuneCountInString(body)
		if n > 0 {
			return sign + strings.Repeat(string(fs.fill), n) + body
		}
		return sign + body
	}
	return pad(sign+body, fs, '>')
}

func pad(s string, fs formatSpec, defaultAlign byte) string {
	n := fs.width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	fill := string(fs.fill)
	align := fs.align
	if align == 0 || align == '=' {
		align = defaultAlign
	}
	switch align {
	case '<':
		return s + strings.Repeat(fill, n)
	case '^':
		left := n / 2
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, n-left)
	}
	return strings.Repeat(fill, n) + s
}

// --- printf-style formatting ---

// percentFormat implements `format % args`.
func (e *Evaluator) percentFormat(format string, args Object) (string, error) {
	var values []Object
	mapping, isMap := args.(*Dict)
	if t, ok := args.(*Tuple); ok {
		values = t.Elements
	} else if !isMap {
		values = []Object{args}
	}
	next := 0
	take := func() (Object, error) {
		if next >= len(values) {
			return nil, newException(TypeErrorClass, "not enough arguments for format string")
		}
		next++
		return values[next-1], nil
	}
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", newException(ValueErrorClass, "incomplete format")
		}
		var arg Object
		if format[i] == '(' {
			end := strings.IndexByte(format[i:], ')')
			if end < 0 {
				return "", newException(ValueErrorClass, "incomplete format key")
			}
			if !isMap {
				return "", newException(TypeErrorClass, "format requires a mapping")
			}
			key := format[i+1 : i+end]
			v, ok, err := mapping.Get(NewStr(key))
			if err != nil {
				return "", err
			}
			if !ok {
				return "", newExceptionValue(KeyErrorClass, NewStr(key))
			}
			arg = v
			i += end + 1
		}
		fs := formatSpec{fill: ' ', precision: -1}
	flags:
		for ; i < len(format); i++ {
			switch format[i] {
			case '-':
				fs.align = '<'
			case '+':
				fs.sign = '+'
			case ' ':
				if fs.sign == 0 {
					fs.sign = ' '
				}
			case '#':
				fs.alternate = true
			case '0':
				fs.zero = true
			default:
				break flags
			}
		}
		readNum := func() (int, error) {
			if i < len(format) && format[i] == '*' {
				i++
				v, err := take()
				if err != nil {
					return 0, err
				}
				n, ok := toInt(v)
				if !ok {
					return 0, newException(TypeErrorClass, "* wants int")
				}
				return int(n), nil
			}
			start := i
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				i++
			}
			if i == start {
				return -1, nil
			}
			n, _ := strconv.Atoi(format[start:i])
			return n, nil
		}
		w, err := readNum()
		if err != nil {
			return "", err
		}
		if w > 0 {
			fs.width = w
		}
		if i < len(format) && format[i] == '.' {
			i++
			p, err := readNum()
			if err != nil {
				return "", err
			}
			if p < 0 {
				p = 0
			}
			fs.precision = p
		}
		if i >= len(format) {
			return "", newException(ValueErrorClass, "incomplete format")
		}
		verb := format[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if arg == nil {
			if arg, err = take(); err != nil {
				return "", err
			}
		}
		if fs.zero && fs.align == 0 {
			fs.fill, fs.align = '0', '='
		}
		s, err := e.percentVerb(verb, arg, fs)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	if !isMap && next < len(values) {
		return "", newException(TypeErrorClass, "not all arguments converted during string formatting")
	}
	return b.String(), nil
}

func (e *Evaluator) percentVerb(verb byte, arg Object, fs formatSpec) (string, error) {
	switch verb {
	case 's', 'r', 'a':
		var s string
		var err error
		if verb == 's' {
			s, err = e.str(arg)
		} else {
			s, err = e.repr(arg)
			if verb == 'a' {
				s = asciiEscape(s)
			}
		}
		if err != nil {
			return "", err
		}
		if fs.precision >= 0 && utf8.RuneCountInString(s) > fs.precision {
			s = string([]rune(s)[:fs.precision])
		}
		fs.fill = ' '
		if fs.align == '=' {
			fs.align = 0
		}
		return pad(s, fs, '>'), nil
	case 'c':
		if s, ok := arg.(*Str); ok && utf8.RuneCountInString(s.Value) == 1 {
			return pad(s.Value, fs, '>'), nil
		}
		n, ok := toInt(arg)
		if !ok {
			return "", newException(TypeErrorClass, "%%c requires int or char")
		}
		return pad(string(rune(n)), fs, '>'), nil
	}
	n, ok := toNumber(arg)
	if !ok {
		return "", newException(TypeErrorClass, "%%%c format: a real number is required, not %s", verb, typeName(arg))
	}
	switch verb {
	case 'd', 'i', 'u':
		if !n.isInt() {
			n = number{kind: kindLong, i: int64(n.f)}
		}
		fs.precision = -1
		return formatNumber(n, fs, typeName(arg))
	case 'x', 'X', 'o':
		if !n.isInt() {
			return "", newException(TypeErrorClass, "%%%c format: an integer is required, not float", verb)
		}
		fs.precision = -1
		return formatNumber(n, formatSpecWithVerb(fs, verb), typeName(arg))
	case 'e', 'E', 'f', 'F', 'g', 'G':
		return formatFloat(n.float(), formatSpecWithVerb(fs, verb), verb)
	}
	return "", newException(ValueErrorClass, "unsupported format character '%c'", verb)
}

func formatSpecWithVerb(fs formatSpec, verb byte) formatSpec {
	fs.verb = verb
	return fs
}

// --- str.format ---

// strFormat implements str.format(*args, **kwargs).
func (e *Evaluator) strFormat(format string, args []Object, kwargs Kwargs) (string, error) {
	var b strings.Builder
	auto := 0
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '}' {
			if i+1 < len(runes) && runes[i+1] == '}' {
				b.WriteRune('}')
				i++
				continue
			}
			return "", newException(ValueErrorClass, "Single '}' encountered in format string")
		}
		if r != '{' {
			b.WriteRune(r)
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '{' {
			b.WriteRune('{')
			i++
			continue
		}
		depth, j := 1, i+1
		for ; j < len(runes); j++ {
			if runes[j] == '{' {
				depth++
			} else if runes[j] == '}' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if j >= len(runes) {
			return "", newException(ValueErrorClass, "Single '{' encountered in format string")
		}
		field := string(runes[i+1 : j])
		i = j
		s, err := e.formatField(field, args, kwargs, &auto)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (e *Evaluator) formatField(field string, args []Object, kwargs Kwargs, auto *int) (string, error) {
	spec := ""
	if i := strings.IndexByte(field, ':'); i >= 0 {
		field, spec = field[:i], field[i+1:]
	}
	conversion := byte(0)
	if i := strings.IndexByte(field, '!'); i >= 0 {
		if i+2 != len(field) {
			return "", newException(ValueErrorClass, "expected ':' after conversion specifier")
		}
		conversion = field[i+1]
		field = field[:i]
	}
	if strings.Contains(spec, "{") {
		nested, err := e.strFormat(spec, args, kwargs)
		if err != nil {
			return "", err
		}
		spec = nested
	}

	name, rest := field, ""
	if i := strings.IndexAny(field, ".["); i >= 0 {
		name, rest = field[:i], field[i:]
	}
	var v Object
	switch {
	case name == "":
		if *auto < 0 {
			return "", newException(ValueErrorClass, "cannot switch from manual field specification to automatic field numbering")
		}
		if *auto >= len(args) {
			return "", newException(IndexErrorClass, "Replacement index %d out of range for positional args tuple", *auto)
		}
		v = args[*auto]
		*auto++
	case name[0] >= '0' && name[0] <= '9':
		idx, err := strconv.Atoi(name)
		if err != nil {
			return "", newException(ValueErrorClass, "invalid field name '%s'", name)
		}
		if *auto > 0 {
			return "", newException(ValueErrorClass, "cannot switch from automatic field numbering to manual field specification")
		}
		*auto = -1
		if idx >= len(args) {
			return "", newException(IndexErrorClass, "Replacement index %d out of range for positional args tuple", idx)
		}
		v = args[idx]
	default:
		kv, ok := kwargs.Get(name)
		if !ok {
			return "", newExceptionValue(KeyErrorClass, NewStr(name))
		}
		v = kv
	}

	for rest != "" {
		var err error
		if rest[0] == '.' {
			end := strings.IndexAny(rest[1:], ".[")
			attr := rest[1:]
			if end >= 0 {
				attr, rest = rest[1:end+1], rest[end+1:]
			} else {
				rest = ""
			}
			if v, err = e.getAttr(v, attr); err != nil {
				return "", err
			}
			continue
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", newException(ValueErrorClass, "Missing ']' in format string")
		}
		keyText := rest[1:end]
		rest = rest[end+1:]
		var key Object = NewStr(keyText)
		if n, convErr := strconv.ParseInt(keyText, 10, 64); convErr == nil {
			key = NewInt(n)
		}
		if v, err = e.getItem(v, key); err != nil {
			return "", err
		}
	}

	switch conversion {
	case 'r', 'a':
		s, err := e.repr(v)
		if err != nil {
			return "", err
		}
		if conversion == 'a' {
			s = asciiEscape(s)
		}
		v = NewStr(s)
	case 's':
		s, err := e.str(v)
		if err != nil {
			return "", err
		}
		v = NewStr(s)
	case 0:
	default:
		return "", newException(ValueErrorClass, "Unknown conversion specifier %c", conversion)
	}
	return e.formatValue(v, spec)
}
