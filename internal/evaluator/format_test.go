package evaluator_test

import "testing"

func TestStringFormatting(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"f-strings", `
			name = "ada"
			n = 42
			pi = 3.14159
			print(f"{name!r} has {n:>5} and {pi:.2f} {n:#x} {n:08b} {1234567:,}")
			print(f"{name:*^9}|{-n:+d}|{0.25:.1%}|{{literal}}|{n * 2}")
		`, "'ada' has    42 and 3.14 0x2a 00101010 1,234,567\n***ada***|-42|25.0%|{literal}|84\n"},
		{"str.format", `
			print("{} + {} = {}".format(1, 2, 3))
			print("{1}{0}{1}".format("a", "b"))
			print("{name} is {age:d}".format(name="bob", age=7))
			print("{0[1]} {0[0]}".format([5, 6]))
			print("{:<6}|{:^6}|{:>6}".format("l", "c", "r"))
			print("{:e} {:g} {:g} {:.3g}".format(12345.678, 0.00001, 100000.0, 2.0 / 3))
		`, "1 + 2 = 3\nbab\nbob is 7\n6 5\nl     |  c   |     r\n1.234568e+04 1e-05 100000 0.667\n"},
		{"percent formatting", `
			print("%s=%d" % ("x", 5))
			print("%5.1f|%-4d|%04d|%x|%r" % (2.25, 7, 42, 255, "q"))
			print("%(a)s and %(b)s" % {"a": 1, "b": 2})
			print("%s" % [1, 2], "100%%" % ())
		`, "x=5\n  2.2|7   |0042|ff|'q'\n1 and 2\n[1, 2] 100%\n"},
		{"instance format hooks", `
			class Money:
			    def __init__(self, v):
			        self.v = v
			    def __format__(self, spec):
			        return "$" + format(self.v, spec)
			    def __repr__(self):
			        return "Money(" + str(self.v) + ")"
			m = Money(3.5)
			print(f"{m:.2f}", "{}".format(m), f"{m!r}")
		`, "$3.50 $3.5 Money(3.5)\n"},
		{"float repr round trips", `
			print(0.1 + 0.2, 1e16, 1.5e-7, 2.0, -0.0, float("inf"), 1 / 3)
		`, "0.30000000000000004 1e+16 1.5e-07 2.0 -0.0 inf 0.3333333333333333\n"},
	})
}

func TestStringMethods(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"case and trimming", `
			s = "  Hello World  "
			print(s.strip(), s.lstrip() + "|", "|" + s.rstrip(), "xxhixx".strip("x"))
			print("abc".upper(), "ABC".lower(), "hello world".title(), "hELLO".capitalize(), "AbC".swapcase())
		`, "Hello World Hello World  | |  Hello World hi\nABC abc Hello World Hello aBc\n"},
		{"split and join", `
			print("a,b,,c".split(","), " a  b ".split(), "a b c".split(" ", 1), "a.b.c".rsplit(".", 1))
			print("-".join(["x", "y", "z"]), "line1\nline2\n".splitlines(), "k=v=w".partition("="))
		`, "['a', 'b', '', 'c'] ['a', 'b'] ['a', 'b c'] ['a.b', 'c']\nx-y-z ['line1', 'line2'] ('k', '=', 'v=w')\n"},
		{"split defaults", `
			print("a b".split(), "a,b".rsplit(","), " x  y ".rsplit(), "a,b,c".split(sep=","), "a,b,c".rsplit(",", maxsplit=1))
		`, "['a', 'b'] ['a', 'b'] ['x', 'y'] ['a', 'b', 'c'] ['a,b', 'c']\n"},
		{"search", `
			s = "banana"
			print(s.find("an"), s.rfind("an"), s.find("x"), s.index("n"), s.count("a"), s.count("an"))
			print(s.startswith("ba"), s.endswith(("x", "na")), s.replace("a", "o"), s.replace("a", "o", 1))
		`, "1 3 -1 2 3 2\nTrue True bonono bonana\n"},
		{"predicates and padding", `
			print("123".isdigit(), "12a".isdigit(), "abc".isalpha(), "a1".isalnum(), "  ".isspace(), "ABC".isupper())
			print("7".zfill(3), "-7".zfill(4), "ab".center(6, "*"), "ab".ljust(4) + "|", "ab".rjust(4))
			print("prefix_name".removeprefix("prefix_"), "file.txt".removesuffix(".txt"))
		`, "True False True True True True\n007 -007 **ab** ab   |   ab\nname file\n"},
		{"unicode indexing by code point", `
			s = "héllo"
			print(len(s), s[1], s[::-1], ord("é"), chr(233), ascii("é"), "é".upper())
		`, "5 é olléh 233 é '\\xe9' É\n"},
		{"str conversions", `
			print(str(1), str(1.5), str(None), str(True), repr("it's"), repr('say "hi"'), str([1, "a"]))
		`, "1 1.5 None True \"it's\" 'say \"hi\"' [1, 'a']\n"},
		{"multiplication and concatenation", `
			print("ab" * 3, 2 * [0], "a" + "b", [1] + [2])
		`, "ababab [0, 0] ab [1, 2]\n"},
	})
}

func TestFormattingErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"too few percent args", "'%s %s' % ('a',)", "TypeError: not enough arguments for format string"},
		{"too many percent args", "'%s' % ('a', 'b')", "TypeError: not all arguments converted during string formatting"},
		{"missing format key", "'{missing}'.format()", "KeyError: 'missing'"},
		{"mixing field numbering", "'{} {0}'.format(1)", "ValueError: cannot switch from automatic field numbering to manual field specification"},
		{"sign on string", "format('x', '+')", "ValueError: Sign not allowed in string format specifier"},
		{"str plus int", "'a' + 1", "TypeError"},
	})
}
