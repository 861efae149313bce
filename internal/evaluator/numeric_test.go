package evaluator_test

import "testing"

func TestNumericPromotion(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"int32 overflow widens", `
			x = 2147483647 + 1
			print(x, type(x))
		`, "2147483648 <class 'int'>\n"},
		{"int64 overflow becomes float", `
			print(9223372036854775807 + 1)
		`, "9.223372036854776e+18\n"},
		{"exact power", `
			print(2 ** 10, 2 ** 62, 2 ** 64)
		`, "1024 4611686018427387904 1.8446744073709552e+19\n"},
		{"negative exponent", `
			print(2 ** -1, 4 ** -2)
		`, "0.5 0.0625\n"},
		{"true division", `
			print(7 / 2, 4 / 2, 1 / 3)
		`, "3.5 2.0 0.3333333333333333\n"},
		{"floor division and modulo", `
			print(-7 // 2, -7 % 2, 7 % -2, 7.5 // 2, -7.5 % 2)
		`, "-4 1 -1 3.0 0.5\n"},
		{"cross width equality", `
			print(1 == 1.0, 2147483648 == 2147483648.0, hash(1) == hash(1.0))
			d = {1: "a"}
			print(d[1.0], d[True])
		`, "True True True\na a\n"},
		{"exact comparison beyond float precision", `
			big = 9007199254740993
			print(big == 9007199254740992.0, big > 9007199254740992.0, big - 1 == 9007199254740992.0)
			print(len({big, 9007199254740992.0}), 2 ** 62 < float("inf"), 1 == float("nan"))
		`, "False True True\n2 True False\n"},
		{"bool arithmetic", `
			print(True + True, True * 3, -True)
		`, "2 3 -1\n"},
		{"bitwise", `
			print(6 & 3, 6 | 3, 6 ^ 3, ~5, 1 << 40, -16 >> 2)
		`, "2 7 5 -6 1099511627776 -4\n"},
		{"float formatting", `
			print(0.1 + 0.2, 1e16, 1.5e-7, 3.0)
		`, "0.30000000000000004 1e+16 1.5e-07 3.0\n"},
		{"ordering across kinds", `
			print(1 < 1.5, 2.5 >= 2, 3 > True)
		`, "True True True\n"},
		{"round half even", `
			print(round(2.5), round(3.5), round(-0.5), round(2.675, 2), round(1234, -2))
		`, "2 4 0 2.67 1200\n"},
		{"divmod and pow", `
			print(divmod(-7, 2), pow(3, 4, 5), pow(2, -1, 7), abs(-3), abs(-2.5))
		`, "(-4, 1) 1 4 3 2.5\n"},
		{"int and float conversion", `
			print(int("42"), int(" -7 "), int("ff", 16), int("0b101", 0), int(3.9), int(-3.9))
			print(float("1.5"), float("inf"), float(2), int("1_000"))
		`, "42 -7 255 5 3 -3\n1.5 inf 2.0 1000\n"},
		{"math module", `
			import math
			print(math.sqrt(16), math.floor(2.7), math.ceil(2.1), math.gcd(12, 18), math.factorial(5))
			print(math.isclose(0.1 + 0.2, 0.3), math.pi)
		`, "4.0 2 3 6 120\nTrue 3.141592653589793\n"},
	})
}

func TestNumericErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"zero division", "print(1 / 0)", "ZeroDivisionError: division by zero"},
		{"integer modulo by zero", "print(5 % 0)", "ZeroDivisionError: integer division or modulo by zero"},
		{"zero to negative power", "print(0 ** -1)", "ZeroDivisionError"},
		{"float division by zero", "print(1.0 / 0)", "ZeroDivisionError: float division by zero"},
		{"mixed operand types", "print(1 + 'a')", "TypeError: unsupported operand type(s) for +: 'int' and 'str'"},
		{"bad literal", "int('abc')", "ValueError: invalid literal for int() with base 10: 'abc'"},
		{"negative shift", "print(1 << -1)", "ValueError: negative shift count"},
		{"ordering str and int", "print('a' < 1)", "TypeError: '<' not supported between instances of 'str' and 'int'"},
		{"math domain", "import math\nmath.sqrt(-1)", "ValueError: math domain error"},
	})
}
