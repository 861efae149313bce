package evaluator_test

import "testing"

func TestCollections(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"list methods", `
			xs = [3, 1, 2]
			xs.append(5)
			xs.extend((7, 0))
			xs.insert(0, 9)
			print(xs, xs.pop(), xs.pop(0), xs.index(2), xs.count(1))
			xs.remove(1)
			xs.sort()
			print(xs)
			xs.sort(key=lambda v: -v)
			print(xs)
			xs.reverse()
			print(xs, len(xs))
		`, "[3, 1, 2, 5, 7] 0 9 2 1\n[2, 3, 5, 7]\n[7, 5, 3, 2]\n[2, 3, 5, 7] 4\n"},
		{"slicing", `
			xs = list(range(10))
			print(xs[2:5], xs[::3], xs[::-1][:3], xs[-2:], xs[8:100])
			xs[1:4] = ["a"]
			print(xs)
			del xs[::2]
			print(xs)
			print("hello"[1:-1], "hello"[::-1], (1, 2, 3)[1:])
		`, "[2, 3, 4] [0, 3, 6, 9] [9, 8, 7] [8, 9] [8, 9]\n[0, 'a', 4, 5, 6, 7, 8, 9]\n['a', 5, 7, 9]\nell olleh (2, 3)\n"},
		{"dict methods keep insertion order", `
			d = {"b": 1, "a": 2}
			d["c"] = 3
			d["b"] = 10
			print(d, list(d), d.keys(), d.values())
			print(d.get("z"), d.get("z", 0), d.pop("a"), d.setdefault("e", 5), d)
			d.update({"f": 6})
			d.update([("g", 7)])
			print(d.popitem(), len(d), "c" in d, "a" in d)
			for k, v in d.items():
			    print(k, v)
		`, "{'b': 10, 'a': 2, 'c': 3} ['b', 'a', 'c'] ['b', 'a', 'c'] [10, 2, 3]\nNone 0 2 5 {'b': 10, 'c': 3, 'e': 5}\n('g', 7) 4 True False\nb 10\nc 3\ne 5\nf 6\n"},
		{"numeric keys unify across widths", `
			d = {1: "int"}
			d[1.0] = "float"
			d[True] = "bool"
			print(d, {2 ** 40: 1}[2.0 ** 40])
		`, "{1: 'bool'} 1\n"},
		{"set operations", `
			a = {1, 2, 3}
			b = {3, 4}
			print(a | b, a & b, a - b, a ^ b)
			print(a.union([9]), a.issubset({1, 2, 3, 4}), {1} < a, a.isdisjoint(b))
			a.add(2)
			a.discard(10)
			a.remove(1)
			print(a, set(), len({1, 1, 1}))
		`, "{1, 2, 3, 4} {3} {1, 2} {1, 2, 4}\n{1, 2, 3, 9} True True False\n{2, 3} set() 1\n"},
		{"tuples and unpacking", `
			a, b = 1, 2
			a, b = b, a
			first, *rest = [1, 2, 3, 4]
			*init, last = "abc"
			(x, y), z = (1, 2), 3
			print(a, b, first, rest, init, last, x + y + z)
			t = (1, 2, 2)
			print(t.count(2), t.index(2), t + (3,), t * 2, (1,))
		`, "2 1 1 [2, 3, 4] ['a', 'b'] c 6\n2 1 (1, 2, 2, 3) (1, 2, 2, 1, 2, 2) (1,)\n"},
		{"comprehensions", `
			print([x * x for x in range(5) if x % 2 == 0])
			print({k: v for k, v in zip("abc", range(3))})
			print({x % 3 for x in range(10)})
			print(sum(x for x in range(5)), [(i, j) for i in range(2) for j in range(i + 1)])
		`, "[0, 4, 16]\n{'a': 0, 'b': 1, 'c': 2}\n{0, 1, 2}\n10 [(0, 0), (1, 0), (1, 1)]\n"},
		{"iteration builtins", `
			print(list(enumerate("ab", 1)), list(zip([1, 2, 3], "xy")), list(map(str, [1, 2])))
			print(list(filter(None, [0, 1, "", "a"])), list(reversed([1, 2, 3])), sorted("cab", reverse=True))
			print(min(3, 1, 2), max([1, 5, 2]), min([], default="none"), max("a", "bb", key=len))
			print(any([0, 0, 1]), all([]), all([1, 0]), sum([1, 2], 10), sum([0.5, 0.25]))
		`, "[(1, 'a'), (2, 'b')] [(1, 'x'), (2, 'y')] ['1', '2']\n[1, 'a'] [3, 2, 1] ['c', 'b', 'a']\n1 5 none bb\nTrue True False 13 0.75\n"},
		{"enumerate without start", `
			for i, c in enumerate(["a", "b"]):
			    print(i, c)
			print(list(enumerate("xy")), list(enumerate("z", start=5)))
		`, "0 a\n1 b\n[(0, 'x'), (1, 'y')] [(5, 'z')]\n"},
		{"range", `
			r = range(10, 0, -3)
			print(list(r), len(r), r[1], 4 in r, 5 in r, r, range(3))
		`, "[10, 7, 4, 1] 4 7 True False range(10, 0, -3) range(0, 3)\n"},
		{"membership and identity", `
			xs = [1, [2]]
			print(1 in xs, [2] in xs, 3 not in xs, "ell" in "hello", xs is xs, [] is not [])
		`, "True True True True True True\n"},
		{"recursive repr", `
			xs = [1]
			xs.append(xs)
			d = {}
			d["self"] = d
			print(xs, d)
		`, "[1, [...]] {'self': {...}}\n"},
		{"list iteration sees appends", `
			xs = [1]
			for x in xs:
			    if x < 4:
			        xs.append(x + 1)
			print(xs)
		`, "[1, 2, 3, 4]\n"},
		{"comparisons are lexicographic", `
			print([1, 2] < [1, 3], (1, 2) < (1, 2, 0), "abc" < "abd", [1] == [1.0], (1, "a") == (1, "a"))
		`, "True True True True True\n"},
	})
}

func TestCollectionErrors(t *testing.T) {
	runErrorCases(t, []errorCase{
		{"index out of range", "[1][5]", "IndexError: list index out of range"},
		{"missing key", "{}['nope']", "KeyError: 'nope'"},
		{"unhashable key", "{[1]: 2}", "TypeError: unhashable type: 'list'"},
		{"remove missing", "[1].remove(2)", "ValueError"},
		{"pop empty", "[].pop()", "IndexError: pop from empty list"},
		{"tuple immutable", "t = (1,)\nt[0] = 2", "TypeError: 'tuple' object does not support item assignment"},
		{"unpack mismatch", "a, b = [1, 2, 3]", "ValueError: too many values to unpack (expected 2)"},
		{"unpack too few", "a, b, c = [1, 2]", "ValueError: not enough values to unpack (expected 3, got 2)"},
		{"set remove missing", "{1}.remove(3)", "KeyError: 3"},
		{"sort mixed", "[1, 'a'].sort()", "TypeError: '<' not supported between instances"},
		{"range zero step", "range(1, 2, 0)", "ValueError: range() arg 3 must not be zero"},
		{"unknown method hint", "[].apend(1)", "AttributeError: 'list' object has no attribute 'apend'. Did you mean: 'append'?"},
	})
}
