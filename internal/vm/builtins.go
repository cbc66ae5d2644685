package vm

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/skepa-lang/skepa/internal/bytecode"
)

// BuiltinFunc implements one (package, name) builtin. It runs with the
// arguments already popped off the operand stack, in call order.
type BuiltinFunc func(host Host, args []bytecode.Value) (bytecode.Value, error)

// Registry resolves a (package, name) builtin call to its implementation.
// Defaults always win over a user-registered builtin of the same name
// (spec §4.5 "Users may register additional builtins by (package, name);
// defaults win on conflict."), so a host embedding this VM can extend the
// surface without being able to silently shadow it.
type Registry struct {
	defaults map[string]BuiltinFunc
	custom   map[string]BuiltinFunc
}

// NewRegistry returns a Registry pre-populated with every builtin listed
// in the language's default surface (spec §6).
func NewRegistry() *Registry {
	return &Registry{defaults: defaultBuiltins(), custom: map[string]BuiltinFunc{}}
}

// Register adds or replaces a user-supplied builtin. It has no effect on
// a (package, name) pair the default surface already claims.
func (r *Registry) Register(pkg, name string, fn BuiltinFunc) {
	r.custom[builtinKey(pkg, name)] = fn
}

func (r *Registry) call(host Host, pkg, name string, args []bytecode.Value) (bytecode.Value, error) {
	key := builtinKey(pkg, name)
	if fn, ok := r.defaults[key]; ok {
		return fn(host, args)
	}
	if fn, ok := r.custom[key]; ok {
		return fn(host, args)
	}
	return bytecode.Value{}, unknownBuiltin(pkg, name)
}

func builtinKey(pkg, name string) string { return pkg + "." + name }

func defaultBuiltins() map[string]BuiltinFunc {
	m := map[string]BuiltinFunc{}
	add := func(pkg, name string, fn BuiltinFunc) { m[builtinKey(pkg, name)] = fn }

	add("io", "print", bIoPrint)
	add("io", "println", bIoPrintln)
	add("io", "printInt", bIoPrintInt)
	add("io", "printFloat", bIoPrintFloat)
	add("io", "printBool", bIoPrintBool)
	add("io", "printString", bIoPrintString)
	add("io", "format", bIoFormat)
	add("io", "printf", bIoPrintf)
	add("io", "readLine", bIoReadLine)

	add("str", "len", bStrLen)
	add("str", "isEmpty", bStrIsEmpty)
	add("str", "trim", bStrTrim)
	add("str", "toLower", bStrToLower)
	add("str", "toUpper", bStrToUpper)
	add("str", "contains", bStrContains)
	add("str", "startsWith", bStrStartsWith)
	add("str", "endsWith", bStrEndsWith)
	add("str", "indexOf", bStrIndexOf)
	add("str", "lastIndexOf", bStrLastIndexOf)
	add("str", "slice", bStrSlice)
	add("str", "replace", bStrReplace)
	add("str", "repeat", bStrRepeat)

	add("arr", "len", bArrLen)
	add("arr", "isEmpty", bArrIsEmpty)
	add("arr", "first", bArrFirst)
	add("arr", "last", bArrLast)
	add("arr", "reverse", bArrReverse)
	add("arr", "sum", bArrSum)
	add("arr", "min", bArrMin)
	add("arr", "max", bArrMax)
	add("arr", "sort", bArrSort)
	add("arr", "contains", bArrContains)
	add("arr", "indexOf", bArrIndexOf)
	add("arr", "count", bArrCount)
	add("arr", "join", bArrJoin)
	add("arr", "slice", bArrSlice)

	add("datetime", "nowUnix", bDatetimeNowUnix)
	add("datetime", "nowMillis", bDatetimeNowMillis)
	add("datetime", "fromUnix", bDatetimeFromUnix)
	add("datetime", "fromMillis", bDatetimeFromMillis)
	add("datetime", "year", bDatetimeYear)
	add("datetime", "month", bDatetimeMonth)
	add("datetime", "day", bDatetimeDay)
	add("datetime", "hour", bDatetimeHour)
	add("datetime", "minute", bDatetimeMinute)
	add("datetime", "second", bDatetimeSecond)
	add("datetime", "parseUnix", bDatetimeParseUnix)

	add("fs", "exists", bFsExists)
	add("fs", "readText", bFsReadText)
	add("fs", "writeText", bFsWriteText)
	add("fs", "appendText", bFsAppendText)
	add("fs", "mkdirAll", bFsMkdirAll)
	add("fs", "removeFile", bFsRemoveFile)
	add("fs", "removeDirAll", bFsRemoveDirAll)
	add("fs", "join", bFsJoin)

	add("os", "cwd", bOsCwd)
	add("os", "platform", bOsPlatform)
	add("os", "sleep", bOsSleep)
	add("os", "execShell", bOsExecShell)
	add("os", "execShellOut", bOsExecShellOut)

	add("random", "seed", bRandomSeed)
	add("random", "int", bRandomInt)
	add("random", "float", bRandomFloat)

	add("vec", "new", bVecNew)
	add("vec", "len", bVecLen)
	add("vec", "push", bVecPush)
	add("vec", "get", bVecGet)
	add("vec", "set", bVecSet)
	add("vec", "delete", bVecDelete)

	return m
}

// --- argument helpers -------------------------------------------------

func argc(name string, args []bytecode.Value, n int) error {
	if len(args) != n {
		return arityErr(name, n, len(args))
	}
	return nil
}

func asString(name string, args []bytecode.Value, i int) (string, error) {
	v := args[i]
	if v.Kind != bytecode.VString {
		return "", typeErr(name, v)
	}
	return v.Str, nil
}

func asInt(name string, args []bytecode.Value, i int) (int64, error) {
	v := args[i]
	if v.Kind != bytecode.VInt {
		return 0, typeErr(name, v)
	}
	return v.Int, nil
}

func asArray(name string, args []bytecode.Value, i int) ([]bytecode.Value, error) {
	v := args[i]
	if v.Kind != bytecode.VArray {
		return nil, typeErr(name, v)
	}
	return v.Arr, nil
}

func asVecID(name string, args []bytecode.Value, i int) (uint64, error) {
	v := args[i]
	if v.Kind != bytecode.VVecHandle {
		return 0, typeErr(name, v)
	}
	return v.VecID, nil
}

// --- io ---------------------------------------------------------------

func bIoPrint(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("io.print", args, 1); err != nil {
		return bytecode.Value{}, err
	}
	s, err := asString("io.print", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.Write(s, false); err != nil {
		return bytecode.Value{}, hostErr(err, "io.print")
	}
	return bytecode.Unit, nil
}

func bIoPrintln(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("io.println", args, 1); err != nil {
		return bytecode.Value{}, err
	}
	s, err := asString("io.println", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.Write(s, true); err != nil {
		return bytecode.Value{}, hostErr(err, "io.println")
	}
	return bytecode.Unit, nil
}

func bIoPrintInt(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("io.printInt", args, 1); err != nil {
		return bytecode.Value{}, err
	}
	if args[0].Kind != bytecode.VInt {
		return bytecode.Value{}, typeErr("io.printInt", args[0])
	}
	if err := host.Write(args[0].String(), true); err != nil {
		return bytecode.Value{}, hostErr(err, "io.printInt")
	}
	return bytecode.Unit, nil
}

func bIoPrintFloat(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("io.printFloat", args, 1); err != nil {
		return bytecode.Value{}, err
	}
	if args[0].Kind != bytecode.VFloat {
		return bytecode.Value{}, typeErr("io.printFloat", args[0])
	}
	if err := host.Write(args[0].String(), true); err != nil {
		return bytecode.Value{}, hostErr(err, "io.printFloat")
	}
	return bytecode.Unit, nil
}

func bIoPrintBool(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("io.printBool", args, 1); err != nil {
		return bytecode.Value{}, err
	}
	if args[0].Kind != bytecode.VBool {
		return bytecode.Value{}, typeErr("io.printBool", args[0])
	}
	if err := host.Write(args[0].String(), true); err != nil {
		return bytecode.Value{}, hostErr(err, "io.printBool")
	}
	return bytecode.Unit, nil
}

func bIoPrintString(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return bIoPrintln(host, args)
}

func bIoFormat(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if len(args) == 0 {
		return bytecode.Value{}, arityErr("io.format", 1, 0)
	}
	fmtStr, err := asString("io.format", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	s, err := renderFormat(fmtStr, args[1:])
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(s), nil
}

func bIoPrintf(host Host, args []bytecode.Value) (bytecode.Value, error) {
	v, err := bIoFormat(host, args)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.Write(v.Str, false); err != nil {
		return bytecode.Value{}, hostErr(err, "io.printf")
	}
	return bytecode.Unit, nil
}

func bIoReadLine(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("io.readLine", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	s, err := host.ReadLine()
	if err != nil {
		return bytecode.Value{}, hostErr(err, "io.readLine")
	}
	return bytecode.Str_(s), nil
}

// renderFormat substitutes %d/%f/%s/%b specifiers in fmtStr with vals in
// order; %% is a literal percent (spec §4.3 "format variadic builtins").
func renderFormat(fmtStr string, vals []bytecode.Value) (string, error) {
	var b strings.Builder
	vi := 0
	for i := 0; i < len(fmtStr); i++ {
		c := fmtStr[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(fmtStr) {
			return "", newErr("E-VM-TYPE", "format: trailing %% with no specifier")
		}
		spec := fmtStr[i+1]
		i++
		if spec == '%' {
			b.WriteByte('%')
			continue
		}
		if vi >= len(vals) {
			return "", newErr("E-VM-TYPE", "format: missing value for %%%c", spec)
		}
		v := vals[vi]
		vi++
		switch spec {
		case 'd', 'f', 's', 'b':
			b.WriteString(v.String())
		default:
			return "", newErr("E-VM-TYPE", "format: unknown specifier %%%c", spec)
		}
	}
	return b.String(), nil
}

// --- str ----------------------------------------------------------------

func bStrLen(host Host, args []bytecode.Value) (bytecode.Value, error) {
	s, err := asString("str.len", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(int64(len([]rune(s)))), nil
}

func bStrIsEmpty(host Host, args []bytecode.Value) (bytecode.Value, error) {
	s, err := asString("str.isEmpty", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Bool_(s == ""), nil
}

func bStrTrim(host Host, args []bytecode.Value) (bytecode.Value, error) {
	s, err := asString("str.trim", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(strings.TrimSpace(s)), nil
}

func bStrToLower(host Host, args []bytecode.Value) (bytecode.Value, error) {
	s, err := asString("str.toLower", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(strings.ToLower(s)), nil
}

func bStrToUpper(host Host, args []bytecode.Value) (bytecode.Value, error) {
	s, err := asString("str.toUpper", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(strings.ToUpper(s)), nil
}

func bStrContains(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asString("str.contains", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	b, err := asString("str.contains", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Bool_(strings.Contains(a, b)), nil
}

func bStrStartsWith(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asString("str.startsWith", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	b, err := asString("str.startsWith", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Bool_(strings.HasPrefix(a, b)), nil
}

func bStrEndsWith(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asString("str.endsWith", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	b, err := asString("str.endsWith", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Bool_(strings.HasSuffix(a, b)), nil
}

func bStrIndexOf(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asString("str.indexOf", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	b, err := asString("str.indexOf", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(int64(strings.Index(a, b))), nil
}

func bStrLastIndexOf(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asString("str.lastIndexOf", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	b, err := asString("str.lastIndexOf", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(int64(strings.LastIndex(a, b))), nil
}

func bStrSlice(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("str.slice", args, 3); err != nil {
		return bytecode.Value{}, err
	}
	s, err := asString("str.slice", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	start, err := asInt("str.slice", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	end, err := asInt("str.slice", args, 2)
	if err != nil {
		return bytecode.Value{}, err
	}
	runes := []rune(s)
	if start < 0 || end > int64(len(runes)) || start > end {
		return bytecode.Value{}, indexOOB("str.slice", int(start), len(runes))
	}
	return bytecode.Str_(string(runes[start:end])), nil
}

func bStrReplace(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("str.replace", args, 3); err != nil {
		return bytecode.Value{}, err
	}
	s, err := asString("str.replace", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	old, err := asString("str.replace", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	newStr, err := asString("str.replace", args, 2)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(strings.ReplaceAll(s, old, newStr)), nil
}

// maxRepeatOutputBytes caps str.repeat's output size (spec §6 "output-size
// cap of 1,000,000 bytes").
const maxRepeatOutputBytes = 1_000_000

func bStrRepeat(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("str.repeat", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	s, err := asString("str.repeat", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	n, err := asInt("str.repeat", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	if n < 0 {
		return bytecode.Value{}, newErr("E-VM-TYPE", "str.repeat: negative count %d", n)
	}
	if n > 0 && int64(len(s))*n > maxRepeatOutputBytes {
		return bytecode.Value{}, newErr("E-VM-TYPE", "str.repeat: output exceeds %d bytes", maxRepeatOutputBytes)
	}
	return bytecode.Str_(strings.Repeat(s, int(n))), nil
}

// --- arr ------------------------------------------------------------

func bArrLen(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.len", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(int64(len(a))), nil
}

func bArrIsEmpty(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.isEmpty", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Bool_(len(a) == 0), nil
}

func bArrFirst(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.first", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if len(a) == 0 {
		return bytecode.Value{}, indexOOB("arr.first", 0, 0)
	}
	return a[0], nil
}

func bArrLast(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.last", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if len(a) == 0 {
		return bytecode.Value{}, indexOOB("arr.last", 0, 0)
	}
	return a[len(a)-1], nil
}

func bArrReverse(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.reverse", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	out := make([]bytecode.Value, len(a))
	for i, v := range a {
		out[len(a)-1-i] = v
	}
	return bytecode.Array_(out), nil
}

func bArrSum(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.sum", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if len(a) > 0 && a[0].Kind == bytecode.VFloat {
		var total float64
		for _, v := range a {
			if v.Kind != bytecode.VFloat {
				return bytecode.Value{}, typeErr("arr.sum", v)
			}
			total += v.Float
		}
		return bytecode.Float64(total), nil
	}
	var total int64
	for _, v := range a {
		if v.Kind != bytecode.VInt {
			return bytecode.Value{}, typeErr("arr.sum", v)
		}
		total += v.Int
	}
	return bytecode.Int64(total), nil
}

func bArrMin(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return arrExtreme("arr.min", args, func(cur, v bytecode.Value) bool { return less(v, cur) })
}

func bArrMax(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return arrExtreme("arr.max", args, func(cur, v bytecode.Value) bool { return less(cur, v) })
}

func arrExtreme(name string, args []bytecode.Value, replace func(cur, v bytecode.Value) bool) (bytecode.Value, error) {
	a, err := asArray(name, args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if len(a) == 0 {
		return bytecode.Value{}, indexOOB(name, 0, 0)
	}
	best := a[0]
	for _, v := range a[1:] {
		if replace(best, v) {
			best = v
		}
	}
	return best, nil
}

func less(a, b bytecode.Value) bool {
	switch a.Kind {
	case bytecode.VInt:
		return a.Int < b.Int
	case bytecode.VFloat:
		return a.Float < b.Float
	case bytecode.VString:
		return a.Str < b.Str
	default:
		return false
	}
}

func bArrSort(host Host, args []bytecode.Value) (bytecode.Value, error) {
	a, err := asArray("arr.sort", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	out := make([]bytecode.Value, len(a))
	copy(out, a)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return bytecode.Array_(out), nil
}

func bArrContains(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("arr.contains", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	a, err := asArray("arr.contains", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	for _, v := range a {
		if bytecode.Equal(v, args[1]) {
			return bytecode.Bool_(true), nil
		}
	}
	return bytecode.Bool_(false), nil
}

func bArrIndexOf(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("arr.indexOf", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	a, err := asArray("arr.indexOf", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	for i, v := range a {
		if bytecode.Equal(v, args[1]) {
			return bytecode.Int64(int64(i)), nil
		}
	}
	return bytecode.Int64(-1), nil
}

func bArrCount(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("arr.count", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	a, err := asArray("arr.count", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	n := int64(0)
	for _, v := range a {
		if bytecode.Equal(v, args[1]) {
			n++
		}
	}
	return bytecode.Int64(n), nil
}

func bArrJoin(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("arr.join", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	a, err := asArray("arr.join", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	sep, err := asString("arr.join", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	parts := make([]string, len(a))
	for i, v := range a {
		if v.Kind != bytecode.VString {
			return bytecode.Value{}, typeErr("arr.join", v)
		}
		parts[i] = v.Str
	}
	return bytecode.Str_(strings.Join(parts, sep)), nil
}

func bArrSlice(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("arr.slice", args, 3); err != nil {
		return bytecode.Value{}, err
	}
	a, err := asArray("arr.slice", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	start, err := asInt("arr.slice", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	end, err := asInt("arr.slice", args, 2)
	if err != nil {
		return bytecode.Value{}, err
	}
	if start < 0 || end > int64(len(a)) || start > end {
		return bytecode.Value{}, indexOOB("arr.slice", int(start), len(a))
	}
	out := make([]bytecode.Value, end-start)
	copy(out, a[start:end])
	return bytecode.Array_(out), nil
}

// --- datetime -----------------------------------------------------------

func bDatetimeNowUnix(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("datetime.nowUnix", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(host.NowUnix()), nil
}

func bDatetimeNowMillis(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("datetime.nowMillis", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(host.NowMillis()), nil
}

func bDatetimeFromUnix(host Host, args []bytecode.Value) (bytecode.Value, error) {
	sec, err := asInt("datetime.fromUnix", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(sec), nil
}

func bDatetimeFromMillis(host Host, args []bytecode.Value) (bytecode.Value, error) {
	ms, err := asInt("datetime.fromMillis", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(ms / 1000), nil
}

func bDatetimeYear(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return datetimeField("datetime.year", args, func(t civilTime) int64 { return int64(t.year) })
}
func bDatetimeMonth(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return datetimeField("datetime.month", args, func(t civilTime) int64 { return int64(t.month) })
}
func bDatetimeDay(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return datetimeField("datetime.day", args, func(t civilTime) int64 { return int64(t.day) })
}
func bDatetimeHour(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return datetimeField("datetime.hour", args, func(t civilTime) int64 { return int64(t.hour) })
}
func bDatetimeMinute(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return datetimeField("datetime.minute", args, func(t civilTime) int64 { return int64(t.minute) })
}
func bDatetimeSecond(host Host, args []bytecode.Value) (bytecode.Value, error) {
	return datetimeField("datetime.second", args, func(t civilTime) int64 { return int64(t.second) })
}

func datetimeField(name string, args []bytecode.Value, pick func(civilTime) int64) (bytecode.Value, error) {
	unix, err := asInt(name, args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(pick(unixToCivil(unix))), nil
}

func bDatetimeParseUnix(host Host, args []bytecode.Value) (bytecode.Value, error) {
	s, err := asString("datetime.parseUnix", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(parseUnixRFC3339(s)), nil
}

// --- fs -----------------------------------------------------------------

func bFsExists(host Host, args []bytecode.Value) (bytecode.Value, error) {
	p, err := asString("fs.exists", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	ok, err := host.FsExists(p)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "fs.exists")
	}
	return bytecode.Bool_(ok), nil
}

func bFsReadText(host Host, args []bytecode.Value) (bytecode.Value, error) {
	p, err := asString("fs.readText", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	s, err := host.FsReadText(p)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "fs.readText")
	}
	return bytecode.Str_(s), nil
}

func bFsWriteText(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("fs.writeText", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	p, err := asString("fs.writeText", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	content, err := asString("fs.writeText", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.FsWriteText(p, content); err != nil {
		return bytecode.Value{}, hostErr(err, "fs.writeText")
	}
	return bytecode.Unit, nil
}

func bFsAppendText(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("fs.appendText", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	p, err := asString("fs.appendText", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	content, err := asString("fs.appendText", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.FsAppendText(p, content); err != nil {
		return bytecode.Value{}, hostErr(err, "fs.appendText")
	}
	return bytecode.Unit, nil
}

func bFsMkdirAll(host Host, args []bytecode.Value) (bytecode.Value, error) {
	p, err := asString("fs.mkdirAll", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.FsMkdirAll(p); err != nil {
		return bytecode.Value{}, hostErr(err, "fs.mkdirAll")
	}
	return bytecode.Unit, nil
}

func bFsRemoveFile(host Host, args []bytecode.Value) (bytecode.Value, error) {
	p, err := asString("fs.removeFile", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.FsRemoveFile(p); err != nil {
		return bytecode.Value{}, hostErr(err, "fs.removeFile")
	}
	return bytecode.Unit, nil
}

func bFsRemoveDirAll(host Host, args []bytecode.Value) (bytecode.Value, error) {
	p, err := asString("fs.removeDirAll", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.FsRemoveDirAll(p); err != nil {
		return bytecode.Value{}, hostErr(err, "fs.removeDirAll")
	}
	return bytecode.Unit, nil
}

func bFsJoin(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("fs.join", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	a, err := asString("fs.join", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	b, err := asString("fs.join", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(filepath.Join(a, b)), nil
}

// --- os -----------------------------------------------------------------

func bOsCwd(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("os.cwd", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	s, err := host.OsCwd()
	if err != nil {
		return bytecode.Value{}, hostErr(err, "os.cwd")
	}
	return bytecode.Str_(s), nil
}

func bOsPlatform(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("os.platform", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Str_(host.OsPlatform()), nil
}

func bOsSleep(host Host, args []bytecode.Value) (bytecode.Value, error) {
	ms, err := asInt("os.sleep", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	host.OsSleep(ms)
	return bytecode.Unit, nil
}

func bOsExecShell(host Host, args []bytecode.Value) (bytecode.Value, error) {
	cmd, err := asString("os.execShell", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	code, err := host.OsExecShell(cmd)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "os.execShell")
	}
	return bytecode.Int64(int64(code)), nil
}

func bOsExecShellOut(host Host, args []bytecode.Value) (bytecode.Value, error) {
	cmd, err := asString("os.execShellOut", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	out, err := host.OsExecShellOut(cmd)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "os.execShellOut")
	}
	return bytecode.Str_(out), nil
}

// --- random ---------------------------------------------------------------

func bRandomSeed(host Host, args []bytecode.Value) (bytecode.Value, error) {
	seed, err := asInt("random.seed", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	host.SetRandomSeed(seed)
	return bytecode.Unit, nil
}

func bRandomInt(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("random.int", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Int64(int64(host.NextRandomU64() >> 1)), nil
}

func bRandomFloat(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("random.float", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	const mantissaBits = 1 << 53
	return bytecode.Float64(float64(host.NextRandomU64()%mantissaBits) / float64(mantissaBits)), nil
}

// --- vec ------------------------------------------------------------------

func bVecNew(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("vec.new", args, 0); err != nil {
		return bytecode.Value{}, err
	}
	id, err := host.VecNew()
	if err != nil {
		return bytecode.Value{}, hostErr(err, "vec.new")
	}
	return bytecode.VecHandle(id), nil
}

func bVecLen(host Host, args []bytecode.Value) (bytecode.Value, error) {
	id, err := asVecID("vec.len", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	n, err := host.VecLen(id)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "vec.len")
	}
	return bytecode.Int64(int64(n)), nil
}

func bVecPush(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("vec.push", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	id, err := asVecID("vec.push", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.VecPush(id, args[1]); err != nil {
		return bytecode.Value{}, hostErr(err, "vec.push")
	}
	return bytecode.Unit, nil
}

func bVecGet(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("vec.get", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	id, err := asVecID("vec.get", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	idx, err := asInt("vec.get", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	v, err := host.VecGet(id, idx)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "vec.get")
	}
	return v, nil
}

func bVecSet(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("vec.set", args, 3); err != nil {
		return bytecode.Value{}, err
	}
	id, err := asVecID("vec.set", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	idx, err := asInt("vec.set", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := host.VecSet(id, idx, args[2]); err != nil {
		return bytecode.Value{}, hostErr(err, "vec.set")
	}
	return bytecode.Unit, nil
}

func bVecDelete(host Host, args []bytecode.Value) (bytecode.Value, error) {
	if err := argc("vec.delete", args, 2); err != nil {
		return bytecode.Value{}, err
	}
	id, err := asVecID("vec.delete", args, 0)
	if err != nil {
		return bytecode.Value{}, err
	}
	idx, err := asInt("vec.delete", args, 1)
	if err != nil {
		return bytecode.Value{}, err
	}
	v, err := host.VecDelete(id, idx)
	if err != nil {
		return bytecode.Value{}, hostErr(err, "vec.delete")
	}
	return v, nil
}
