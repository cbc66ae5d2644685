package types

// DispatchKind discriminates how a builtin call's arguments are checked
// (spec §4.3 "a call pkg.name(...) ... dispatches to a builtin signature").
type DispatchKind int

const (
	// FixedArity checks each argument position against Params exactly.
	FixedArity DispatchKind = iota
	// FormatVariadic checks Params[0] is String (a format string) and
	// validates the remaining arguments against its %d/%f/%s/%b specifiers.
	FormatVariadic
	// ArrayOps checks its first argument is an Array and derives Ret (and
	// remaining argument expectations) from that array's element type.
	ArrayOps
)

// BuiltinSig is one (package, name) builtin's compile-time signature.
type BuiltinSig struct {
	Kind   DispatchKind
	Params []*Type // meaningful for FixedArity; Params[0] only for FormatVariadic
	Ret    *Type
}

// builtinPackages enumerates the default builtin surface (spec §6).
var builtinPackages = map[string]map[string]*BuiltinSig{
	"io": {
		"print":       {FixedArity, []*Type{String}, Void},
		"println":     {FixedArity, []*Type{String}, Void},
		"printInt":    {FixedArity, []*Type{Int}, Void},
		"printFloat":  {FixedArity, []*Type{Float}, Void},
		"printBool":   {FixedArity, []*Type{Bool}, Void},
		"printString": {FixedArity, []*Type{String}, Void},
		"format":      {FormatVariadic, []*Type{String}, String},
		"printf":      {FormatVariadic, []*Type{String}, Void},
		"readLine":    {FixedArity, nil, String},
	},
	"str": {
		"len":         {FixedArity, []*Type{String}, Int},
		"isEmpty":     {FixedArity, []*Type{String}, Bool},
		"trim":        {FixedArity, []*Type{String}, String},
		"toLower":     {FixedArity, []*Type{String}, String},
		"toUpper":     {FixedArity, []*Type{String}, String},
		"contains":    {FixedArity, []*Type{String, String}, Bool},
		"startsWith":  {FixedArity, []*Type{String, String}, Bool},
		"endsWith":    {FixedArity, []*Type{String, String}, Bool},
		"indexOf":     {FixedArity, []*Type{String, String}, Int},
		"lastIndexOf": {FixedArity, []*Type{String, String}, Int},
		"slice":       {FixedArity, []*Type{String, Int, Int}, String},
		"replace":     {FixedArity, []*Type{String, String, String}, String},
		"repeat":      {FixedArity, []*Type{String, Int}, String},
	},
	"arr": {
		// Ret/Params are placeholders; checkArrayBuiltin derives the real
		// element-dependent types.
		"len":      {ArrayOps, nil, Int},
		"isEmpty":  {ArrayOps, nil, Bool},
		"first":    {ArrayOps, nil, Unknown},
		"last":     {ArrayOps, nil, Unknown},
		"reverse":  {ArrayOps, nil, Unknown},
		"sum":      {ArrayOps, nil, Unknown},
		"min":      {ArrayOps, nil, Unknown},
		"max":      {ArrayOps, nil, Unknown},
		"sort":     {ArrayOps, nil, Unknown},
		"contains": {ArrayOps, nil, Bool},
		"indexOf":  {ArrayOps, nil, Int},
		"count":    {ArrayOps, nil, Int},
		"join":     {ArrayOps, nil, String},
		"slice":    {ArrayOps, nil, Unknown},
	},
	"datetime": {
		"nowUnix":   {FixedArity, nil, Int},
		"nowMillis": {FixedArity, nil, Int},
		"fromUnix":  {FixedArity, []*Type{Int}, Int},
		"fromMillis": {FixedArity, []*Type{Int}, Int},
		"year":      {FixedArity, []*Type{Int}, Int},
		"month":     {FixedArity, []*Type{Int}, Int},
		"day":       {FixedArity, []*Type{Int}, Int},
		"hour":      {FixedArity, []*Type{Int}, Int},
		"minute":    {FixedArity, []*Type{Int}, Int},
		"second":    {FixedArity, []*Type{Int}, Int},
		"parseUnix": {FixedArity, []*Type{String}, Int},
	},
	"fs": {
		"exists":      {FixedArity, []*Type{String}, Bool},
		"readText":    {FixedArity, []*Type{String}, String},
		"writeText":   {FixedArity, []*Type{String, String}, Void},
		"appendText":  {FixedArity, []*Type{String, String}, Void},
		"mkdirAll":    {FixedArity, []*Type{String}, Void},
		"removeFile":  {FixedArity, []*Type{String}, Void},
		"removeDirAll": {FixedArity, []*Type{String}, Void},
		"join":        {FixedArity, []*Type{String, String}, String},
	},
	"os": {
		"cwd":          {FixedArity, nil, String},
		"platform":     {FixedArity, nil, String},
		"sleep":        {FixedArity, []*Type{Int}, Void},
		"execShell":    {FixedArity, []*Type{String}, Int},
		"execShellOut": {FixedArity, []*Type{String}, String},
	},
	"random": {
		"seed":  {FixedArity, []*Type{Int}, Void},
		"int":   {FixedArity, nil, Int},
		"float": {FixedArity, nil, Float},
	},
	"vec": {
		"new":    {FixedArity, nil, Vec},
		"len":    {FixedArity, []*Type{Vec}, Int},
		"push":   {FixedArity, nil, Void}, // args[1] accepts any Value type
		"get":    {FixedArity, nil, Unknown},
		"set":    {FixedArity, nil, Void},
		"delete": {FixedArity, nil, Unknown},
	},
}

// lookupBuiltin finds the signature registered for (pkg, name).
func lookupBuiltin(pkg, name string) (*BuiltinSig, bool) {
	fns, ok := builtinPackages[pkg]
	if !ok {
		return nil, false
	}
	sig, ok := fns[name]
	return sig, ok
}

// isBuiltinPackage reports whether name is a known builtin package, as
// opposed to an imported module namespace alias.
func isBuiltinPackage(name string) bool {
	_, ok := builtinPackages[name]
	return ok
}

// IsBuiltinPackage is the exported form of isBuiltinPackage, used by
// bytecode lowering to classify a qualified call's first segment the
// same way the checker does (spec §4.4 "Direct builtin calls").
func IsBuiltinPackage(name string) bool {
	return isBuiltinPackage(name)
}
