package dialect

// defaultKeywords is the GreyScript keyword set. The multi-word entries
// ("end if", "else if", ...) are produced by the lexer's keyword re-extension
// and must stay in sync with it.
var defaultKeywords = []string{
	"if",
	"then",
	"else",
	"else if",
	"end if",
	"for",
	"in",
	"end for",
	"while",
	"end while",
	"function",
	"end function",
	"return",
	"break",
	"continue",
	"new",
	"not",
	"and",
	"or",
	"isa",
	"import_code",
	"debugger",
}

// defaultNatives lists the GreyScript builtin identifiers. Identifiers in this
// set are never recorded in a scope's namespace set.
var defaultNatives = []string{
	// Literal-ish globals
	"true", "false", "null",
	"params", "globals", "locals", "outer", "self", "super",
	"string", "number", "list", "map", "funcRef",

	// MiniScript intrinsics
	"abs", "acos", "asin", "atan", "ceil", "char", "cos", "floor",
	"sign", "sin", "sqrt", "tan", "pi", "round", "rnd", "range",
	"str", "val", "code", "remove", "lower", "upper", "trim", "len",
	"slice", "indexOf", "hasIndex", "indexes", "values", "sum", "sort",
	"join", "split", "replace", "push", "pop", "pull", "shuffle",
	"print", "wait", "time", "yield", "bitAnd", "bitOr", "bitXor",

	// GreyScript natives
	"typeof", "md5", "get_router", "get_shell", "get_switch", "nslookup",
	"whois", "user_input", "include_lib", "exit", "user_mail_address",
	"user_bank_number", "launch_path", "active_user", "home_dir",
	"get_custom_object", "clear_screen", "format_columns", "program_path",
	"current_path", "parent_path", "command_info", "current_date",
	"is_lan_ip", "is_valid_ip", "reset_ctf_password", "get_ctf",
}

// defaultPrecedence is the binary-operator precedence table for GreyScript.
var defaultPrecedence = map[string]int{
	"or":  PrecedenceOr,
	"|":   PrecedenceOr,
	"and": PrecedenceAnd,
	"&":   PrecedenceAnd,
	"==":  PrecedenceComparison,
	"!=":  PrecedenceComparison,
	"<":   PrecedenceComparison,
	"<=":  PrecedenceComparison,
	">":   PrecedenceComparison,
	">=":  PrecedenceComparison,
	"<<":  PrecedenceShift,
	">>":  PrecedenceShift,
	">>>": PrecedenceShift,
	"+":   PrecedenceAdditive,
	"-":   PrecedenceAdditive,
	"*":   PrecedenceMultiplicative,
	"/":   PrecedenceMultiplicative,
	"%":   PrecedenceMultiplicative,
	"isa": PrecedenceIsa,
	"^":   PrecedencePower,
}

var greyscript = New(Descriptor{
	Name:       "greyscript",
	Keywords:   defaultKeywords,
	Natives:    defaultNatives,
	Precedence: defaultPrecedence,
})

// Default returns the built-in GreyScript dialect.
func Default() *Dialect {
	return greyscript
}
