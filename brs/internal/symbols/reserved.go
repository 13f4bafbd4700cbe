package symbols

// Reserved lists BrightScript keywords, type names and global builtin
// functions. Generated identifiers must avoid all of them.
var Reserved = []string{
	// keywords
	"and", "as", "box", "catch", "createobject", "dim", "each", "else", "elseif",
	"end", "endfor", "endfunction", "endif", "endsub", "endtry", "endwhile", "eval",
	"exit", "exitfor", "exitwhile", "false", "for", "function", "getglobalaa",
	"getlastruncompileerror", "getlastrunruntimeerror", "goto", "if", "in",
	"invalid", "let", "line_num", "m", "mod", "next", "not", "objfun", "or", "pos",
	"print", "rem", "return", "run", "step", "stop", "sub", "tab", "then", "throw",
	"to", "true", "try", "type", "while",

	// type names
	"boolean", "double", "dynamic", "float", "integer", "interface", "longinteger",
	"object", "string", "void",

	// global functions
	"abs", "asc", "atn", "cdbl", "chr", "cint", "copyfile", "cos", "createdirectory",
	"csng", "deletedirectory", "deletefile", "exp", "findmembersfunction", "fix",
	"formatdrive", "formatjson", "getinterface", "instr", "int", "lcase", "left",
	"len", "listdir", "log", "matchfiles", "mid", "movefile", "parsejson",
	"readasciifile", "rebootsystem", "right", "rnd", "runGarbageCollector", "sgn",
	"sin", "sleep", "sqr", "str", "stri", "string", "stringi", "strtoi",
	"substitute", "tan", "tr", "ucase", "uptime", "val", "wait", "writeasciifile",
}
