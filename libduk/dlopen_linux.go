package libduk

// Default library names tried when Load is given an empty path, most
// specific first.
var defaultLibNames = []string{
	"libduktig.so",
	"libduktape.so.207",
	"libduktape.so",
}
