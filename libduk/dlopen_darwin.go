package libduk

var defaultLibNames = []string{
	"libduktig.dylib",
	"libduktape.dylib",
}
