package engine

// ScriptError is an error raised by script code or by the engine while
// evaluating script code. Message is the raised value coerced to a string,
// which for engine-created errors includes the error class and file/line.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}
