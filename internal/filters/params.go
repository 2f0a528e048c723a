package filters

// Params holds decode parameters from a stream's /DecodeParms dictionary,
// translated to Go values (int, float64, bool, string).
type Params map[string]interface{}

// getIntParam returns the integer parameter key, or def when it is missing
// or has an unexpected type.
func getIntParam(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// getBoolParam returns the boolean parameter key, or def.
func getBoolParam(params Params, key string, def bool) bool {
	if params == nil {
		return def
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
