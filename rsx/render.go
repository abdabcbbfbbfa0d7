package rsx

// Render parses and compiles a template literal. This is the call form the
// watcher looks for: the argument must be a single raw string literal so an
// edit to it can be located and hot patched. The returned template carries
// no name; a watch session identifies call sites by source position and
// delivers patches under "path:line:col:idx" names, so programs receiving
// patches bind them by position rather than by the value returned here.
//
// Render panics on a malformed literal, like regexp.MustCompile: template
// literals are fixed at build time, so a parse failure is a programming
// error, not an input error.
func Render(src string) Template {
	body, err := Parse(src)
	if err != nil {
		panic("rsx: invalid template literal: " + err.Error())
	}
	return body.Compile("")
}
