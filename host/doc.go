// Package host executes Python source produced by [lang.Generate] on an
// embedded gpython interpreter.
//
// A [Python] host runs each source text in a fresh interpreter context with
// a print builtin that formats values the way the bthn evaluator does, so
// that a program prints the same text under either backend. After the
// source runs, the data bindings left in the module globals are returned
// as a [lang.Environment].
//
//	prog, _ := lang.ParseString(ctx, "set x 2 pow 10")
//	env, err := lang.Execute(ctx, host.New(), prog, builtin.Seed(os.Stdout))
//
// Functions defined by the program are not returned. Numbers come back as
// float64 regardless of whether Python computed an int or a float.
package host
