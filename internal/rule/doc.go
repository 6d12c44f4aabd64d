// Package rule executes user-supplied JavaScript extraction rules at
// an explicit marshaling boundary.
//
// A workspace contains one rule module per page type: a file named
// rule_<name>.js declaring an integer TYPE_ID and any of three
// functions, navigate(content), parse(content), and validate(content).
// A rule is a pure function of the page content: nothing else is passed
// in and its return value is the only channel back into the engine.
// Whatever comes back crosses a schema check before it re-enters the
// engine: plain strings, arrays, and string-keyed objects only.
// Anything else is rejected as ErrRuleOutput rather than coerced.
//
// Each module runs in its own goja runtime. A goja runtime is not safe
// for concurrent use, so an Engine offers exactly one execution slot;
// the Pool provisions independently loaded Engines to give the crawler
// real parallelism without sharing interpreter state across
// goroutines.
package rule
