// Package trace extracts rule firings from simulation trace text and builds
// the flow graph of which rule fired after which.
//
// # Trace format
//
// A firing is a line of the exact form
//
//	*** Fire: <rule-name>
//
// starting at the beginning of a line. The rule name is the rest of the line,
// trimmed. Every other line is ignored: scanning a trace is log scraping, not
// strict parsing, and it never fails.
//
// # Labels
//
// Raw rule names are turned into labels with [Normalize]. Labels are the node
// identities of the graph and carry line breaks so long names wrap when drawn:
//
//	Normalize("Identify_steeringwheel") == "Identify\nsteeringwheel"
//	Normalize("Attend_visualresponse") == "Attend\nvisual\nresponse"
//
// # Building the graph
//
// [Process] scans the full text and returns a new [flow.State]:
//
//	st := trace.Process(text)
//	fmt.Println(st.Summary()) // Rule Nodes: 2 | Rule Edges: 2
//
// Hosts that follow a growing trace call Process again on the whole current
// text. Re-processing the same text yields an identical state, and appending
// firings never changes a tier or removes an edge produced by the shorter
// text.
package trace
