// Package launch renders a dataflow graph as a gst-launch style launch line
// and parses such lines back.
//
// # Notation
//
// A launch line is a sequence of statements joined by continuation markers:
//
//	gst-launch-1.0 -ev \
//	tee \
//	    name=t \
//	t. \
//	  ! queue \
//	  ! f.sink_0 \
//	t. \
//	  ! queue \
//	  ! funnel \
//	      name=f \
//	  ! fakesink
//
// An element line holds a factory name, optionally preceded by the link
// marker "! ". Its non-default settings follow on their own lines. A filter
// element is written as its quoted capability description. "t." attaches a
// branch to the element named t, and "! f.sink_0" links the current branch
// into input port sink_0 of the element named f, which is defined later.
//
// # Serializing
//
// [Serialize] walks the graph from every source, carrying the current
// level, whether the node was reached through a link, and a [Ledger] of join
// arrivals. See its documentation for the rules.
//
// # Parsing
//
// [Parse] tokenizes a launch line the way the launcher does and returns the
// elements and links it describes. It is used to check that serialized
// output describes the same graph it was produced from.
package launch
