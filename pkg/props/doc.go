// Package props decides which configuration keys of a component are written
// to a launch line.
//
// A key is emitted when it is writable, not discarded by the [Policy], readable
// and different from its default. The identity key "name" is only emitted for
// components with more than one input or more than one output port, since
// only those can be the target of a back-reference.
//
// Values are compared and written in a canonical form (see [Canonical]) so
// that 1.0 and 1 are the same value and capability descriptions use their
// own spelling.
package props
