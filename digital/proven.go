//go:build !unproven

package digital

// Unproven reports whether the stateful and toggleable capabilities were
// compiled in.
const Unproven = false
