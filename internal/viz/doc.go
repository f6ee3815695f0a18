// Package viz renders a running tile in the terminal.
//
// [Model] is a Bubble Tea program that steps a simulator on every tick and
// draws either a shaded map of one source component or a Braille scatter of
// the particles, next to the latest diagnostics and a plot of the current
// energy history.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	F     - Cycle the displayed component (jx, jy, jz, rho)
//	P     - Toggle particle view
//	?     - Show help
//	Q     - Quit
package viz
