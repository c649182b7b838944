// Package interactive presents a terminal form for editing scan toggles, choosing a saved
// profile, and optionally saving the result as a new profile.
package interactive
