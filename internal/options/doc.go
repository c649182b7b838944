// Package options defines the SMBeagle option keys, their declared rendering order,
// and the Set type shared by profiles, the command builder, and the CLI surfaces.
package options
