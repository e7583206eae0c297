// Package consts holds the per-firmware and per-chip constants the unlock
// sequence depends on.
//
// The known firmware builds and chip timing presets ship embedded in the
// binary (firmwares/firmwares.yaml). A Registry is seeded from that catalog
// and may be extended at runtime, either from the bridge configuration file or
// by the host with the picofwconst command.
//
// Firmware versions are keyed by the exact string the controller returns from
// its "version" command, for example "E1E 0001 0000 0004 13D0". Host commands
// cannot carry spaces inside an argument, so NormalizeVersion converts the
// dotted form "E1E.0001.0000.0004.13D0" back to the canonical key.
package consts
