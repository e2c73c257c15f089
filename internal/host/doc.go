// Package host is the accessory runtime the platform plugs into.
//
// It keeps the persisted accessory shells (one row per stable identifier in
// SQLite), replays them to the platform at startup and handles the
// platform's register and unregister requests. A runtime only accepts
// requests naming its own plugin and platform, and never holds two shells
// with the same UUID.
package host
