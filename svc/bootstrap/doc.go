// Package bootstrap reads the process wide secrets the service needs before
// it can open any connection: the management bot token and administrators,
// the webhook secret and the database and cache DSNs.
//
// Values come from the secret store. Outside production a missing or
// unreadable secret degrades to the value already present in the
// environment; in production the required ones abort startup.
package bootstrap
