// Package tlsroots loads TLS material.
//
// Pool builds client trust from the system roots plus extra CA files.
// CertWatcher serves a server certificate and reloads it when the cert or
// key file changes on disk.
package tlsroots
