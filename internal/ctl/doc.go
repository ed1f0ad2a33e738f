// Package ctl implements bkctl, the operator tool for the journal vault.
//
// Commands:
//   - keygen: print a fresh 32-byte encryption key as hex
//   - derive-key -salt S: prompt for a passphrase and print the argon2id key
//   - backup: upload a ciphertext-only export using the server configuration
//
// Keys are printed once to stdout and never written anywhere else.
package ctl
