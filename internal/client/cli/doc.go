// Package cli provides the interactive passvault command-line client.
//
// It wires configuration, the REST API client and a REPL. Typical flow:
// register or login, then manage credentials with list, show, add, edit and
// delete. Passwords are read without echo and can be generated locally
// with the generate command or by leaving the password empty on add.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
