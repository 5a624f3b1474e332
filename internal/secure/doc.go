// Package secure keeps resolved values encrypted in memory between the
// moment a source resolver returns them and the moment they are written to
// the environment or a temp file.
//
// It wraps memguard enclaves. Plaintext is only exposed inside Reveal, in a
// locked buffer that is wiped when the callback returns. Call
// memguard.Purge at process exit to wipe the session key.
//
// Memory locking depends on RLIMIT_MEMLOCK on Linux. The enclaves
// themselves are small, so the default limit is enough for a manifest's
// worth of values.
package secure
