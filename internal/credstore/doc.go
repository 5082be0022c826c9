// Package credstore provides persistent storage for OAuth credentials.
//
// Three backends with different security and deployment tradeoffs:
//   - File: local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential
//     Manager, Secret Service on Linux)
//   - Memory: in-process storage for tests and runs where credentials must not
//     outlive the process
//
// The OAuth flow persists its whole token bundle through SetAll and removes it
// through DeleteAll, so a crash cannot leave a half-updated bundle behind
// where the backend can write atomically.
package credstore
