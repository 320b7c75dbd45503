// Package session implements Reel's dual-token session model.
//
// Each login issues a short-lived access JWT and a longer-lived refresh JWT.
// The server stores only a digest of the current refresh token on the user
// row; refresh rotates the stored digest atomically so every refresh token
// is usable at most once.
package session
