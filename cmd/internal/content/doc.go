// Package content implements Reel's media entities: videos, comments,
// tweets and playlists. It owns their persistence and validation; likes and
// subscriptions live in the relation package.
package content
