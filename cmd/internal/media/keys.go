package media

import (
	"path"
	"strings"
)

// Key prefixes group objects by kind inside the bucket.
const (
	PrefixVideos     = "videos"
	PrefixThumbnails = "thumbnails"
	PrefixAvatars    = "avatars"
	PrefixCovers     = "covers"
)

// ObjectKey builds a bucket key from a prefix, an entity ID and the original
// filename. Only the filename's extension is kept, lowercased.
func ObjectKey(prefix, id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return prefix + "/" + id + ext
}
