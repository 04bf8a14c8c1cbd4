package player

import (
	"net/url"
	"path"
	"strings"
)

// Extension returns the lowercased file extension of a media URL without the
// leading dot. Query strings and fragments are ignored.
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// MIMEType is the container hint handed to the browser media element. It is
// advisory only; nothing here checks that the file decodes.
func MIMEType(rawURL string, video bool) string {
	switch Extension(rawURL) {
	case "mp4", "m4v":
		if video {
			return "video/mp4"
		}
		return "audio/mp4"
	case "m4a":
		return "audio/mp4"
	case "mov":
		return "video/quicktime"
	case "webm":
		if video {
			return "video/webm"
		}
		return "audio/webm"
	case "mkv":
		return "video/x-matroska"
	case "flac":
		return "audio/flac"
	case "opus":
		return "audio/ogg; codecs=opus"
	case "ogg", "oga":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	}

	if video {
		return "video/mp4"
	}
	return "audio/mpeg"
}
