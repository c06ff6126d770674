package ttkeep

// Post is the subset of the resolver API's post payload that the archiver
// consumes. Video posts carry play URLs; photo posts carry Images.
type Post struct {
	// Id is the unique identifier of the post.
	Id string `json:"id"`
	// VideoId is the legacy identifier some responses use instead of Id.
	VideoId string `json:"video_id"`
	// Title is the post caption.
	Title string `json:"title"`
	// Cover is the URL of the post's cover image.
	Cover string `json:"cover"`
	// Duration is the video duration in seconds, zero for photo posts.
	Duration int `json:"duration"`
	// Play is the URL of the standard-definition video.
	Play string `json:"play"`
	// Hdplay is the URL of the high-definition video.
	Hdplay string `json:"hdplay"`
	// Size is the size of the standard-definition video in bytes.
	Size int `json:"size"`
	// HdSize is the size of the high-definition video in bytes.
	HdSize int `json:"hd_size"`
	// Music is the URL of the post's soundtrack.
	Music string `json:"music"`
	// MusicInfo carries richer soundtrack metadata when the API provides it.
	MusicInfo struct {
		// Title is the title of the soundtrack.
		Title string `json:"title"`
		// Play is the URL of the soundtrack audio.
		Play string `json:"play"`
		// Author is the author of the soundtrack.
		Author string `json:"author"`
	} `json:"music_info"`
	// CreateTime is the post's creation timestamp in Unix epoch seconds.
	CreateTime int64 `json:"create_time"`
	// Author contains information about the author of the post.
	Author struct {
		// UniqueId is the author's handle.
		UniqueId string `json:"unique_id"`
		// Nickname is the author's display name.
		Nickname string `json:"nickname"`
	} `json:"author"`
	// Images is the list of image URLs for photo posts.
	Images []string `json:"images"`
}

// ID returns the ID of the post, using VideoId if Id is empty.
func (post Post) ID() string {
	if post.Id != "" {
		return post.Id
	}
	return post.VideoId
}

// IsAlbum returns true if the post is a photo slideshow.
func (post Post) IsAlbum() bool {
	return len(post.Images) != 0
}

// IsVideo returns true if the post is a video (not an album).
func (post Post) IsVideo() bool {
	return !post.IsAlbum()
}

// VideoURL returns the best available video URL, preferring HD.
func (post Post) VideoURL() string {
	if post.Hdplay != "" {
		return post.Hdplay
	}
	return post.Play
}

// AudioURL returns the soundtrack URL, if any.
func (post Post) AudioURL() string {
	if post.MusicInfo.Play != "" {
		return post.MusicInfo.Play
	}
	return post.Music
}
