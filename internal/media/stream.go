package media

import "fmt"

// MediaType classifies the content of a stream.
type MediaType int

// Media types a container may declare.
const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeData
	MediaTypeSubtitle
	MediaTypeAttachment
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	}
	return "unknown"
}

// StreamInfo describes one stream of an opened source. Format, Width and
// Height are zero when the container does not declare them (compressed
// streams learn them from the decoder).
type StreamInfo struct {
	Index  int
	Type   MediaType
	Codec  string
	Format PixelFormat
	Width  int
	Height int
}

func (s StreamInfo) String() string {
	if s.Width > 0 && s.Height > 0 {
		return fmt.Sprintf("#%d %s %s %dx%d %s", s.Index, s.Type, s.Codec, s.Width, s.Height, s.Format)
	}
	return fmt.Sprintf("#%d %s %s", s.Index, s.Type, s.Codec)
}
