package media

import "fmt"

// Budget tracks how many creative assets of each kind a client run still
// wants to store. The creatives scan stops searching once the budget is
// satisfied, so a run configured for one image and one video touches the
// media endpoints at most twice.
type Budget struct {
	targetImages int
	targetVideos int
	images       int
	videos       int
}

// NewBudget returns a budget aiming for the given store counts. Zero
// targets mean that kind is not wanted.
func NewBudget(targetImages, targetVideos int) *Budget {
	return &Budget{targetImages: targetImages, targetVideos: targetVideos}
}

// NeedsImages reports whether the budget wants any images at all.
func (b *Budget) NeedsImages() bool { return b.targetImages > 0 }

// NeedsVideos reports whether the budget wants any videos at all.
func (b *Budget) NeedsVideos() bool { return b.targetVideos > 0 }

// ImageSatisfied reports whether the image target has been reached.
// Trivially true when no images are wanted.
func (b *Budget) ImageSatisfied() bool { return b.images >= b.targetImages }

// VideoSatisfied reports whether the video target has been reached.
func (b *Budget) VideoSatisfied() bool { return b.videos >= b.targetVideos }

// Satisfied reports whether the scan can stop. A budget that wants nothing
// never satisfies, so a plain metadata pass walks every creative.
func (b *Budget) Satisfied() bool {
	switch {
	case b.NeedsImages() && b.NeedsVideos():
		return b.ImageSatisfied() && b.VideoSatisfied()
	case b.NeedsImages():
		return b.ImageSatisfied()
	case b.NeedsVideos():
		return b.VideoSatisfied()
	default:
		return false
	}
}

// RecordImage counts one stored image.
func (b *Budget) RecordImage() { b.images++ }

// RecordVideo counts one stored video.
func (b *Budget) RecordVideo() { b.videos++ }

// Images returns stored and target image counts.
func (b *Budget) Images() (stored, target int) { return b.images, b.targetImages }

// Videos returns stored and target video counts.
func (b *Budget) Videos() (stored, target int) { return b.videos, b.targetVideos }

// String renders the progress for log lines.
func (b *Budget) String() string {
	return fmt.Sprintf("images %d/%d, videos %d/%d",
		b.images, b.targetImages, b.videos, b.targetVideos)
}
