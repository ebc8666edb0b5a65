package upload

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"clipforge/internal/batch"
	"clipforge/script"
)

// uploadChunkSize is the resumable upload chunk size. 1MB keeps retry
// cost low on flaky links.
const uploadChunkSize = 1024 * 1024

// Uploader publishes videos, thumbnails, and captions through the
// YouTube Data API.
type Uploader struct {
	service *youtube.Service

	// ShowProgress renders an upload progress bar on stderr.
	ShowProgress bool
}

// NewUploader creates an uploader over an authenticated token source.
func NewUploader(ctx context.Context, ts oauth2.TokenSource) (*Uploader, error) {
	service, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Uploader{service: service, ShowProgress: true}, nil
}

// Upload performs a resumable insert of the video file and returns the
// new video id.
func (u *Uploader) Upload(ctx context.Context, videoPath string, md Metadata) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       md.Title,
			Description: md.Description,
			Tags:        md.Tags,
			CategoryId:  md.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           md.Privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	call := u.service.Videos.Insert([]string{"snippet", "status"}, video).
		Context(ctx).
		Media(file, googleapi.ChunkSize(uploadChunkSize))

	if u.ShowProgress {
		bar := progressbar.DefaultBytes(info.Size(), "uploading")
		call.ProgressUpdater(func(current, total int64) {
			bar.Set64(current)
		})
	}

	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}
	return resp.Id, nil
}

// SetThumbnail attaches a custom thumbnail to an uploaded video.
func (u *Uploader) SetThumbnail(ctx context.Context, videoID, thumbnailPath string) error {
	if !batch.ExistsNonEmpty(thumbnailPath) {
		return fmt.Errorf("%w: thumbnail not generated at %s", batch.ErrMissingInput, thumbnailPath)
	}

	file, err := os.Open(thumbnailPath)
	if err != nil {
		return fmt.Errorf("open thumbnail: %w", err)
	}
	defer file.Close()

	_, err = u.service.Thumbnails.Set(videoID).
		Context(ctx).
		Media(file, googleapi.ContentType("image/jpeg")).
		Do()
	if err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	return nil
}

// UploadCaptions attaches an SRT caption track to an uploaded video.
func (u *Uploader) UploadCaptions(ctx context.Context, videoID, captionPath string) error {
	if !batch.ExistsNonEmpty(captionPath) {
		return fmt.Errorf("%w: captions not generated at %s", batch.ErrMissingInput, captionPath)
	}

	file, err := os.Open(captionPath)
	if err != nil {
		return fmt.Errorf("open captions: %w", err)
	}
	defer file.Close()

	caption := &youtube.Caption{
		Snippet: &youtube.CaptionSnippet{
			VideoId:  videoID,
			Language: "en",
			Name:     "English",
		},
	}

	_, err = u.service.Captions.Insert([]string{"snippet"}, caption).
		Context(ctx).
		Media(file, googleapi.ContentType("application/x-subrip")).
		Do()
	if err != nil {
		return fmt.Errorf("upload captions: %w", err)
	}
	return nil
}

// WatchURL returns the public URL for an uploaded video.
func WatchURL(videoID string, longForm bool) string {
	if longForm {
		return "https://youtube.com/watch?v=" + videoID
	}
	return "https://youtube.com/shorts/" + videoID
}

// Record builds the upload record persisted next to the script.
func Record(videoID string, md Metadata, longForm bool) *script.UploadRecord {
	return &script.UploadRecord{
		VideoID: videoID,
		URL:     WatchURL(videoID, longForm),
		Title:   md.Title,
		Privacy: md.Privacy,
	}
}
