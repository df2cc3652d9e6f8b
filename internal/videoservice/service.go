// Copyright 2025 James Ross
// Package videoservice implements CRUD and streaming access for generated
// video assets, on top of the in-process video collection.
package videoservice

import (
	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/jobstore"
)

// Service provides ownership-checked access to videos.
type Service struct {
	videos *jobstore.Collection[*jobstore.Video]
}

// New builds a Service over videos.
func New(videos *jobstore.Collection[*jobstore.Video]) *Service {
	return &Service{videos: videos}
}

// Get returns a video by ID, enforcing that user owns it.
func (s *Service) Get(videoID string, user *jobstore.User) (*jobstore.Video, error) {
	video, ok := s.videos.Get(videoID)
	if !ok {
		return nil, apierr.VideoNotFound(videoID)
	}
	if video.OwnerID != user.ID {
		return nil, apierr.PermissionDenied("You don't have permission to access this video", map[string]any{
			"video_id": videoID,
		})
	}
	return video, nil
}

// List returns a user's videos, optionally filtered by status, newest
// first, with the total match count before pagination.
func (s *Service) List(user *jobstore.User, page, perPage int, status jobstore.VideoStatus) ([]*jobstore.Video, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	pred := func(v *jobstore.Video) bool {
		if v.OwnerID != user.ID {
			return false
		}
		if status != "" && v.Status != status {
			return false
		}
		return true
	}
	less := func(a, b *jobstore.Video) bool { return a.CreatedAt.After(b.CreatedAt) }
	return s.videos.List(pred, less, offset, perPage)
}

// StreamURL returns the playable URL for a ready video.
func (s *Service) StreamURL(videoID string, user *jobstore.User) (string, error) {
	video, err := s.Get(videoID, user)
	if err != nil {
		return "", err
	}
	if video.Status != jobstore.VideoReady || video.URL == "" {
		return "", apierr.VideoNotFound(videoID)
	}
	return video.URL, nil
}

// Delete removes a video the user owns.
func (s *Service) Delete(videoID string, user *jobstore.User) error {
	if _, err := s.Get(videoID, user); err != nil {
		return err
	}
	s.videos.Delete(videoID)
	return nil
}
