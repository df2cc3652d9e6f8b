// Copyright 2025 James Ross
package videoservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/jobstore"
)

func seedVideo(t *testing.T, c *jobstore.Collection[*jobstore.Video], id, owner string, status jobstore.VideoStatus) *jobstore.Video {
	t.Helper()
	v := &jobstore.Video{ID: id, OwnerID: owner, Status: status, URL: "https://mock-storage.lumalabs.ai/videos/" + id + ".mp4", CreatedAt: time.Now()}
	c.Create(id, v)
	return v
}

func TestGetEnforcesOwnership(t *testing.T) {
	videos := jobstore.NewCollection[*jobstore.Video]()
	seedVideo(t, videos, "vid-1", "user-1", jobstore.VideoReady)
	svc := New(videos)

	_, err := svc.Get("vid-1", &jobstore.User{ID: "user-2"})
	require.Error(t, err)
	assert.Equal(t, "AUTH_PERMISSION_DENIED", err.(*apierr.Error).Code)

	v, err := svc.Get("vid-1", &jobstore.User{ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "vid-1", v.ID)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	svc := New(jobstore.NewCollection[*jobstore.Video]())
	_, err := svc.Get("nope", &jobstore.User{ID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, "VIDEO_NOT_FOUND", err.(*apierr.Error).Code)
}

func TestStreamURLRequiresReadyStatus(t *testing.T) {
	videos := jobstore.NewCollection[*jobstore.Video]()
	seedVideo(t, videos, "vid-1", "user-1", jobstore.VideoProcessing)
	svc := New(videos)

	_, err := svc.StreamURL("vid-1", &jobstore.User{ID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, "VIDEO_NOT_FOUND", err.(*apierr.Error).Code)
}

func TestListFiltersByOwnerAndStatus(t *testing.T) {
	videos := jobstore.NewCollection[*jobstore.Video]()
	seedVideo(t, videos, "vid-1", "user-1", jobstore.VideoReady)
	seedVideo(t, videos, "vid-2", "user-1", jobstore.VideoProcessing)
	seedVideo(t, videos, "vid-3", "user-2", jobstore.VideoReady)
	svc := New(videos)

	results, total := svc.List(&jobstore.User{ID: "user-1"}, 1, 20, "")
	assert.Equal(t, 2, total)
	assert.Len(t, results, 2)

	results, total = svc.List(&jobstore.User{ID: "user-1"}, 1, 20, jobstore.VideoReady)
	assert.Equal(t, 1, total)
	assert.Equal(t, "vid-1", results[0].ID)
}

func TestDeleteRemovesOwnedVideo(t *testing.T) {
	videos := jobstore.NewCollection[*jobstore.Video]()
	seedVideo(t, videos, "vid-1", "user-1", jobstore.VideoReady)
	svc := New(videos)

	require.NoError(t, svc.Delete("vid-1", &jobstore.User{ID: "user-1"}))
	assert.False(t, videos.Exists("vid-1"))
}
