package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"colloquy/internal/models"
	"colloquy/internal/notifications"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// subscribeActivity opens a fresh subscriber connection on the shared
// activity channel. Events published before the subscription exists are
// never replayed, so every test subscribes right before acting.
func subscribeActivity(t *testing.T) *redis.PubSub {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	t.Cleanup(func() { client.Close() })

	sub := client.Subscribe(context.Background(), "activity:events")
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	return sub
}

func nextEvent(t *testing.T, sub *redis.PubSub) notifications.Event {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		var event notifications.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("expected an activity event")
	}
	return notifications.Event{}
}

func expectNoEvent(t *testing.T, sub *redis.PubSub) {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected activity event: %s", msg.Payload)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCommentNotifications(t *testing.T) {
	s, db := testApp(t)
	author := seedUser(t, db, false)
	replier := seedUser(t, db, false)
	post := seedPost(t, db)
	createPath := fmt.Sprintf("/api/targets/posts/%d/comments", post.ID)

	sub := subscribeActivity(t)

	resp := doRequest(t, s, http.MethodPost, createPath, bearerToken(t, author),
		fiberBody{"message": "top level"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	top := decodeBody[models.Comment](t, resp)

	event := nextEvent(t, sub)
	assert.Equal(t, notifications.VerbCommented, event.Verb)
	assert.Equal(t, author.ID, event.ActorID)
	assert.Equal(t, top.ID, event.CommentID)
	assert.Equal(t, "posts", event.TargetKind)
	assert.Equal(t, post.ID, event.TargetID)
	assert.Nil(t, event.RecipientID, "top-level comments address nobody")

	t.Run("self-reply makes no noise", func(t *testing.T) {
		resp := doRequest(t, s, http.MethodPost, createPath, bearerToken(t, author),
			fiberBody{"message": "talking to myself", "reply_to_id": top.ID})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		expectNoEvent(t, sub)
	})

	t.Run("reply notifies the parent author", func(t *testing.T) {
		resp := doRequest(t, s, http.MethodPost, createPath, bearerToken(t, replier),
			fiberBody{"message": "a reply", "reply_to_id": top.ID})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		reply := decodeBody[models.Comment](t, resp)

		event := nextEvent(t, sub)
		assert.Equal(t, notifications.VerbReplied, event.Verb)
		assert.Equal(t, replier.ID, event.ActorID)
		assert.Equal(t, reply.ID, event.CommentID)
		assert.Equal(t, "posts", event.TargetKind)
		assert.Equal(t, post.ID, event.TargetID)
		require.NotNil(t, event.RecipientID)
		assert.Equal(t, author.ID, *event.RecipientID)
	})
}

func TestLikeNotifications(t *testing.T) {
	s, db := testApp(t)
	author := seedUser(t, db, false)
	liker := seedUser(t, db, false)
	post := seedPost(t, db)
	createPath := fmt.Sprintf("/api/targets/posts/%d/comments", post.ID)

	resp := doRequest(t, s, http.MethodPost, createPath, bearerToken(t, author),
		fiberBody{"message": "like me"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decodeBody[models.Comment](t, resp)
	likePath := fmt.Sprintf("/api/comments/%d/like", comment.ID)

	sub := subscribeActivity(t)

	like := func(t *testing.T, user *models.User, liked bool) {
		t.Helper()
		resp := doRequest(t, s, http.MethodPost, likePath, bearerToken(t, user),
			fiberBody{"like": liked})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	t.Run("liking your own comment is silent", func(t *testing.T) {
		like(t, author, true)
		expectNoEvent(t, sub)
	})

	t.Run("first like carries the bound target", func(t *testing.T) {
		like(t, liker, true)

		event := nextEvent(t, sub)
		assert.Equal(t, notifications.VerbLiked, event.Verb)
		assert.Equal(t, liker.ID, event.ActorID)
		assert.Equal(t, comment.ID, event.CommentID)
		assert.Equal(t, "posts", event.TargetKind)
		assert.Equal(t, post.ID, event.TargetID)
		require.NotNil(t, event.RecipientID)
		assert.Equal(t, author.ID, *event.RecipientID)
	})

	t.Run("repeat like is silent", func(t *testing.T) {
		like(t, liker, true)
		expectNoEvent(t, sub)
	})

	t.Run("unlike is silent, re-like notifies again", func(t *testing.T) {
		like(t, liker, false)
		expectNoEvent(t, sub)

		like(t, liker, true)
		event := nextEvent(t, sub)
		assert.Equal(t, notifications.VerbLiked, event.Verb)
	})
}
