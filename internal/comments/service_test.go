package comments_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/cache"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoraservices/storage"
	"github.com/lunagic/agora/agoraservices/vault"
	"github.com/lunagic/agora/internal/comments"
	"github.com/lunagic/agora/internal/events"
	"github.com/lunagic/agora/internal/listing"
	"github.com/lunagic/agora/internal/metrics"
	"github.com/lunagic/agora/internal/models"
	"github.com/lunagic/agora/internal/posts"
	"github.com/lunagic/agora/internal/testfixtures"
	"gotest.tools/v3/assert"
)

type fixture struct {
	db        *database.Service
	service   *comments.Service
	publisher *testfixtures.Publisher
	author    models.User
	reader    models.User
	post      models.Post
}

func newFixture(t *testing.T) fixture {
	db := testfixtures.NewDatabase(t)

	cacheDriver, err := cache.NewDriverMemory()
	assert.NilError(t, err)

	v, err := vault.New([]byte(uuid.NewString()[:32]))
	assert.NilError(t, err)

	storageDriver, err := storage.NewDriverLocal(t.TempDir(), "/files", v)
	assert.NilError(t, err)

	logger := testfixtures.Logger()
	postService := posts.NewService(db, posts.NewLikeStatus(db, cacheDriver), storageDriver, func(postID string) string {
		return "/post/" + postID + "/banner"
	}, logger)
	publisher := &testfixtures.Publisher{}

	author := testfixtures.NewUser(t, db)

	return fixture{
		db:        db,
		service:   comments.NewService(db, postService, publisher, metrics.New(), logger),
		publisher: publisher,
		author:    author,
		reader:    testfixtures.NewUser(t, db),
		post:      testfixtures.NewPost(t, db, author),
	}
}

func TestCommentLifecycle(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	comment, err := f.service.Create(ctx, f.reader.ID, comments.CreateComment{
		PostID:  f.post.ID,
		Content: "Nice post",
	})
	assert.NilError(t, err)

	// Counted and announced
	{
		stored := testfixtures.Reload[models.Post](t, f.db, f.post.ID)
		assert.Equal(t, int64(1), stored.CommentsCount)

		published := f.publisher.Events()
		assert.Equal(t, 1, len(published))
		assert.Equal(t, events.CommentCreated, published[0].Kind)
		assert.Equal(t, comment.ID, published[0].CommentID)
		assert.Equal(t, f.post.ID, published[0].PostID)
	}

	// Reply
	reply, err := f.service.Create(ctx, f.author.ID, comments.CreateComment{
		PostID:   f.post.ID,
		ParentID: &comment.ID,
		Content:  "Thanks",
	})
	assert.NilError(t, err)

	{
		stored := testfixtures.Reload[models.Post](t, f.db, f.post.ID)
		assert.Equal(t, int64(2), stored.CommentsCount)

		parent := testfixtures.Reload[models.PostComment](t, f.db, comment.ID)
		assert.Equal(t, int64(1), parent.RepliesCount)

		view, err := f.service.Get(ctx, reply.ID)
		assert.NilError(t, err)
		assert.Equal(t, f.author.UserName, view.CommentedByName)
		assert.Equal(t, comment.ID, *view.ParentID)
	}

	// Only the owner can change it
	{
		_, err := f.service.Update(ctx, f.author.ID, comments.UpdateComment{ID: comment.ID, Content: "Hijacked"})
		testfixtures.AssertStatus(t, err, http.StatusForbidden)

		testfixtures.AssertStatus(t, f.service.Delete(ctx, f.author.ID, comment.ID), http.StatusForbidden)

		updated, err := f.service.Update(ctx, f.reader.ID, comments.UpdateComment{ID: comment.ID, Content: "Great post"})
		assert.NilError(t, err)
		assert.Equal(t, "Great post", updated.Content)
		assert.Assert(t, updated.UpdatedAt != nil)

		// Counters survive an update
		stored := testfixtures.Reload[models.PostComment](t, f.db, comment.ID)
		assert.Equal(t, int64(1), stored.RepliesCount)
	}

	// Deleting the reply lowers both counters
	{
		assert.NilError(t, f.service.Delete(ctx, f.author.ID, reply.ID))

		stored := testfixtures.Reload[models.Post](t, f.db, f.post.ID)
		assert.Equal(t, int64(1), stored.CommentsCount)

		parent := testfixtures.Reload[models.PostComment](t, f.db, comment.ID)
		assert.Equal(t, int64(0), parent.RepliesCount)

		_, err := f.service.Get(ctx, reply.ID)
		testfixtures.AssertStatus(t, err, http.StatusNotFound)
	}

	// And the top level comment
	{
		assert.NilError(t, f.service.Delete(ctx, f.reader.ID, comment.ID))

		stored := testfixtures.Reload[models.Post](t, f.db, f.post.ID)
		assert.Equal(t, int64(0), stored.CommentsCount)
	}
}

func TestCreateRejections(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	other := testfixtures.NewPost(t, f.db, f.reader)
	foreign, err := f.service.Create(ctx, f.author.ID, comments.CreateComment{
		PostID:  other.ID,
		Content: "elsewhere",
	})
	assert.NilError(t, err)

	testCases := map[string]struct {
		payload comments.CreateComment
		status  int
	}{
		"unknown post": {
			payload: comments.CreateComment{PostID: uuid.NewString(), Content: "hi"},
			status:  http.StatusNotFound,
		},
		"unknown parent": {
			payload: comments.CreateComment{PostID: f.post.ID, ParentID: ptr(uuid.NewString()), Content: "hi"},
			status:  http.StatusNotFound,
		},
		"parent on another post": {
			payload: comments.CreateComment{PostID: f.post.ID, ParentID: &foreign.ID, Content: "hi"},
			status:  http.StatusForbidden,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.Create(t.Context(), f.reader.ID, testCase.payload)
			testfixtures.AssertStatus(t, err, testCase.status)
		})
	}

	// Nothing was written or counted
	{
		stored := testfixtures.Reload[models.Post](t, f.db, f.post.ID)
		assert.Equal(t, int64(0), stored.CommentsCount)

		parent := testfixtures.Reload[models.PostComment](t, f.db, foreign.ID)
		assert.Equal(t, int64(0), parent.RepliesCount)

		page, err := f.service.Paginate(ctx, comments.PaginateComments{PostID: f.post.ID})
		assert.NilError(t, err)
		assert.Equal(t, 0, page.Meta.TotalItems)

		assert.Equal(t, 1, len(f.publisher.Events()))
	}
}

func TestPaginate(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	top, err := f.service.Create(ctx, f.reader.ID, comments.CreateComment{PostID: f.post.ID, Content: "first"})
	assert.NilError(t, err)

	for _, content := range []string{"second", "third"} {
		_, err := f.service.Create(ctx, f.author.ID, comments.CreateComment{PostID: f.post.ID, ParentID: &top.ID, Content: content})
		assert.NilError(t, err)
	}

	_, err = f.service.Create(ctx, f.author.ID, comments.CreateComment{PostID: testfixtures.NewPost(t, f.db, f.author).ID, Content: "other post"})
	assert.NilError(t, err)

	testCases := map[string]struct {
		payload  comments.PaginateComments
		expected int
	}{
		"whole post": {
			payload:  comments.PaginateComments{PostID: f.post.ID},
			expected: 3,
		},
		"replies": {
			payload:  comments.PaginateComments{PostID: f.post.ID, ParentID: &top.ID},
			expected: 2,
		},
		"commenter": {
			payload:  comments.PaginateComments{PostID: f.post.ID, CommentedByID: &f.reader.ID},
			expected: 1,
		},
		"replies by commenter": {
			payload:  comments.PaginateComments{PostID: f.post.ID, ParentID: &top.ID, CommentedByID: &f.reader.ID},
			expected: 0,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			page, err := f.service.Paginate(t.Context(), testCase.payload)
			assert.NilError(t, err)
			assert.Equal(t, testCase.expected, page.Meta.TotalItems)
			assert.Equal(t, testCase.expected, len(page.Items))
		})
	}

	// Skip and sort
	{
		page, err := f.service.Paginate(ctx, comments.PaginateComments{
			PostID: f.post.ID,
			Params: listing.Params{Sort: "content.DESC", Skip: 1},
		})
		assert.NilError(t, err)
		assert.Equal(t, 2, len(page.Items))
		assert.Equal(t, "second", page.Items[0].Content)
		assert.Assert(t, strings.HasPrefix(page.Items[1].CommentedByName, "user "))
	}
}

func ptr[T any](v T) *T {
	return &v
}
