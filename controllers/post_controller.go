package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/services"
	"github.com/cppla/postboard/utils"
)

// PostController serves the listing, post pages and the write forms.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// Index lists every post, newest first.
func (p *PostController) Index(ctx *gin.Context) {
	posts, err := p.posts.ListPosts(ctx.Request.Context())
	if err != nil {
		serverError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{"Posts": posts})
}

// CreateForm shows the new post page.
func (p *PostController) CreateForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "create.html", gin.H{"Title": "New post"})
}

// Create stores a post authored by the current user.
func (p *PostController) Create(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	_, err := p.posts.CreatePost(ctx.Request.Context(), user, ctx.PostForm("title"), ctx.PostForm("content"))
	switch {
	case err == nil:
		redirect(ctx, "/", "", "")
	case errors.Is(err, services.ErrTitleTooLong):
		redirect(ctx, "/create", utils.FlashError, "Title must be at most 200 characters")
	case errors.Is(err, services.ErrValidation):
		redirect(ctx, "/create", utils.FlashError, "Title and content are required")
	default:
		serverError(ctx, err)
	}
}

// View shows a post with its replies.
func (p *PostController) View(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		NotFound(ctx)
		return
	}
	post, replies, err := p.posts.GetPost(ctx.Request.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound):
		NotFound(ctx)
		return
	default:
		serverError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "post.html", gin.H{
		"Title":   post.Title,
		"Post":    post,
		"Replies": replies,
	})
}

// Reply adds a reply from the current user.
func (p *PostController) Reply(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		NotFound(ctx)
		return
	}
	user, _ := middleware.CurrentUser(ctx)
	target := fmt.Sprintf("/post/%d", id)

	_, err := p.posts.CreateReply(ctx.Request.Context(), id, user, ctx.PostForm("content"))
	switch {
	case err == nil:
		redirect(ctx, target, utils.FlashSuccess, "Reply added")
	case errors.Is(err, services.ErrNotFound):
		NotFound(ctx)
	case errors.Is(err, services.ErrValidation):
		redirect(ctx, target, utils.FlashError, "Reply cannot be empty")
	default:
		serverError(ctx, err)
	}
}

// ReplyRedirect sends GET requests for the reply endpoint to the post page.
func (p *PostController) ReplyRedirect(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		NotFound(ctx)
		return
	}
	redirect(ctx, fmt.Sprintf("/post/%d", id), "", "")
}

func postID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
