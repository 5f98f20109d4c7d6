// internal/handlers/blog.go
package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

type BlogHandler struct {
	blogService *services.BlogService
}

func NewBlogHandler(blogService *services.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// GET /blog
func (h *BlogHandler) GetPosts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	// Admins may request drafts; everyone else sees published posts only.
	publishedOnly := true
	if userType, ok := utils.GetUserTypeFromContext(c); ok && userType == "admin" {
		if all, err := strconv.ParseBool(c.DefaultQuery("include_drafts", "false")); err == nil && all {
			publishedOnly = false
		}
	}

	posts, total, err := h.blogService.ListPosts(params, publishedOnly)
	if err != nil {
		handleServiceError(c, "Post", err)
		return
	}

	result := utils.CreatePaginationResult(posts, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /blog/slug/:slug
func (h *BlogHandler) GetPostBySlug(c *gin.Context) {
	post, err := h.blogService.GetPostBySlug(c.Param("slug"))
	if err != nil {
		handleServiceError(c, "Post", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"post": post,
	})
}

// POST /blog (multipart/form-data)
func (h *BlogHandler) CreatePost(c *gin.Context) {
	req := &services.CreateBlogPostRequest{
		Title:     strings.TrimSpace(c.PostForm("title")),
		Content:   c.PostForm("content"),
		Excerpt:   strings.TrimSpace(c.PostForm("excerpt")),
		Author:    strings.TrimSpace(c.PostForm("author")),
		Tags:      parseTags(c.PostForm("tags")),
		Published: parseFormBool(c.PostForm("published")),
	}

	post, err := h.blogService.CreatePost(req, coverFile(c))
	if err != nil {
		handleServiceError(c, "Post", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Post created",
		"post":    post,
	})
}

// PUT /blog/:id (multipart/form-data)
func (h *BlogHandler) UpdatePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid post ID", nil)
		return
	}

	req := &services.UpdateBlogPostRequest{}
	if v, ok := c.GetPostForm("title"); ok {
		title := strings.TrimSpace(v)
		req.Title = &title
	}
	if v, ok := c.GetPostForm("content"); ok {
		req.Content = &v
	}
	if v, ok := c.GetPostForm("excerpt"); ok {
		excerpt := strings.TrimSpace(v)
		req.Excerpt = &excerpt
	}
	if v, ok := c.GetPostForm("author"); ok {
		author := strings.TrimSpace(v)
		req.Author = &author
	}
	if v, ok := c.GetPostForm("tags"); ok {
		req.Tags = parseTags(v)
	}
	if v, ok := c.GetPostForm("published"); ok {
		published := parseFormBool(v)
		req.Published = &published
	}

	post, err := h.blogService.UpdatePost(id, req, coverFile(c))
	if err != nil {
		handleServiceError(c, "Post", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Post updated",
		"post":    post,
	})
}

// DELETE /blog/:id
func (h *BlogHandler) DeletePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid post ID", nil)
		return
	}

	if err := h.blogService.DeletePost(id); err != nil {
		handleServiceError(c, "Post", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Post deleted",
	})
}

func coverFile(c *gin.Context) *multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	if files := form.File["cover"]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
