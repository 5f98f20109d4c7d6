// internal/services/blog_service.go
package services

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

type BlogService struct {
	db    *gorm.DB
	blobs BlobStore
}

type CreateBlogPostRequest struct {
	Title     string   `json:"title" validate:"required,min=3,max=255"`
	Content   string   `json:"content" validate:"required"`
	Excerpt   string   `json:"excerpt" validate:"omitempty,max=500"`
	Author    string   `json:"author" validate:"required,max=100"`
	Tags      []string `json:"tags,omitempty"`
	Published bool     `json:"published"`
}

type UpdateBlogPostRequest struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Content   *string  `json:"content,omitempty" validate:"omitempty,min=1"`
	Excerpt   *string  `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Author    *string  `json:"author,omitempty" validate:"omitempty,max=100"`
	Tags      []string `json:"tags,omitempty"`
	Published *bool    `json:"published,omitempty"`
}

func NewBlogService(db *gorm.DB, blobs BlobStore) *BlogService {
	return &BlogService{db: db, blobs: blobs}
}

func (s *BlogService) CreatePost(req *CreateBlogPostRequest, cover *multipart.FileHeader) (*models.BlogPost, error) {
	if fields := utils.GetValidationErrors(utils.ValidateStruct(req)); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	id := uuid.New()
	post := &models.BlogPost{
		BaseModel: models.BaseModel{ID: id},
		Title:     req.Title,
		Slug:      utils.GenerateSlug("", req.Title, id.String()[:slugDisambiguatorLen]),
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Author:    req.Author,
		Tags:      pq.StringArray(req.Tags),
		Published: req.Published,
	}
	if req.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	if cover != nil {
		result, err := s.uploadCover(cover)
		if err != nil {
			return nil, err
		}
		post.CoverImage = result.URL
		post.CoverKey = result.StoredName
	}

	if err := s.db.Create(post).Error; err != nil {
		if post.CoverKey != "" {
			if derr := s.blobs.Delete(post.CoverKey); derr != nil {
				logrus.WithError(derr).Warn("Failed to roll back blog cover blob")
			}
		}
		return nil, &RepositoryError{Op: "create post", Err: err}
	}

	return post, nil
}

func (s *BlogService) GetPostBySlug(slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.db.First(&post, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find post", Err: err}
	}
	return &post, nil
}

func (s *BlogService) ListPosts(params utils.PaginationParams, publishedOnly bool) ([]models.BlogPost, int64, error) {
	query := s.db.Model(&models.BlogPost{})

	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "count posts", Err: err}
	}

	allowedSortFields := []string{"created_at", "published_at", "title"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var posts []models.BlogPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "fetch posts", Err: err}
	}

	return posts, total, nil
}

func (s *BlogService) UpdatePost(id uuid.UUID, req *UpdateBlogPostRequest, cover *multipart.FileHeader) (*models.BlogPost, error) {
	if fields := utils.GetValidationErrors(utils.ValidateStruct(req)); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var post models.BlogPost
	if err := s.db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find post", Err: err}
	}

	if req.Title != nil && *req.Title != post.Title {
		post.Title = *req.Title
		post.Slug = utils.GenerateSlug("", post.Title, post.ID.String()[:slugDisambiguatorLen])
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Author != nil {
		post.Author = *req.Author
	}
	if req.Tags != nil {
		post.Tags = pq.StringArray(req.Tags)
	}
	if req.Published != nil {
		if *req.Published && !post.Published {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Published = *req.Published
	}

	if cover != nil {
		result, err := s.uploadCover(cover)
		if err != nil {
			return nil, err
		}
		if post.CoverKey != "" {
			if derr := s.blobs.Delete(post.CoverKey); derr != nil {
				logrus.WithError(derr).Warn("Failed to delete previous blog cover blob")
			}
		}
		post.CoverImage = result.URL
		post.CoverKey = result.StoredName
	}

	if err := s.db.Save(&post).Error; err != nil {
		return nil, &RepositoryError{Op: "save post", Err: err}
	}

	return &post, nil
}

func (s *BlogService) DeletePost(id uuid.UUID) error {
	var post models.BlogPost
	if err := s.db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return &RepositoryError{Op: "find post", Err: err}
	}

	if post.CoverKey != "" {
		if err := s.blobs.Delete(post.CoverKey); err != nil {
			logrus.WithError(err).Warn("Failed to delete blog cover blob")
		}
	}

	if err := s.db.Delete(&post).Error; err != nil {
		return &RepositoryError{Op: "delete post", Err: err}
	}

	return nil
}

func (s *BlogService) uploadCover(cover *multipart.FileHeader) (*UploadResult, error) {
	file, err := cover.Open()
	if err != nil {
		return nil, &StorageError{Op: "open cover", Err: err}
	}
	defer file.Close()

	result, err := s.blobs.Upload(file, cover, DefaultUploadOptions("blog", 0))
	if err != nil {
		return nil, &StorageError{Op: "upload cover", Err: err}
	}
	return result, nil
}
