package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/utils"
)

// PostService reads and writes posts and replies, keeping the listing cache fresh.
type PostService struct {
	db    *gorm.DB
	cache utils.Cache
	ttl   time.Duration
	log   *zap.Logger

	// generation counts listing invalidations; a fill that saw it move is discarded.
	generation atomic.Uint64
}

// MaxTitleLength matches the title column size.
const MaxTitleLength = 200

// NewPostService creates a PostService. cache may be nil.
func NewPostService(db *gorm.DB, cache utils.Cache, ttl time.Duration, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{db: db, cache: cache, ttl: ttl, log: logger}
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	if posts, ok := s.cachedIndex(ctx); ok {
		return posts, nil
	}

	gen := s.generation.Load()
	var posts []models.Post
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	s.fillIndex(ctx, gen, posts)
	return posts, nil
}

// fillIndex stores posts under the index key unless an invalidation happened
// since gen was read. A write that lands during Set is undone right after it.
func (s *PostService) fillIndex(ctx context.Context, gen uint64, posts []models.Post) {
	if s.cache == nil || s.generation.Load() != gen {
		return
	}
	b, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, utils.IndexCacheKey, b, s.ttl); err != nil {
		s.log.Debug("index cache write failed", zap.Error(err))
		return
	}
	if s.generation.Load() != gen {
		if err := utils.Invalidate(ctx, s.cache, utils.IndexCacheKey); err != nil {
			s.log.Warn("stale index fill not removed", zap.Error(err))
		}
	}
}

func (s *PostService) cachedIndex(ctx context.Context) ([]models.Post, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, err := s.cache.Get(ctx, utils.IndexCacheKey)
	if err != nil {
		if !errors.Is(err, utils.ErrCacheMiss) {
			s.log.Debug("index cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var posts []models.Post
	if err := json.Unmarshal(b, &posts); err != nil {
		s.log.Debug("index cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return posts, true
}

// GetPost returns the post with its replies, oldest reply first.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, []models.Reply, error) {
	db := s.db.WithContext(ctx)
	var post models.Post
	err := db.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find post %d: %w", id, err)
	}

	var replies []models.Reply
	if err := db.Where("post_id = ?", post.ID).Order("created_at ASC").Order("id ASC").Find(&replies).Error; err != nil {
		return nil, nil, fmt.Errorf("list replies for post %d: %w", id, err)
	}
	return &post, replies, nil
}

// CreatePost stores a post authored by author, then drops the listing cache.
func (s *PostService) CreatePost(ctx context.Context, author *models.User, title, content string) (*models.Post, error) {
	title = utils.StripTags(strings.TrimSpace(title))
	content = utils.Sanitize(strings.TrimSpace(content))
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	post := models.Post{Title: title, Content: content}
	if author != nil {
		id := author.ID
		post.UserID = &id
		post.Username = author.Username
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.invalidate(ctx, utils.IndexCacheKey)
	return &post, nil
}

// CreateReply adds a reply to an existing post.
func (s *PostService) CreateReply(ctx context.Context, postID uint, author *models.User, content string) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}

		content = utils.Sanitize(strings.TrimSpace(content))
		if content == "" {
			return fmt.Errorf("%w: reply cannot be empty", ErrValidation)
		}

		reply = models.Reply{PostID: postID, Content: content}
		if author != nil {
			id := author.ID
			reply.UserID = &id
			reply.Username = author.Username
		}
		return tx.Create(&reply).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("create reply: %w", err)
	}
	return &reply, nil
}

func (s *PostService) invalidate(ctx context.Context, key string) {
	s.generation.Add(1)
	err := utils.Invalidate(ctx, s.cache, key)
	if err == nil {
		return
	}
	if errors.Is(err, utils.ErrNoCache) {
		s.log.Debug("cache invalidation skipped", zap.String("key", key), zap.Error(err))
		return
	}
	utils.CacheInvalidationFailures.WithLabelValues(key).Inc()
	s.log.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
}
