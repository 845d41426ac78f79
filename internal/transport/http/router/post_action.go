package router

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"muckamuck/internal/domain"
	httpez "muckamuck/internal/transport/http/ez"
	"muckamuck/pkg/utils"
)

type postOut struct {
	ID          string   `json:"id"`
	SiteID      string   `json:"siteId"`
	Slug        string   `json:"slug"`
	AuthorID    string   `json:"authorId"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	PublishedAt string   `json:"publishedAt"`
	Draft       bool     `json:"draft"`
}

func toPostOut(p *domain.Post) postOut {
	tags := p.TagList()
	if tags == nil {
		tags = []string{}
	}
	return postOut{
		ID: p.ID, SiteID: p.SiteID, Slug: p.Slug, AuthorID: p.AuthorID,
		Title: p.Title, Body: p.Body, Description: p.Description,
		Tags: tags, PublishedAt: p.PublishedAt.Format(time.RFC3339),
		Draft: p.Draft,
	}
}

// loadPostForMember resolves a post and checks the caller belongs to its
// site.
func loadPostForMember(d Deps, postID, userID string) (*domain.Post, error) {
	post, err := d.Posts.FindByID(postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httpez.NotFound("post not found")
		}
		return nil, httpez.Internal("db error", err)
	}
	if _, err := requireMember(d, post.SiteID, userID); err != nil {
		return nil, err
	}
	return post, nil
}

func mountPostActions(authed *gin.RouterGroup, d Deps) {
	ezAuth := httpez.New(authed)

	type postIn struct {
		Title       string   `json:"title"       binding:"required,max=191"`
		Body        string   `json:"body"`
		Description string   `json:"description" binding:"omitempty,max=512"`
		Tags        []string `json:"tags"        binding:"omitempty,max=32"`
		Draft       bool     `json:"draft"`
		PublishedAt string   `json:"publishedAt" binding:"omitempty"`
	}

	parsePublishedAt := func(s string) (time.Time, error) {
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339, s)
	}

	httpez.RegisterAction(ezAuth, httpez.Action[postIn, postOut]{
		Method: http.MethodPost,
		Path:   "/sites/:id/posts",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *postIn) (postOut, error) {
			uid := c.GetString("userId")
			site, err := requireMember(d, c.Param("id"), uid)
			if err != nil {
				return postOut{}, err
			}
			pubAt, err := parsePublishedAt(in.PublishedAt)
			if err != nil {
				return postOut{}, httpez.BadRequest("publishedAt must be RFC 3339")
			}
			if pubAt.IsZero() {
				pubAt = time.Now()
			}
			slug := utils.Sluggify(in.Title)
			if slug == "" {
				return postOut{}, httpez.BadRequest("cannot derive a slug from the title")
			}
			post := &domain.Post{
				ID:          utils.NewID(),
				SiteID:      site.ID,
				Slug:        slug,
				AuthorID:    uid,
				Title:       in.Title,
				Body:        in.Body,
				Description: in.Description,
				PublishedAt: pubAt,
				Draft:       in.Draft,
			}
			post.SetTags(in.Tags)
			if err := d.Posts.Create(post); err != nil {
				if !errors.Is(err, domain.ErrDuplicate) {
					return postOut{}, httpez.Internal("create post failed", err)
				}
				// slug taken on this site: disambiguate once with the
				// same-title count plus a random token
				n, cerr := d.Posts.CountByTitle(site.ID, in.Title)
				if cerr != nil {
					return postOut{}, httpez.Internal("db error", cerr)
				}
				post.Slug = fmt.Sprintf("%s-%d-%s", slug, n, utils.ShortToken(4))
				if err := d.Posts.Create(post); err != nil {
					return postOut{}, httpez.Internal("create post failed", err)
				}
			}
			if err := d.Events.PostSaved(c, post, nil); err != nil {
				return postOut{}, httpez.Internal("schedule failed", err)
			}
			return toPostOut(post), nil
		},
	})

	type listQ struct {
		Tag    string `form:"tag"`
		Drafts bool   `form:"drafts"`
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
	}
	type listOut struct {
		Total int64     `json:"total"`
		Items []postOut `json:"items"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/sites/:id/posts",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *listQ) (listOut, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return listOut{}, err
			}
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			f := domain.PostFilter{Tag: in.Tag, IncludeDrafts: in.Drafts}
			total, err := d.Posts.CountBySite(site.ID, f)
			if err != nil {
				return listOut{}, httpez.Internal("count posts failed", err)
			}
			posts, err := d.Posts.ListBySite(site.ID, f, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, httpez.Internal("list posts failed", err)
			}
			out := listOut{Total: total, Items: make([]postOut, 0, len(posts))}
			for i := range posts {
				out.Items = append(out.Items, toPostOut(&posts[i]))
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, postOut]{
		Method: http.MethodGet,
		Path:   "/posts/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (postOut, error) {
			post, err := loadPostForMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return postOut{}, err
			}
			return toPostOut(post), nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[postIn, postOut]{
		Method: http.MethodPut,
		Path:   "/posts/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *postIn) (postOut, error) {
			post, err := loadPostForMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return postOut{}, err
			}
			prevTags := post.TagList()
			pubAt, err := parsePublishedAt(in.PublishedAt)
			if err != nil {
				return postOut{}, httpez.BadRequest("publishedAt must be RFC 3339")
			}
			// slug is permanent; published URLs keep working across edits
			post.Title = in.Title
			post.Body = in.Body
			post.Description = in.Description
			post.Draft = in.Draft
			if !pubAt.IsZero() {
				post.PublishedAt = pubAt
			}
			post.SetTags(in.Tags)
			if err := d.Posts.Update(post); err != nil {
				return postOut{}, httpez.Internal("update post failed", err)
			}
			if err := d.Events.PostSaved(c, post, prevTags); err != nil {
				return postOut{}, httpez.Internal("schedule failed", err)
			}
			return toPostOut(post), nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/posts/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			post, err := loadPostForMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return nil, err
			}
			siteID, slug, authorID, tags := post.SiteID, post.Slug, post.AuthorID, post.TagList()
			if err := d.Posts.Delete(post.ID); err != nil {
				return nil, httpez.Internal("delete post failed", err)
			}
			if err := d.Events.PostDeleted(c, siteID, slug, authorID, tags); err != nil {
				return nil, httpez.Internal("schedule failed", err)
			}
			return gin.H{"id": post.ID}, nil
		},
	})
}
