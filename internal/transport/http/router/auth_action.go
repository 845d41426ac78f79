package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"muckamuck/internal/domain"
	httpez "muckamuck/internal/transport/http/ez"
	"muckamuck/pkg/utils"
)

type userOut struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PublicEmail string `json:"publicEmail"`
	Bio         string `json:"bio"`
	Twitter     string `json:"twitter"`
	Role        string `json:"role"`
}

func toUserOut(u *domain.User) userOut {
	return userOut{
		ID: u.ID, Email: u.Email, Name: u.Name,
		PublicEmail: u.PublicEmail, Bio: u.Bio, Twitter: u.Twitter,
		Role: u.Role,
	}
}

func mountAuthActions(api, authed *gin.RouterGroup, d Deps) {
	ezPublic := httpez.New(api)
	ezAuth := httpez.New(authed)

	type signUpIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"     binding:"omitempty,max=64"`
	}
	type tokenOut struct {
		Token string  `json:"token"`
		User  userOut `json:"user"`
	}
	httpez.RegisterAction(ezPublic, httpez.Action[signUpIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/sign_up",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *signUpIn) (tokenOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))
			name := strings.TrimSpace(in.Name)
			if name == "" {
				if at := strings.IndexByte(email, '@'); at > 0 {
					name = email[:at]
				} else {
					name = "user"
				}
			}
			u := &domain.User{
				ID:           utils.NewID(),
				Email:        email,
				Name:         name,
				PasswordHash: utils.HashPassword(in.Password),
				Role:         "user",
			}
			if err := d.Users.Create(u); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					return tokenOut{}, httpez.Conflict("email already registered")
				}
				return tokenOut{}, httpez.Internal("create user failed", err)
			}
			tok, err := d.JWTer.Issue(u.ID, u.Role)
			if err != nil {
				return tokenOut{}, httpez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok, User: toUserOut(u)}, nil
		},
	})

	type signInIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction(ezPublic, httpez.Action[signInIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/sign_in",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *signInIn) (tokenOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))
			u, err := d.Users.FindByEmail(email)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return tokenOut{}, httpez.Unauthorized("invalid credentials")
				}
				return tokenOut{}, httpez.Internal("db error", err)
			}
			if !utils.CheckPassword(in.Password, u.PasswordHash) {
				return tokenOut{}, httpez.Unauthorized("invalid credentials")
			}
			tok, err := d.JWTer.Issue(u.ID, u.Role)
			if err != nil {
				return tokenOut{}, httpez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok, User: toUserOut(u)}, nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (userOut, error) {
			u, err := d.Users.FindByID(c.GetString("userId"))
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return userOut{}, httpez.NotFound("user not found")
				}
				return userOut{}, httpez.Internal("db error", err)
			}
			return toUserOut(u), nil
		},
	})

	// Profile fields show up on rendered author pages, so edits refresh
	// those page sets on every site the user belongs to.
	type profileIn struct {
		Name        string `json:"name"        binding:"omitempty,max=64"`
		PublicEmail string `json:"publicEmail" binding:"omitempty,email"`
		Bio         string `json:"bio"         binding:"omitempty,max=512"`
		Twitter     string `json:"twitter"     binding:"omitempty,max=64"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[profileIn, userOut]{
		Method: http.MethodPut,
		Path:   "/me",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *profileIn) (userOut, error) {
			u, err := d.Users.FindByID(c.GetString("userId"))
			if err != nil {
				return userOut{}, httpez.Internal("db error", err)
			}
			if in.Name != "" {
				u.Name = in.Name
			}
			u.PublicEmail = in.PublicEmail
			u.Bio = in.Bio
			u.Twitter = in.Twitter
			if err := d.Users.Update(u); err != nil {
				return userOut{}, httpez.Internal("update user failed", err)
			}
			memberOf, err := d.Sites.ListMemberSites(u.ID)
			if err != nil {
				return userOut{}, httpez.Internal("list sites failed", err)
			}
			for _, s := range memberOf {
				if err := d.Events.ProfileChanged(c, s.ID, u.ID); err != nil {
					return userOut{}, httpez.Internal("schedule failed", err)
				}
			}
			return toUserOut(u), nil
		},
	})
}
