package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

const reviewsPageSize = 30

type ReviewsHandler struct {
	R       *render.Renderer
	Flash   *flash.Codec
	Reviews *reviews.Service
	Loc     *time.Location
	Logger  *slog.Logger
}

// List shows approved reviews only.
func (h *ReviewsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.Reviews.Repo().ListByStatus(ctx, reviews.StatusApproved, reviewsPageSize)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.Page(c, http.StatusOK, "reviews", "고객 후기", view.ReviewsPage{Reviews: reviewCards(ctx, h.Reviews, items, h.Loc, false)})
}

func (h *ReviewsHandler) WriteForm(c *gin.Context) {
	p, _ := middleware.CurrentUser(c)
	h.R.Page(c, http.StatusOK, "review_write", "후기 작성", h.form(view.ReviewForm{Name: p.Name, Rating: reviews.MaxRating}))
}

func (h *ReviewsHandler) Write(c *gin.Context) {
	ctx := c.Request.Context()
	rating, _ := strconv.Atoi(c.PostForm("rating"))
	d := reviews.Draft{
		Name:    c.PostForm("name"),
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Course:  c.PostForm("course"),
		Rating:  rating,
	}
	form := h.form(view.ReviewForm{Name: d.Name, Title: d.Title, Content: d.Content, Course: d.Course, Rating: d.Rating})

	uploads, closeAll, err := h.uploads(c)
	defer closeAll()
	if err != nil {
		form.Errors = validation.FromAppError(err)
		h.R.Page(c, http.StatusBadRequest, "review_write", "후기 작성", form)
		return
	}

	r, err := h.Reviews.Submit(ctx, userID(c), d, uploads)
	if validation.IsInvalid(err) {
		form.Errors = validation.FromAppError(err)
		h.R.Page(c, http.StatusBadRequest, "review_write", "후기 작성", form)
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	msg := "후기가 등록되었습니다. 관리자 승인 후 게시됩니다."
	if r.Status == reviews.StatusApproved {
		msg = "후기가 등록되었습니다."
	}
	render.RedirectWithFlash(c, h.Flash, "/mypage/reviews", view.FlashSuccess, msg)
}

// uploads opens the attached files. The returned func closes them.
func (h *ReviewsHandler) uploads(c *gin.Context) ([]reviews.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	mf, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, closeAll, nil
	}
	if err != nil {
		return nil, closeAll, apperr.InvalidErr("첨부 파일을 읽을 수 없습니다.", map[string]string{"files": "첨부 파일을 읽을 수 없습니다."})
	}
	var out []reviews.Upload
	for _, fh := range mf.File["files"] {
		if fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, apperr.Wrap(err)
		}
		files = append(files, f)
		out = append(out, reviews.Upload{Filename: fh.Filename, Size: fh.Size, Body: f})
	}
	return out, closeAll, nil
}

func (h *ReviewsHandler) form(f view.ReviewForm) view.ReviewForm {
	lim := h.Reviews.Limits()
	f.MaxFiles = lim.MaxFiles
	f.MaxMB = lim.MaxFileBytes >> 20
	return f
}
