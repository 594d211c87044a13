package admin

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/datatable"
	"vibeshop.com/app/internal/filter"
	"vibeshop.com/app/internal/http/handlers"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/pkg/view"
)

func (h *Handler) reviewList() *list[reviews.Review] {
	repo := h.Reviews.Repo()
	return &list[reviews.Review]{
		h:        h,
		entity:   "reviews",
		title:    "후기 관리",
		notFound: reviews.ErrNotFoundPub,
		fetch:    repo.List,
		get:      repo.Get,
		table:    h.reviewTable,
		filters: func(_ context.Context, q url.Values) (filter.Predicate[reviews.Review], []view.FilterField, error) {
			status := q.Get("status")
			pred := filter.And(
				filter.Text(q.Get("q"),
					func(r reviews.Review) string { return r.Title },
					func(r reviews.Review) string { return r.Name },
					func(r reviews.Review) string { return r.Content },
				),
				filter.Equals(status, func(r reviews.Review) string { return string(r.Status) }),
			)
			return pred, []view.FilterField{
				textField(q, "제목, 작성자 또는 내용"),
				selectField("status", "상태", options(reviews.Statuses, reviews.Status.Label, status, true)),
			}, nil
		},
	}
}

func (h *Handler) reviewTable(string) *datatable.Table[reviews.Review] {
	svc := h.Reviews
	return &datatable.Table[reviews.Review]{
		ID:         func(r reviews.Review) string { return r.ID },
		ActionPath: "/admin/reviews",
		RowHref:    func(r reviews.Review) string { return "/admin/reviews/" + r.ID },
		Columns: []datatable.Column[reviews.Review]{
			{Key: "title", Header: "제목", Sortable: true, Value: func(r reviews.Review) any { return r.Title }},
			{Key: "name", Header: "작성자", Sortable: true, Value: func(r reviews.Review) any { return r.Name }},
			{Key: "course", Header: "상품", Sortable: true, Value: func(r reviews.Review) any { return r.Course }},
			{Key: "rating", Header: "평점", Sortable: true,
				Value:  func(r reviews.Review) any { return r.Rating },
				Format: func(r reviews.Review) datatable.Cell { return datatable.Cell{Text: reviews.Stars(r.Rating), Class: "stars"} }},
			{Key: "status", Header: "상태", Sortable: true,
				Value:  func(r reviews.Review) any { return string(r.Status) },
				Format: func(r reviews.Review) datatable.Cell { return datatable.Cell{Text: r.Status.Label(), Class: "tag tag-" + string(r.Status)} }},
			{Key: "createdAt", Header: "작성일", Sortable: true,
				Value:  func(r reviews.Review) any { return r.CreatedAt },
				Format: func(r reviews.Review) datatable.Cell { return datatable.Cell{Text: view.Date(r.CreatedAt, h.Loc)} }},
		},
		Actions: []datatable.Action[reviews.Review]{
			{Name: "approve", Label: "승인", Handle: func(ctx context.Context, r reviews.Review, _ url.Values) (string, error) {
				return svc.Approve(ctx, r)
			}},
			{Name: "reject", Label: "반려", Handle: func(ctx context.Context, r reviews.Review, _ url.Values) (string, error) {
				return svc.Reject(ctx, r)
			}},
			{Name: "delete", Label: "삭제", Variant: datatable.VariantDestructive, Confirm: "후기를 삭제하시겠습니까?",
				Handle: func(ctx context.Context, r reviews.Review, _ url.Values) (string, error) {
					return svc.Delete(ctx, r)
				}},
		},
		Bulk: []datatable.BulkAction{
			{Name: "approve", Label: "선택 승인", Handle: svc.BulkApprove},
			{Name: "delete", Label: "선택 삭제", Variant: datatable.VariantDestructive,
				Confirm: "선택한 후기를 삭제하시겠습니까?", Handle: svc.BulkDelete},
		},
	}
}

func (h *Handler) ReviewDetail(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.Reviews.Repo().Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, reviews.ErrNotFoundPub, err)
		return
	}
	h.R.AdminPage(c, http.StatusOK, "review", r.Title, view.AdminReviewDetail{
		Review: handlers.ReviewCard(ctx, h.Reviews, r, h.Loc, true),
		Status: string(r.Status),
		UserID: r.UserID,
	})
}
