package admin

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/datatable"
	"vibeshop.com/app/internal/filter"
	"vibeshop.com/app/internal/http/handlers"
	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

var errUserNotFound = apperr.NotFoundErr("회원을 찾을 수 없습니다.")

func (h *Handler) userList() *list[users.User] {
	repo := h.Users.Repo()
	return &list[users.User]{
		h:        h,
		entity:   "users",
		title:    "회원 관리",
		notFound: errUserNotFound,
		fetch:    repo.List,
		get:      repo.Get,
		table:    h.userTable,
		filters: func(_ context.Context, q url.Values) (filter.Predicate[users.User], []view.FilterField, error) {
			role, status := q.Get("role"), q.Get("status")
			pred := filter.And(
				filter.Text(q.Get("q"),
					func(u users.User) string { return u.Name },
					func(u users.User) string { return u.Email },
				),
				filter.Equals(role, func(u users.User) string { return u.Role }),
				filter.Equals(status, func(u users.User) string { return u.Status }),
			)
			return pred, []view.FilterField{
				textField(q, "이름 또는 이메일"),
				selectField("role", "권한", options(users.Roles, users.RoleLabel, role, true)),
				selectField("status", "상태", options(users.Statuses, users.StatusLabel, status, true)),
			}, nil
		},
	}
}

func (h *Handler) userTable(actorID string) *datatable.Table[users.User] {
	return &datatable.Table[users.User]{
		ID:         func(u users.User) string { return u.ID },
		ActionPath: "/admin/users",
		RowHref:    func(u users.User) string { return "/admin/users/" + u.ID },
		Columns: []datatable.Column[users.User]{
			{Key: "name", Header: "이름", Sortable: true, Value: func(u users.User) any { return u.Name }},
			{Key: "email", Header: "이메일", Sortable: true, Value: func(u users.User) any { return u.Email }},
			{Key: "role", Header: "권한", Sortable: true,
				Value:  func(u users.User) any { return u.Role },
				Format: func(u users.User) datatable.Cell { return datatable.Cell{Text: users.RoleLabel(u.Role), Class: "tag tag-" + u.Role} }},
			{Key: "status", Header: "상태", Sortable: true,
				Value:  func(u users.User) any { return u.Status },
				Format: func(u users.User) datatable.Cell { return datatable.Cell{Text: users.StatusLabel(u.Status)} }},
			{Key: "createdAt", Header: "가입일", Sortable: true,
				Value:  func(u users.User) any { return u.CreatedAt },
				Format: func(u users.User) datatable.Cell { return datatable.Cell{Text: view.Date(u.CreatedAt, h.Loc)} }},
			{Key: "lastLoginAt", Header: "최근 로그인", Sortable: true,
				Value:  func(u users.User) any { return u.LastLoginAt },
				Format: func(u users.User) datatable.Cell { return datatable.Cell{Text: view.DateTimePtr(u.LastLoginAt, h.Loc)} }},
		},
		Actions: []datatable.Action[users.User]{
			{Name: "view", Label: "상세", Href: func(u users.User) string { return "/admin/users/" + u.ID }},
			{
				Name:    "toggle_role",
				Label:   "권한 변경",
				Confirm: "권한을 변경하시겠습니까?",
				Handle: func(ctx context.Context, u users.User, _ url.Values) (string, error) {
					return h.Users.ToggleRole(ctx, actorID, u)
				},
			},
			{
				Name:    "delete",
				Label:   "삭제",
				Variant: datatable.VariantDestructive,
				Confirm: "회원을 삭제하시겠습니까? 되돌릴 수 없습니다.",
				Handle: func(ctx context.Context, u users.User, _ url.Values) (string, error) {
					return h.Users.Delete(ctx, actorID, u)
				},
			},
		},
	}
}

func (h *Handler) UserDetail(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.Users.Repo().Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, errUserNotFound, err)
		return
	}
	list, err := h.Orders.Repo().ListByUser(ctx, u.ID)
	if err != nil {
		h.fail(c, errUserNotFound, err)
		return
	}
	d := view.AdminUserDetail{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      users.RoleLabel(u.Role),
		Status:    users.StatusLabel(u.Status),
		Provider:  u.Provider,
		CreatedAt: view.DateTime(u.CreatedAt, h.Loc),
		LastLogin: view.DateTimePtr(u.LastLoginAt, h.Loc),
	}
	for _, o := range list {
		d.Orders = append(d.Orders, handlers.OrderView(o, h.Loc))
	}
	h.R.AdminPage(c, http.StatusOK, "user", u.Name, d)
}
