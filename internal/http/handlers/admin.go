package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/diagnosis/festa-decor/internal/admingate"
	"github.com/diagnosis/festa-decor/internal/backend"
	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/utils"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

type promptData struct {
	Next string
}

// AdminPrompt renders the admin gate's password form.
func (h *Handlers) AdminPrompt(w http.ResponseWriter, r *http.Request, next, notice string) {
	pd := web.PageData{Title: "Admin access", Data: promptData{Next: next}}
	if notice != "" {
		pd.Notices = []web.Notice{{Kind: web.Error, Message: notice}}
	}
	h.render.Render(w, r, http.StatusUnauthorized, "admin_prompt", pd)
}

var _ admingate.PromptFunc = (*Handlers)(nil).AdminPrompt

func (h *Handlers) AdminIndex(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, "/admin/dashboard")
}

type dashboardData struct {
	Events    int
	Occasions int
	Users     int
	Bookings  int
	Pending   int
	Inquiries int
	Posts     int
	Recent    []domain.Booking
}

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var d dashboardData

	var g errgroup.Group
	g.Go(func() error {
		list, err := h.api.Events.List(ctx, backend.EventQuery{})
		d.Events = len(list)
		return err
	})
	g.Go(func() error {
		list, err := h.api.Occasions.List(ctx)
		d.Occasions = len(list)
		return err
	})
	g.Go(func() error {
		list, err := h.api.Users.List(ctx)
		d.Users = len(list)
		return err
	})
	g.Go(func() error {
		list, err := h.api.Bookings.List(ctx, backend.BookingQuery{})
		d.Bookings = len(list)
		for _, b := range list {
			if b.Status == domain.BookingPending {
				d.Pending++
			}
		}
		if len(list) > 5 {
			list = list[:5]
		}
		d.Recent = list
		return err
	})
	g.Go(func() error {
		list, err := h.api.Contacts.List(ctx)
		d.Inquiries = len(list)
		return err
	})
	g.Go(func() error {
		list, err := h.api.Blogs.List(ctx, backend.BlogQuery{})
		d.Posts = len(list)
		return err
	})

	pd := web.PageData{Title: "Dashboard", Data: d}
	if err := g.Wait(); err != nil {
		pd.Notices = []web.Notice{{Kind: web.Error, Message: userMessage(err)}}
	}
	h.page(w, r, "admin_dashboard", pd)
}

// Events

func (h *Handlers) AdminEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Events.List(r.Context(), backend.EventQuery{Search: r.URL.Query().Get("q")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "admin_events", web.PageData{Title: "Events", Data: domain.Paginate(list, pageParam(r), 20)})
}

var eventFields = []string{"title", "slug", "description", "price", "discountPrice", "images", "occasion", "inclusions"}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func eventForm(e *domain.Event) map[string]string {
	if e == nil {
		return map[string]string{}
	}
	form := map[string]string{
		"title":       e.Title,
		"slug":        e.Slug,
		"description": e.Description,
		"price":       strconv.FormatFloat(e.Price, 'f', -1, 64),
		"images":      strings.Join(e.Images, "\n"),
		"occasion":    e.Occasion,
		"inclusions":  strings.Join(e.Inclusions, "\n"),
	}
	if e.DiscountPrice > 0 {
		form["discountPrice"] = strconv.FormatFloat(e.DiscountPrice, 'f', -1, 64)
	}
	if e.Featured {
		form["featured"] = "on"
	}
	return form
}

func parseEvent(r *http.Request) (domain.Event, map[string]string, utils.FieldErrors) {
	form := formValues(r, eventFields...)
	form["featured"] = r.PostFormValue("featured")

	errs := utils.FieldErrors{}
	errs.Require("title", form["title"], "Title is required")
	price, err := strconv.ParseFloat(form["price"], 64)
	errs.Check("price", err == nil && price >= 0, "Price must be a number")
	var discount float64
	if form["discountPrice"] != "" {
		discount, err = strconv.ParseFloat(form["discountPrice"], 64)
		errs.Check("discountPrice", err == nil && discount >= 0, "Discount price must be a number")
	}

	return domain.Event{
		Title:         form["title"],
		Slug:          form["slug"],
		Description:   form["description"],
		Price:         price,
		DiscountPrice: discount,
		Images:        splitLines(form["images"]),
		Occasion:      form["occasion"],
		Inclusions:    splitLines(form["inclusions"]),
		Featured:      form["featured"] != "",
	}, form, errs
}

type eventFormData struct {
	ID        string
	Occasions []domain.Occasion
}

func (h *Handlers) eventFormPage(w http.ResponseWriter, r *http.Request, status int, id string, form map[string]string, errs utils.FieldErrors) {
	occ, _ := h.api.Occasions.List(r.Context())
	title := "New event"
	if id != "" {
		title = "Edit event"
	}
	h.render.Render(w, r, status, "admin_event_form", web.PageData{
		Title:  title,
		Form:   form,
		Errors: errs,
		Data:   eventFormData{ID: id, Occasions: occ},
	})
}

func (h *Handlers) AdminEventNew(w http.ResponseWriter, r *http.Request) {
	h.eventFormPage(w, r, http.StatusOK, "", eventForm(nil), nil)
}

func (h *Handlers) AdminEventCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	e, form, errs := parseEvent(r)
	if !errs.Valid() {
		h.eventFormPage(w, r, http.StatusUnprocessableEntity, "", form, errs)
		return
	}
	if _, err := h.api.Events.Create(r.Context(), e); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
		h.eventFormPage(w, r, http.StatusOK, "", form, nil)
		return
	}
	h.notify(w, r, web.Success, "Event created")
	h.redirect(w, r, "/admin/events")
}

func (h *Handlers) AdminEventEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.api.Events.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.eventFormPage(w, r, http.StatusOK, id, eventForm(e), nil)
}

func (h *Handlers) AdminEventUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	e, form, errs := parseEvent(r)
	if !errs.Valid() {
		h.eventFormPage(w, r, http.StatusUnprocessableEntity, id, form, errs)
		return
	}
	e.ID = id
	if _, err := h.api.Events.Update(r.Context(), id, e); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
		h.eventFormPage(w, r, http.StatusOK, id, form, nil)
		return
	}
	h.notify(w, r, web.Success, "Event updated")
	h.redirect(w, r, "/admin/events")
}

func (h *Handlers) AdminEventDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteAndReturn(w, r, h.api.Events.Delete, "Event deleted", "/admin/events")
}

// deleteAndReturn runs del for the {id} URL parameter and goes back to the list.
func (h *Handlers) deleteAndReturn(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id string) error, done, back string) {
	if err := del(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	} else {
		h.notify(w, r, web.Success, done)
	}
	h.redirect(w, r, back)
}

// Occasions

func (h *Handlers) AdminOccasions(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Occasions.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "admin_occasions", web.PageData{Title: "Occasions", Data: list, Form: map[string]string{}})
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (h *Handlers) AdminOccasionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := formValues(r, "name", "slug", "image", "description")
	if form["name"] == "" {
		h.notify(w, r, web.Error, "Name is required")
		h.redirect(w, r, "/admin/occasions")
		return
	}
	if form["slug"] == "" {
		form["slug"] = slugify(form["name"])
	}
	_, err := h.api.Occasions.Create(r.Context(), domain.Occasion{
		Name:        form["name"],
		Slug:        form["slug"],
		Image:       form["image"],
		Description: form["description"],
	})
	if err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	} else {
		h.notify(w, r, web.Success, "Occasion created")
	}
	h.redirect(w, r, "/admin/occasions")
}

func (h *Handlers) AdminOccasionUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	form := formValues(r, "name", "slug", "image", "description")
	_, err := h.api.Occasions.Update(r.Context(), id, domain.Occasion{
		ID:          id,
		Name:        form["name"],
		Slug:        form["slug"],
		Image:       form["image"],
		Description: form["description"],
	})
	if err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	} else {
		h.notify(w, r, web.Success, "Occasion updated")
	}
	h.redirect(w, r, "/admin/occasions")
}

func (h *Handlers) AdminOccasionDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteAndReturn(w, r, h.api.Occasions.Delete, "Occasion deleted", "/admin/occasions")
}

// Users

func (h *Handlers) AdminUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "admin_users", web.PageData{Title: "Users", Data: domain.Paginate(list, pageParam(r), 25)})
}

func (h *Handlers) AdminUserRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	role := r.PostFormValue("role")
	if role != domain.RoleAdmin && role != domain.RoleUser {
		h.notify(w, r, web.Error, "Unknown role")
		h.redirect(w, r, "/admin/users")
		return
	}
	if _, err := h.api.Users.Update(r.Context(), chi.URLParam(r, "id"), domain.UserUpdate{Role: role}); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	} else {
		h.notify(w, r, web.Success, "Role updated")
	}
	h.redirect(w, r, "/admin/users")
}

func (h *Handlers) AdminUserDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteAndReturn(w, r, h.api.Users.Delete, "User deleted", "/admin/users")
}

// Blogs

func (h *Handlers) AdminBlogs(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Blogs.List(r.Context(), backend.BlogQuery{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "admin_blogs", web.PageData{Title: "Blog posts", Data: domain.Paginate(list, pageParam(r), 20)})
}

var blogFields = []string{"title", "slug", "author", "category", "coverImage", "excerpt", "content"}

func parseBlog(r *http.Request) (domain.BlogPost, map[string]string, utils.FieldErrors) {
	form := formValues(r, blogFields...)
	if form["slug"] == "" {
		form["slug"] = slugify(form["title"])
	}
	errs := utils.FieldErrors{}
	errs.Require("title", form["title"], "Title is required")
	errs.Require("content", form["content"], "Content is required")
	return domain.BlogPost{
		Title:      form["title"],
		Slug:       form["slug"],
		Author:     form["author"],
		Category:   form["category"],
		CoverImage: form["coverImage"],
		Excerpt:    form["excerpt"],
		Content:    form["content"],
	}, form, errs
}

func blogForm(p *domain.BlogPost) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return map[string]string{
		"title":      p.Title,
		"slug":       p.Slug,
		"author":     p.Author,
		"category":   p.Category,
		"coverImage": p.CoverImage,
		"excerpt":    p.Excerpt,
		"content":    p.Content,
	}
}

func (h *Handlers) blogFormPage(w http.ResponseWriter, r *http.Request, status int, id string, form map[string]string, errs utils.FieldErrors) {
	title := "New post"
	if id != "" {
		title = "Edit post"
	}
	h.render.Render(w, r, status, "admin_blog_form", web.PageData{Title: title, Form: form, Errors: errs, Data: id})
}

func (h *Handlers) AdminBlogNew(w http.ResponseWriter, r *http.Request) {
	h.blogFormPage(w, r, http.StatusOK, "", blogForm(nil), nil)
}

func (h *Handlers) AdminBlogCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	p, form, errs := parseBlog(r)
	if !errs.Valid() {
		h.blogFormPage(w, r, http.StatusUnprocessableEntity, "", form, errs)
		return
	}
	if _, err := h.api.Blogs.Create(r.Context(), p); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
		h.blogFormPage(w, r, http.StatusOK, "", form, nil)
		return
	}
	h.notify(w, r, web.Success, "Post published")
	h.redirect(w, r, "/admin/blogs")
}

// AdminBlogEdit looks the post up by slug; the list links use slugs.
func (h *Handlers) AdminBlogEdit(w http.ResponseWriter, r *http.Request) {
	p, err := h.api.Blogs.GetBySlug(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := p.ID
	if id == "" {
		id = p.Slug
	}
	h.blogFormPage(w, r, http.StatusOK, id, blogForm(p), nil)
}

func (h *Handlers) AdminBlogUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	p, form, errs := parseBlog(r)
	if !errs.Valid() {
		h.blogFormPage(w, r, http.StatusUnprocessableEntity, id, form, errs)
		return
	}
	p.ID = id
	if _, err := h.api.Blogs.Update(r.Context(), id, p); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
		h.blogFormPage(w, r, http.StatusOK, id, form, nil)
		return
	}
	h.notify(w, r, web.Success, "Post updated")
	h.redirect(w, r, "/admin/blogs")
}

func (h *Handlers) AdminBlogDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteAndReturn(w, r, h.api.Blogs.Delete, "Post deleted", "/admin/blogs")
}

// Bookings and inquiries are read-only here.

type adminBookingsData struct {
	Bookings []domain.Booking
	Status   string
}

func (h *Handlers) AdminBookings(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	list, err := h.api.Bookings.List(r.Context(), backend.BookingQuery{Status: status})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "admin_bookings", web.PageData{Title: "Bookings", Data: adminBookingsData{Bookings: list, Status: status}})
}

func (h *Handlers) AdminInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Contacts.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "admin_inquiries", web.PageData{Title: "Inquiries", Data: list})
}
