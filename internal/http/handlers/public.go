package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/festa-decor/internal/backend"
	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/utils"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/diagnosis/festa-decor/pkg/events"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const (
	eventsPerPage = 9
	blogsPerPage  = 6
)

type homeData struct {
	Occasions []domain.Occasion
	Featured  []domain.Event
	Posts     []domain.BlogPost
}

// Home loads its three sections concurrently. A failing section is left
// empty and the rest of the page still renders.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data homeData

	var g errgroup.Group
	g.Go(func() error {
		occ, err := h.api.Occasions.List(ctx)
		data.Occasions = occ
		return err
	})
	g.Go(func() error {
		ev, err := h.api.Events.List(ctx, backend.EventQuery{Featured: true, Limit: 6})
		data.Featured = ev
		return err
	})
	g.Go(func() error {
		posts, err := h.api.Blogs.List(ctx, backend.BlogQuery{Limit: 3})
		data.Posts = posts
		return err
	})

	pd := web.PageData{Title: "Festa Decor", Data: data}
	if err := g.Wait(); err != nil {
		logger.WarnContext(ctx, "Home page partially loaded", "error", err)
		pd.Notices = []web.Notice{{Kind: web.Error, Message: userMessage(err)}}
	}
	h.page(w, r, "home", pd)
}

func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, "about", web.PageData{Title: "About us"})
}

func (h *Handlers) Privacy(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, "privacy", web.PageData{Title: "Privacy policy"})
}

func (h *Handlers) Terms(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, "terms", web.PageData{Title: "Terms and conditions"})
}

type galleryItem struct {
	Image string
	Title string
	Link  string
}

func (h *Handlers) Gallery(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Events.List(r.Context(), backend.EventQuery{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var items []galleryItem
	for _, e := range list {
		for _, img := range e.Images {
			items = append(items, galleryItem{Image: img, Title: e.DisplayTitle(), Link: "/events/" + e.ID})
		}
	}
	h.page(w, r, "gallery", web.PageData{Title: "Gallery", Data: items})
}

type eventsData struct {
	Page      domain.Page[domain.Event]
	Occasions []domain.Occasion
	Occasion  string
}

func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	occasion := r.URL.Query().Get("occasion")

	var (
		list      []domain.Event
		occasions []domain.Occasion
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		list, err = h.api.Events.List(ctx, backend.EventQuery{Occasion: occasion})
		return err
	})
	g.Go(func() error {
		var err error
		occasions, err = h.api.Occasions.List(ctx)
		if err != nil {
			logger.WarnContext(ctx, "Occasion filter unavailable", "error", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	list = domain.FilterByOccasion(list, occasion)
	h.page(w, r, "events", web.PageData{
		Title: "Decorations",
		Data: eventsData{
			Page:      domain.Paginate(list, pageParam(r), eventsPerPage),
			Occasions: occasions,
			Occasion:  occasion,
		},
	})
}

func (h *Handlers) Event(w http.ResponseWriter, r *http.Request) {
	e, err := h.api.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "event", web.PageData{Title: e.DisplayTitle(), Data: e})
}

func (h *Handlers) Occasions(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Occasions.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "occasions", web.PageData{Title: "Occasions", Data: list})
}

func (h *Handlers) Blogs(w http.ResponseWriter, r *http.Request) {
	posts, err := h.api.Blogs.List(r.Context(), backend.BlogQuery{Category: r.URL.Query().Get("category")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "blogs", web.PageData{Title: "Blog", Data: domain.Paginate(posts, pageParam(r), blogsPerPage)})
}

func (h *Handlers) Blog(w http.ResponseWriter, r *http.Request) {
	post, err := h.api.Blogs.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "blog", web.PageData{Title: post.Title, Data: post})
}

var contactFields = []string{"name", "email", "mobile", "occasion", "eventDate", "message"}

func (h *Handlers) ContactPage(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{}
	if s := currentSession(r); s != nil {
		if u := s.Get().User; u != nil {
			form["name"], form["email"], form["mobile"] = u.FullName, u.Email, u.Mobile
		}
	}
	h.page(w, r, "contact", web.PageData{Title: "Contact us", Form: form})
}

func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := formValues(r, contactFields...)
	form["email"] = utils.NormalizeEmail(form["email"])
	form["mobile"] = utils.NormalizeMobile(form["mobile"])

	errs := utils.FieldErrors{}
	errs.Require("name", form["name"], "Name is required")
	errs.Require("email", form["email"], "Email is required")
	errs.Check("email", utils.IsValidEmail(form["email"]), "Enter a valid email address")
	errs.Require("mobile", form["mobile"], "Mobile number is required")
	errs.Check("mobile", utils.IsValidMobile(form["mobile"]), "Enter a 10-digit mobile number")
	errs.Require("message", form["message"], "Tell us a little about your event")

	if !errs.Valid() {
		h.render.Render(w, r, http.StatusUnprocessableEntity, "contact", web.PageData{Title: "Contact us", Form: form, Errors: errs})
		return
	}

	in := domain.Inquiry{
		Name:      form["name"],
		Email:     form["email"],
		Mobile:    form["mobile"],
		Occasion:  form["occasion"],
		EventDate: form["eventDate"],
		Message:   form["message"],
	}
	ctx := r.Context()
	if err := h.api.Contacts.Submit(ctx, in); err != nil {
		h.render.Render(w, r, http.StatusOK, "contact", web.PageData{
			Title:   "Contact us",
			Form:    form,
			Notices: []web.Notice{{Kind: web.Error, Message: userMessage(err)}},
		})
		return
	}

	if h.notifier != nil {
		if err := h.notifier.Inquiry(ctx, in); err != nil {
			logger.WarnContext(ctx, "Failed to send inquiry notice", "error", err)
		}
	}
	if err := h.events.Publish(ctx, events.InquiryReceived, events.InquiryReceivedEvent{
		Name:      in.Name,
		Email:     in.Email,
		Mobile:    in.Mobile,
		Occasion:  in.Occasion,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish inquiry event", "error", err)
	}

	h.notify(w, r, web.Success, "Thanks! We will get back to you shortly.")
	h.redirect(w, r, "/contact")
}
