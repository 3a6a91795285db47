package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rollcall/internal/auth"
	"rollcall/internal/metrics"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

const groupsCacheKey = "rollcall:groups"

// Handler maps the HTTP surface onto the roster service.
type Handler struct {
	svc      *roster.Service
	verifier *auth.Verifier
	cache    *store.Redis
	logger   *logrus.Logger
}

// New creates a handler. cache may be nil.
func New(svc *roster.Service, verifier *auth.Verifier, cache *store.Redis, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, verifier: verifier, cache: cache, logger: logger}
}

// Register wires all routes onto the engine. Reads are public; every
// mutating route sits behind the admin token guard.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/login", h.Login)
	r.GET("/groups", h.ListGroups)
	r.GET("/groups/:gid/summary", h.GroupSummary)

	admin := r.Group("/", auth.AdminOnly(h.verifier))
	admin.POST("/groups", h.CreateGroup)
	admin.POST("/groups/:gid/persons", h.AddPerson)
	admin.POST("/groups/:gid/events", h.AddEvent)
	admin.DELETE("/groups/:gid", h.DeleteGroup)
	admin.DELETE("/persons/:pid", h.DeletePerson)
	admin.DELETE("/events/:eid", h.DeleteEvent)
	admin.POST("/events/:eid/attendance", h.MarkAttendance)
}

// Login exchanges admin credentials for a session token. Credentials come as
// query parameters or a JSON body.
func (h *Handler) Login(c *gin.Context) {
	email, password := c.Query("email"), c.Query("password")
	if email == "" && password == "" {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			email, password = body.Email, body.Password
		}
	}
	token, err := h.verifier.Login(email, password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// ListGroups returns every group, served from the cache when possible.
func (h *Handler) ListGroups(c *gin.Context) {
	ctx := c.Request.Context()
	var groups []roster.Group
	if h.cache.GetJSON(ctx, groupsCacheKey, &groups) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		c.JSON(http.StatusOK, groups)
		return
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	groups, err := h.svc.ListGroups(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if groups == nil {
		groups = []roster.Group{}
	}
	h.cache.SetJSON(ctx, groupsCacheKey, groups)
	c.JSON(http.StatusOK, groups)
}

// GroupSummary returns the (person_id, status) projection for one group.
func (h *Handler) GroupSummary(c *gin.Context) {
	gid, ok := pathID(c, "gid")
	if !ok {
		return
	}
	entries, err := h.svc.Summary(c.Request.Context(), gid)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// CreateGroup creates a group from {"name": ...}.
func (h *Handler) CreateGroup(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	group, err := h.svc.CreateGroup(c.Request.Context(), req.Name)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), groupsCacheKey)
	c.JSON(http.StatusOK, group)
}

// AddPerson creates a person under the group in the path.
func (h *Handler) AddPerson(c *gin.Context) {
	gid, ok := pathID(c, "gid")
	if !ok {
		return
	}
	var req struct {
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	person, err := h.svc.AddPerson(c.Request.Context(), gid, req.FullName)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, person)
}

// AddEvent creates an event under the group in the path. starts_at is a
// timestamp string normalized by the service.
func (h *Handler) AddEvent(c *gin.Context) {
	gid, ok := pathID(c, "gid")
	if !ok {
		return
	}
	var req struct {
		Title    string `json:"title"`
		StartsAt string `json:"starts_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event, err := h.svc.AddEvent(c.Request.Context(), gid, req.Title, req.StartsAt)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteGroup cascades a group away; 204 on success, 404 when absent.
func (h *Handler) DeleteGroup(c *gin.Context) {
	gid, ok := pathID(c, "gid")
	if !ok {
		return
	}
	if err := h.svc.DeleteGroup(c.Request.Context(), gid); err != nil {
		h.renderError(c, err)
		return
	}
	metrics.CascadeDeletes.WithLabelValues("group").Inc()
	h.cache.Invalidate(c.Request.Context(), groupsCacheKey)
	c.Status(http.StatusNoContent)
}

// DeletePerson removes a person and their marks.
func (h *Handler) DeletePerson(c *gin.Context) {
	pid, ok := pathID(c, "pid")
	if !ok {
		return
	}
	if err := h.svc.DeletePerson(c.Request.Context(), pid); err != nil {
		h.renderError(c, err)
		return
	}
	metrics.CascadeDeletes.WithLabelValues("person").Inc()
	c.Status(http.StatusNoContent)
}

// DeleteEvent removes an event and its marks.
func (h *Handler) DeleteEvent(c *gin.Context) {
	eid, ok := pathID(c, "eid")
	if !ok {
		return
	}
	if err := h.svc.DeleteEvent(c.Request.Context(), eid); err != nil {
		h.renderError(c, err)
		return
	}
	metrics.CascadeDeletes.WithLabelValues("event").Inc()
	c.Status(http.StatusNoContent)
}

// MarkAttendance records a status for (person, event) and returns the
// recomputed absence count and flags. person_id/status come as query
// parameters or a JSON body.
func (h *Handler) MarkAttendance(c *gin.Context) {
	eid, ok := pathID(c, "eid")
	if !ok {
		return
	}
	rawPerson, status := c.Query("person_id"), c.Query("status")
	if rawPerson == "" && status == "" {
		var body struct {
			PersonID int64  `json:"person_id"`
			Status   string `json:"status"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			rawPerson, status = strconv.FormatInt(body.PersonID, 10), body.Status
		}
	}
	personID, err := strconv.ParseInt(rawPerson, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_id must be an integer"})
		return
	}
	res, err := h.svc.Mark(c.Request.Context(), personID, eid, status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	metrics.AttendanceMarks.WithLabelValues(status).Inc()
	c.JSON(http.StatusOK, res)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
