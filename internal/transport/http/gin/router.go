package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/avereux/seatbook/internal/domain"
	redisrepo "github.com/avereux/seatbook/internal/repository/redis"
	"github.com/avereux/seatbook/internal/service"
	"github.com/avereux/seatbook/internal/service/admin"
	"github.com/avereux/seatbook/internal/service/booking"
	"github.com/avereux/seatbook/internal/service/query"
	"github.com/avereux/seatbook/internal/service/tickets"
)

// Config carries the transport-level knobs. JWTSecret signs and verifies the
// access tokens for the authenticated groups.
type Config struct {
	JWTSecret string
}

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	cfg Config,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/venues", handleListVenues(svcs))
	r.GET("/venues/:id", handleGetVenue(svcs))
	r.GET("/venues/:id/layouts", handleListLayouts(svcs))
	r.GET("/layouts/:id/areas", handleListAreas(svcs))
	r.GET("/areas/:id/seats", handleListSeats(svcs))

	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/availability", handleGetAvailability(svcs))
	r.GET("/events/:id/areas", handleListEventAreas(svcs))
	r.GET("/events/:id/seats", handleListEventSeats(svcs))

	// Ticket lifecycle, any authenticated user
	auth := r.Group("", AuthMiddleware(cfg.JWTSecret))
	{
		auth.POST("/tickets", handlePurchaseTicket(svcs, idem))
		auth.PUT("/tickets/:id", handleEditTicket(svcs))
		auth.DELETE("/tickets/:id", handleRefundTicket(svcs))
		auth.GET("/tickets/:id", handleGetTicket(svcs))
		auth.GET("/users/:id/tickets", handleListUserTickets(svcs))
	}

	// Admin API
	adm := r.Group("/admin", AuthMiddleware(cfg.JWTSecret))
	{
		structure := adm.Group("", RequireRole(RoleVenueManager))
		{
			structure.POST("/venues", handleCreateVenue(svcs))
			structure.PUT("/venues/:id", handleUpdateVenue(svcs))
			structure.DELETE("/venues/:id", handleDeleteVenue(svcs))

			structure.POST("/layouts", handleCreateLayout(svcs))
			structure.PUT("/layouts/:id", handleUpdateLayout(svcs))
			structure.DELETE("/layouts/:id", handleDeleteLayout(svcs))

			structure.POST("/areas", handleCreateArea(svcs))
			structure.PUT("/areas/:id", handleUpdateArea(svcs))
			structure.DELETE("/areas/:id", handleDeleteArea(svcs))

			structure.POST("/areas/:id/seats", handleBatchCreateSeats(svcs))
			structure.DELETE("/seats/:id", handleDeleteSeat(svcs))
		}

		events := adm.Group("", RequireRole(RoleEventManager))
		{
			events.POST("/events", handleCreateEvent(svcs))
			events.PUT("/events/:id", handleUpdateEvent(svcs))
			events.DELETE("/events/:id", handleDeleteEvent(svcs))

			events.DELETE("/event-seats/:id", handleDeleteEventSeat(svcs))
		}
	}

	return r
}

// --- Public handlers ---

// @Summary  List venues
// @Success  200  {array}  VenueResponse
// @Router   /venues [get]
func handleListVenues(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		vs, err := svcs.Query.ListVenues(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toVenueResponses(vs), "public, max-age=60", true)
	}
}

// @Summary  Get venue
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  VenueResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id} [get]
func handleGetVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Query.GetVenue(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toVenueResponse(v), "public, max-age=60", true)
	}
}

// @Summary  List layouts of a venue
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {array}  LayoutResponse
// @Router   /venues/{id}/layouts [get]
func handleListLayouts(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		ls, err := svcs.Query.ListLayouts(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toLayoutResponses(ls), "public, max-age=60", true)
	}
}

// @Summary  List areas of a layout
// @Param    id  path  int  true  "Layout ID"
// @Success  200  {array}  AreaResponse
// @Router   /layouts/{id}/areas [get]
func handleListAreas(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		layoutID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		as, err := svcs.Query.ListAreas(c.Request.Context(), layoutID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toAreaResponses(as), "public, max-age=60", true)
	}
}

// @Summary  List seats of an area
// @Param    id  path  int  true  "Area ID"
// @Success  200  {array}  SeatResponse
// @Router   /areas/{id}/seats [get]
func handleListSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		areaID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		ss, err := svcs.Query.ListSeats(c.Request.Context(), areaID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toSeatResponses(ss), "public, max-age=60", true)
	}
}

// @Summary  List events
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200  {array}  EventResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		es, err := svcs.Query.ListEvents(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toEventResponses(es), "public, max-age=60", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toEventResponse(e), "public, max-age=60", true)
	}
}

// @Summary  Get availability counters
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventCountsResponse
// @Router   /events/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		cnt, err := svcs.Query.CountsByState(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := EventCountsResponse{Free: cnt.Free, Booked: cnt.Booked, Total: cnt.Total}
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=15", true)
	}
}

// @Summary  List event pricing areas
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  EventAreaResponse
// @Router   /events/{id}/areas [get]
func handleListEventAreas(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		areas, err := svcs.Query.ListEventAreas(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toEventAreaResponses(areas), "public, max-age=60", true)
	}
}

// @Summary  List event seats
// @Param    id     path   int     true  "Event ID"
// @Param    only   query  string  false "free"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   EventSeatResponse
// @Router   /events/{id}/seats [get]
func handleListEventSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		onlyFree := c.Query("only") == "free" || c.Query("only_free") == "true"
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		seats, err := svcs.Query.ListEventSeats(
			c.Request.Context(),
			eventID,
			onlyFree,
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toEventSeatResponses(seats), "public, max-age=15", true)
	}
}

// --- Ticket handlers ---

// @Summary  Purchase a ticket (idempotent)
// @Param    req body  PurchaseTicketRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} TicketResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "seat does not exist"
// @Failure  409 {object} ErrorResponse "seat already booked / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /tickets [post]
func handlePurchaseTicket(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(req.EventSeatID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		t, err := svcs.Booking.Purchase(c.Request.Context(), domain.Ticket{
			EventSeatID: req.EventSeatID,
			UserID:      currentUserID(c),
			PriceCents:  req.PriceCents,
		}, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: "rate limited"},
				)
				return
			}
			respondErr(c, err)
			return
		}

		resp := toTicketResponse(t)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Edit a ticket (always rejected, tickets are immutable)
// @Param    id  path  int  true  "Ticket ID"
// @Failure  405 {object} ErrorResponse
// @Router   /tickets/{id} [put]
func handleEditTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		err := svcs.Booking.Edit(c.Request.Context(), domain.Ticket{ID: id})
		respondErr(c, err)
	}
}

// @Summary  Refund a ticket
// @Param    id  path  int  true  "Ticket ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [delete]
func handleRefundTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Tickets.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		// owners refund their own tickets, admins refund everything
		if t.UserID != currentUserID(c) && c.GetString("role") != RoleAdmin {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		if err := svcs.Booking.Refund(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Get ticket
// @Param    id  path  int  true  "Ticket ID"
// @Success  200 {object} TicketResponse
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Tickets.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		// owners see their own tickets, admins see everything
		if t.UserID != currentUserID(c) && c.GetString("role") != RoleAdmin {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusOK, toTicketResponse(t))
	}
}

// @Summary  List a user's tickets
// @Param    id     path   string  true  "User ID"
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200 {array} TicketResponse
// @Router   /users/{id}/tickets [get]
func handleListUserTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")
		if userID != currentUserID(c) && c.GetString("role") != RoleAdmin {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return
		}

		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		ts, err := svcs.Tickets.ListByUser(
			c.Request.Context(),
			userID,
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toTicketResponses(ts))
	}
}

// --- Admin handlers ---

// @Summary  Create venue
// @Param    req body  CreateVenueRequest true "payload"
// @Success  201 {object} VenueResponse
// @Router   /admin/venues [post]
func handleCreateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Admin.CreateVenue(c.Request.Context(), domain.Venue{
			Name:        req.Name,
			Description: req.Description,
			Address:     req.Address,
			Phone:       req.Phone,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toVenueResponse(v))
	}
}

// @Summary  Update venue
// @Param    id   path  int  true  "Venue ID"
// @Param    req  body  UpdateVenueRequest true "payload"
// @Success  200 {object} VenueResponse
// @Router   /admin/venues/{id} [put]
func handleUpdateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v := domain.Venue{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Address:     req.Address,
			Phone:       req.Phone,
		}
		if err := svcs.Admin.UpdateVenue(c.Request.Context(), v); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toVenueResponse(&v))
	}
}

// @Summary  Delete venue and everything under it
// @Param    id  path  int  true  "Venue ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "booked seats in subtree"
// @Router   /admin/venues/{id} [delete]
func handleDeleteVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.DeleteVenue(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create layout
// @Param    req body  CreateLayoutRequest true "payload"
// @Success  201 {object} LayoutResponse
// @Router   /admin/layouts [post]
func handleCreateLayout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		l, err := svcs.Admin.CreateLayout(c.Request.Context(), domain.Layout{
			VenueID:     req.VenueID,
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toLayoutResponse(l))
	}
}

// @Summary  Update layout
// @Param    id   path  int  true  "Layout ID"
// @Param    req  body  UpdateLayoutRequest true "payload"
// @Success  200 {object} LayoutResponse
// @Router   /admin/layouts/{id} [put]
func handleUpdateLayout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateLayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		l := domain.Layout{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
		}
		if err := svcs.Admin.UpdateLayout(c.Request.Context(), l); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toLayoutResponse(&l))
	}
}

// @Summary  Delete layout and everything under it
// @Param    id  path  int  true  "Layout ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "booked seats in subtree"
// @Router   /admin/layouts/{id} [delete]
func handleDeleteLayout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.DeleteLayout(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create area
// @Param    req body  CreateAreaRequest true "payload"
// @Success  201 {object} AreaResponse
// @Router   /admin/areas [post]
func handleCreateArea(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		a, err := svcs.Admin.CreateArea(c.Request.Context(), domain.Area{
			LayoutID:    req.LayoutID,
			Description: req.Description,
			CoordX:      req.CoordX,
			CoordY:      req.CoordY,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toAreaResponse(a))
	}
}

// @Summary  Update area
// @Param    id   path  int  true  "Area ID"
// @Param    req  body  UpdateAreaRequest true "payload"
// @Success  200 {object} AreaResponse
// @Router   /admin/areas/{id} [put]
func handleUpdateArea(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateAreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		a := domain.Area{
			ID:          id,
			Description: req.Description,
			CoordX:      req.CoordX,
			CoordY:      req.CoordY,
		}
		if err := svcs.Admin.UpdateArea(c.Request.Context(), a); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toAreaResponse(&a))
	}
}

// @Summary  Delete area and everything under it
// @Param    id  path  int  true  "Area ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "booked seats in subtree"
// @Router   /admin/areas/{id} [delete]
func handleDeleteArea(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.DeleteArea(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Batch create seats in an area
// @Param    id   path  int  true  "Area ID"
// @Param    req  body  BatchCreateSeatsRequest true "payload"
// @Success  201 {object} map[string]int
// @Router   /admin/areas/{id}/seats [post]
func handleBatchCreateSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		areaID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req BatchCreateSeatsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		var seats []domain.Seat
		for _, s := range req.Seats {
			seats = append(seats, domain.Seat{
				AreaID: areaID,
				Row:    s.Row,
				Number: s.Number,
			})
		}
		if err := svcs.Admin.CreateSeats(c.Request.Context(), areaID, seats); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"created": len(seats)})
	}
}

// @Summary  Delete a seat template
// @Param    id  path  int  true  "Seat ID"
// @Success  204
// @Router   /admin/seats/{id} [delete]
func handleDeleteSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.DeleteSeat(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create event and materialize its seats
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} EventResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(req.EndsAt)
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}
		e, err := svcs.Admin.CreateEvent(c.Request.Context(), domain.Event{
			LayoutID:       req.LayoutID,
			Name:           req.Name,
			Description:    req.Description,
			BasePriceCents: req.BasePriceCents,
			Starts:         starts,
			Ends:           ends,
			ShowMinutes:    req.ShowMinutes,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toEventResponse(e))
	}
}

// @Summary  Update event
// @Param    id   path  int  true  "Event ID"
// @Param    req  body  UpdateEventRequest true "payload"
// @Success  200 {object} EventResponse
// @Router   /admin/events/{id} [put]
func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(req.EndsAt)
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}
		e := domain.Event{
			ID:             id,
			Name:           req.Name,
			Description:    req.Description,
			BasePriceCents: req.BasePriceCents,
			Starts:         starts,
			Ends:           ends,
			ShowMinutes:    req.ShowMinutes,
		}
		if err := svcs.Admin.UpdateEvent(c.Request.Context(), e); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEventResponse(&e))
	}
}

// @Summary  Delete event and its seats/tickets
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "booked seats"
// @Router   /admin/events/{id} [delete]
func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.DeleteEvent(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete a free event seat
// @Param    id  path  int  true  "Event seat ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "seat already booked"
// @Router   /admin/event-seats/{id} [delete]
func handleDeleteEventSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.DeleteSeat(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// validation
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, admin.ErrInvalidInput),
		errors.Is(err, tickets.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid input"})

	// not found
	case errors.Is(err, booking.ErrSeatNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "seat not found"})
	case errors.Is(err, booking.ErrTicketNotFound),
		errors.Is(err, tickets.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
	case errors.Is(err, admin.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, query.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})

	// immutable tickets
	case errors.Is(err, booking.ErrTicketImmutable):
		c.JSON(
			http.StatusMethodNotAllowed,
			ErrorResponse{Error: "tickets cannot be edited, refund and purchase again"},
		)

	// conflicts
	case errors.Is(err, booking.ErrSeatBooked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "seat already booked"})
	case errors.Is(err, admin.ErrNameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "name already taken"})
	case errors.Is(err, admin.ErrSeatsBooked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "booked seats in subtree"})
	case errors.Is(err, admin.ErrInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "referenced by existing records"})

	// rate limiting
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
