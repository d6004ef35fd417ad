// Package handlers exposes the JSON API, the health check and the app shell.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/store"
	"github.com/jjenkins/billtracker/internal/templates"
)

const (
	contentSecurityPolicy   = "default-src 'self'; style-src 'self' fonts.googleapis.com; font-src fonts.googleapis.com fonts.gstatic.com"
	strictTransportSecurity = "max-age=31536000"
	appTitle                = "Bill Tracker"
)

// CouncilBills searches and fetches council matters
type CouncilBills interface {
	SearchBills(ctx context.Context, file string) ([]model.UpstreamCityBill, error)
	FetchBill(ctx context.Context, cityBillID int) (*model.UpstreamCityBill, error)
}

// StateBills searches and fetches state legislature bills
type StateBills interface {
	SearchBills(ctx context.Context, codeName string, sessionYear int) ([]model.UpstreamStateBill, error)
	GetBill(ctx context.Context, basePrintNo string, sessionYear int) (*model.UpstreamStateBill, error)
}

// Deps are the collaborators shared by every handler
type Deps struct {
	DB         service.Transactor
	Council    CouncilBills
	State      StateBills
	Sponsors   *service.SponsorshipSyncer
	PowerHours *service.PowerHourService
	Sessions   *SessionManager
	Log        *logger.Logger
}

// Options tune the app
type Options struct {
	DisableStrictTransportSecurity bool
	StaticDir                      string
	AccessLog                      bool
}

// NewApp builds the Fiber app with every route registered
func NewApp(d *Deps, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appTitle,
		ErrorHandler: ErrorHandler(d.Log),
	})

	app.Use(fiberrecover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(SecurityHeaders(!opts.DisableStrictTransportSecurity))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("Healthy!")
	})

	auth := d.Sessions.Require
	api := app.Group("/api")

	// Bill routes
	api.Get("/bills", auth, ListBillsHandler(d))
	api.Get("/bills/:id", auth, GetBillHandler(d))
	api.Put("/bills/:id", auth, UpdateBillHandler(d))
	api.Delete("/bills/:id", auth, DeleteBillHandler(d))
	api.Get("/bills/:id/sponsorships", auth, BillSponsorshipsHandler(d))

	api.Get("/city-bills/search", auth, SearchCityBillsHandler(d))
	api.Post("/city-bills/track", auth, TrackCityBillHandler(d))
	api.Get("/state-bills/search", auth, SearchStateBillsHandler(d))
	api.Post("/state-bills/track", auth, TrackStateBillHandler(d))

	// Power hour and attachment routes
	api.Get("/bills/:id/power-hours", auth, ListPowerHoursHandler(d))
	api.Post("/bills/:id/power-hours", auth, CreatePowerHourHandler(d))
	api.Get("/bills/:id/attachments", auth, ListAttachmentsHandler(d))
	api.Post("/bills/:id/attachments", auth, AddAttachmentHandler(d))
	api.Delete("/bills/-/attachments/:attachmentId", auth, DeleteAttachmentHandler(d))

	// Council member routes
	api.Get("/council-members", auth, ListCouncilMembersHandler(d))
	api.Get("/council-members/:id", auth, GetCouncilMemberHandler(d))
	api.Get("/council-members/:id/sponsorships", auth, MemberSponsorshipsHandler(d))
	api.Post("/council-members/:id/staffers", auth, AddStafferHandler(d))

	api.All("/*", func(c *fiber.Ctx) error {
		return apperr.NotFound("no such API route")
	})

	if opts.StaticDir != "" {
		app.Static("/static", opts.StaticDir)
	}
	app.Get("/*", adaptor.HTTPHandler(templ.Handler(templates.Index(appTitle))))

	return app
}

// SecurityHeaders sets the standard security headers on every response
func SecurityHeaders(hsts bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Must run before Next, a panic unwinds past anything after it
		c.Set(fiber.HeaderContentSecurityPolicy, contentSecurityPolicy)
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		if hsts {
			c.Set(fiber.HeaderStrictTransportSecurity, strictTransportSecurity)
		}
		return c.Next()
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorHandler writes errors as a JSON envelope with a status matching their kind
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(errorBody{Error: errorDetail{Message: fe.Message, Code: "http_error"}})
		}

		kind := apperr.KindOf(err)
		msg := err.Error()
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}

		switch kind {
		case apperr.KindInternal:
			log.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
			msg = "internal server error"
		case apperr.KindTransient, apperr.KindUpstream:
			log.Warn("Upstream failure", "method", c.Method(), "path", c.Path(), "error", err)
		}

		return c.Status(kind.Status()).JSON(errorBody{Error: errorDetail{Message: msg, Code: kind.String()}})
	}
}

// withUnitOfWork runs fn against repos bound to a fresh unit of work,
// committing when fn succeeds and rolling back otherwise
func withUnitOfWork(c *fiber.Ctx, d *Deps, fn func(repos *store.Repos) error) (err error) {
	ctx := c.UserContext()
	uow, err := d.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	if err = fn(store.NewRepos(uow)); err != nil {
		return err
	}
	if err = uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// empty is the body of writes that return nothing
var empty = fiber.Map{}
