package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/store"
)

func ListPowerHoursHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		billID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}

		var powerHours []model.PowerHour
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			powerHours, err = r.PowerHours.ListForBill(c.UserContext(), billID)
			return err
		}); err != nil {
			return err
		}
		if powerHours == nil {
			powerHours = []model.PowerHour{}
		}
		return c.JSON(powerHours)
	}
}

type createPowerHourRequest struct {
	Title               string     `json:"title"`
	PowerHourIDToImport *uuid.UUID `json:"powerHourIdToImport"`
}

type createPowerHourResponse struct {
	Messages  []string         `json:"messages"`
	PowerHour *model.PowerHour `json:"powerHour"`
}

// CreatePowerHourHandler generates a new sheet, optionally carrying over extra
// columns from an earlier power hour of any bill. Nothing is saved when the
// document service fails.
func CreatePowerHourHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		billID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req createPowerHourRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		var result *service.PowerHourResult
		err = withUnitOfWork(c, d, func(r *store.Repos) error {
			ctx := c.UserContext()

			var previous string
			if req.PowerHourIDToImport != nil {
				old, err := r.PowerHours.GetByID(ctx, *req.PowerHourIDToImport)
				if err != nil {
					return err
				}
				if old == nil {
					return apperr.NotFound("power hour %s not found", *req.PowerHourIDToImport)
				}
				previous = old.SpreadsheetID
			}

			var err error
			result, err = d.PowerHours.Generate(ctx, service.PowerHourSource{
				Bills:        r.Bills,
				Sponsorships: r.Sponsorships,
				Legislators:  r.Legislators,
			}, service.PowerHourRequest{
				BillID:                billID,
				Title:                 req.Title,
				PreviousSpreadsheetID: previous,
			})
			if err != nil {
				return err
			}
			return r.PowerHours.Create(ctx, result.PowerHour)
		})
		if err != nil {
			return err
		}

		return c.JSON(createPowerHourResponse{Messages: result.Messages, PowerHour: result.PowerHour})
	}
}

func ListAttachmentsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		billID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}

		var attachments []model.Attachment
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			attachments, err = r.PowerHours.ListAttachments(c.UserContext(), billID)
			return err
		}); err != nil {
			return err
		}
		if attachments == nil {
			attachments = []model.Attachment{}
		}
		return c.JSON(attachments)
	}
}

type addAttachmentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func AddAttachmentHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		billID, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req addAttachmentRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			return apperr.Validation("name is required")
		}
		u, err := url.Parse(strings.TrimSpace(req.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperr.Validation("url must be an http or https link")
		}

		attachment := &model.Attachment{BillID: billID, Name: name, URL: u.String()}
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			return r.PowerHours.AddAttachment(c.UserContext(), attachment)
		}); err != nil {
			return err
		}
		return c.JSON(attachment)
	}
}

func DeleteAttachmentHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "attachmentId")
		if err != nil {
			return err
		}
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			return r.PowerHours.DeleteAttachment(c.UserContext(), id)
		}); err != nil {
			return err
		}
		return c.JSON(empty)
	}
}
