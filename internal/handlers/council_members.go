package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/store"
)

func ListCouncilMembersHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var members []model.Legislator
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			members, err = r.Legislators.ListCouncilMembers(c.UserContext())
			return err
		}); err != nil {
			return err
		}
		if members == nil {
			members = []model.Legislator{}
		}
		return c.JSON(members)
	}
}

func GetCouncilMemberHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}

		var member *model.Legislator
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			member, err = r.Legislators.GetCouncilMember(c.UserContext(), id)
			return err
		}); err != nil {
			return err
		}
		if member == nil {
			return apperr.NotFound("council member %s not found", id)
		}
		return c.JSON(member)
	}
}

type memberSponsorship struct {
	Bill     model.Bill `json:"bill"`
	PersonID uuid.UUID  `json:"personId"`
}

// MemberSponsorshipsHandler lists the bills a council member sponsors
func MemberSponsorshipsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}

		sponsorships := []memberSponsorship{}
		err = withUnitOfWork(c, d, func(r *store.Repos) error {
			ctx := c.UserContext()
			member, err := r.Legislators.GetCouncilMember(ctx, id)
			if err != nil {
				return err
			}
			if member == nil {
				return apperr.NotFound("council member %s not found", id)
			}

			billIDs, err := r.Sponsorships.ListForLegislator(ctx, id)
			if err != nil {
				return err
			}
			for _, billID := range billIDs {
				bill, err := r.Bills.GetByID(ctx, billID)
				if err != nil {
					return err
				}
				if bill != nil {
					sponsorships = append(sponsorships, memberSponsorship{Bill: *bill, PersonID: id})
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(sponsorships)
	}
}

type addStafferRequest struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Email   string `json:"email"`
	Twitter string `json:"twitter"`
	Phone   string `json:"phone"`
}

// AddStafferHandler records a staff member for a council member. Staff
// appear in the Staffers column of generated sheets.
func AddStafferHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req addStafferRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return apperr.Validation("name is required")
		}

		staffer := &model.Staffer{
			Name:    name,
			Title:   strings.TrimSpace(req.Title),
			Email:   strings.TrimSpace(req.Email),
			Twitter: strings.TrimPrefix(strings.TrimSpace(req.Twitter), "@"),
		}
		if phone := strings.TrimSpace(req.Phone); phone != "" {
			staffer.Contacts = []model.OfficeContact{{Type: model.OfficeContactOther, Phone: phone}}
		}

		err = withUnitOfWork(c, d, func(r *store.Repos) error {
			ctx := c.UserContext()
			member, err := r.Legislators.GetCouncilMember(ctx, id)
			if err != nil {
				return err
			}
			if member == nil {
				return apperr.NotFound("council member %s not found", id)
			}
			return r.Legislators.AddStaffer(ctx, id, staffer)
		})
		if err != nil {
			return err
		}
		return c.JSON(staffer)
	}
}
