package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/store"
)

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.New(apperr.KindValidation, err, "invalid request body")
	}
	return nil
}

func ListBillsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var bills []model.Bill
		err := withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			bills, err = r.Bills.List(c.UserContext())
			return err
		})
		if err != nil {
			return err
		}
		if bills == nil {
			bills = []model.Bill{}
		}
		return c.JSON(bills)
	}
}

func GetBillHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}

		var bill *model.Bill
		err = withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			bill, err = r.Bills.GetByID(c.UserContext(), id)
			return err
		})
		if err != nil {
			return err
		}
		if bill == nil {
			return apperr.NotFound("bill %s not found", id)
		}
		return c.JSON(bill)
	}
}

type updateBillRequest struct {
	Notes              string   `json:"notes"`
	Nickname           string   `json:"nickname"`
	TwitterSearchTerms []string `json:"twitterSearchTerms"`
}

func UpdateBillHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		var req updateBillRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		terms := make([]string, 0, len(req.TwitterSearchTerms))
		for _, t := range req.TwitterSearchTerms {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}

		err = withUnitOfWork(c, d, func(r *store.Repos) error {
			return r.Bills.UpdateEditable(c.UserContext(), id, req.Notes, req.Nickname, terms)
		})
		if err != nil {
			return err
		}
		return c.JSON(empty)
	}
}

func DeleteBillHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			return r.Bills.Delete(c.UserContext(), id)
		}); err != nil {
			return err
		}
		return c.JSON(empty)
	}
}

func BillSponsorshipsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}

		var view *service.SponsorshipView
		err = withUnitOfWork(c, d, func(r *store.Repos) error {
			ctx := c.UserContext()
			bill, err := r.Bills.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if bill == nil {
				return apperr.NotFound("bill %s not found", id)
			}
			sponsorships, err := r.Sponsorships.ListForBill(ctx, id)
			if err != nil {
				return err
			}
			legislators, err := r.Legislators.ListCouncilMembers(ctx)
			if err != nil {
				return err
			}
			view = service.BuildSponsorshipView(sponsorships, legislators)
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

func SearchCityBillsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		found, err := d.Council.SearchBills(c.UserContext(), c.Query("file"))
		if err != nil {
			return err
		}

		ids := make([]int, len(found))
		for i, b := range found {
			ids[i] = b.City.CityBillID
		}

		var tracked map[int]bool
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			var err error
			tracked, err = r.Bills.TrackedCityBillIDs(c.UserContext(), ids)
			return err
		}); err != nil {
			return err
		}

		results := make([]model.BillSearchResult, len(found))
		for i := range found {
			city := found[i].City
			results[i] = model.BillSearchResult{
				Name:        found[i].Name,
				Description: found[i].Description,
				Type:        model.BillTypeCity,
				City:        &city,
				Tracked:     tracked[city.CityBillID],
			}
		}
		return c.JSON(results)
	}
}

type trackCityBillRequest struct {
	CityBillID int `json:"cityBillId"`
}

// TrackCityBillHandler starts tracking a council matter and takes a baseline
// of its sponsors. A bill that is already tracked is a conflict; a concurrent
// duplicate is caught by the unique constraint and reported the same way.
func TrackCityBillHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req trackCityBillRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		if req.CityBillID <= 0 {
			return apperr.Validation("cityBillId is required")
		}

		err := withUnitOfWork(c, d, func(r *store.Repos) error {
			ctx := c.UserContext()
			existing, err := r.Bills.GetByCityBillID(ctx, req.CityBillID)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperr.Conflict("bill %d is already tracked", req.CityBillID)
			}

			upstream, err := d.Council.FetchBill(ctx, req.CityBillID)
			if err != nil {
				return err
			}
			d.Log.Info("Saving bill", "city_bill_id", req.CityBillID, "file", upstream.City.File)

			bill := service.NewCityBill(upstream)
			if err := r.Bills.Create(ctx, bill); err != nil {
				return err
			}

			_, err = d.Sponsors.Sync(ctx, r.Sponsorships, r.Legislators, bill, false)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(empty)
	}
}

func SearchStateBillsHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionYear, err := strconv.Atoi(c.Query("sessionYear"))
		if err != nil {
			return apperr.Validation("invalid sessionYear")
		}
		found, err := d.State.SearchBills(c.UserContext(), c.Query("codeName"), sessionYear)
		if err != nil {
			return err
		}

		printNos := make([]string, len(found))
		for i, b := range found {
			printNos[i] = b.State.BasePrintNo
		}

		type billKey struct {
			year    int
			printNo string
		}
		tracked := make(map[billKey]bool)
		if err := withUnitOfWork(c, d, func(r *store.Repos) error {
			existing, err := r.Bills.FindStateBillsByPrintNo(c.UserContext(), printNos)
			for _, sb := range existing {
				tracked[billKey{sb.SessionYear, sb.BasePrintNo}] = true
			}
			return err
		}); err != nil {
			return err
		}

		results := make([]model.BillSearchResult, len(found))
		for i := range found {
			state := found[i].State
			results[i] = model.BillSearchResult{
				Name:        found[i].Name,
				Description: found[i].Description,
				Type:        model.BillTypeState,
				State:       &state,
				Tracked:     tracked[billKey{state.SessionYear, state.BasePrintNo}],
			}
		}
		return c.JSON(results)
	}
}

type trackStateBillRequest struct {
	BasePrintNo string `json:"basePrintNo"`
	SessionYear int    `json:"sessionYear"`
}

func TrackStateBillHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req trackStateBillRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		printNo := strings.ToUpper(strings.TrimSpace(req.BasePrintNo))
		if printNo == "" || req.SessionYear <= 0 {
			return apperr.Validation("basePrintNo and sessionYear are required")
		}

		err := withUnitOfWork(c, d, func(r *store.Repos) error {
			ctx := c.UserContext()
			existing, err := r.Bills.FindStateBillsByPrintNo(ctx, []string{printNo})
			if err != nil {
				return err
			}
			for _, sb := range existing {
				if sb.SessionYear == req.SessionYear {
					return apperr.Conflict("bill %s is already tracked for %d", printNo, req.SessionYear)
				}
			}

			upstream, err := d.State.GetBill(ctx, printNo, req.SessionYear)
			if err != nil {
				return err
			}
			return r.Bills.Create(ctx, service.NewStateBill(upstream))
		})
		if err != nil {
			return err
		}
		return c.JSON(empty)
	}
}
