package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prive-club/internal/model"
	"prive-club/internal/service"
)

type summaryView struct {
	Account      accountView `json:"account"`
	Balance      int64       `json:"balance"`
	Tier         string      `json:"tier"`
	NextTier     *string     `json:"next_tier,omitempty"`
	PointsToNext int64       `json:"points_to_next"`
	NearUpgrade  bool        `json:"near_upgrade"`
}

func toSummaryView(s *service.AccountSummary) summaryView {
	view := summaryView{
		Account:      toAccountView(s.Account),
		Balance:      s.Balance,
		Tier:         s.Tier.Name,
		PointsToNext: s.PointsToNext,
		NearUpgrade:  s.NearUpgrade,
	}
	if s.NextTier != nil {
		view.NextTier = &s.NextTier.Name
	}
	return view
}

type entryView struct {
	ID          int64     `json:"id"`
	Amount      int64     `json:"amount"`
	Source      string    `json:"source"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEntryViews(entries []model.LedgerEntry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:          e.ID,
			Amount:      e.Amount,
			Source:      e.Source,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return views
}

type grantView struct {
	Amount     int64  `json:"amount"`
	Multiplier int    `json:"multiplier"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
	Balance    int64  `json:"balance"`
}

func toGrantView(g *service.GrantResult) grantView {
	return grantView{
		Amount:     g.Amount,
		Multiplier: g.Multiplier,
		Skipped:    g.Skipped,
		SkipReason: g.SkipReason,
		Balance:    g.Balance,
	}
}

// Summary shows the calling member's balance, tier and progress.
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.deps.Loyalty.Summary(c.Request.Context(), accountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toSummaryView(summary))
}

// History returns the member's ledger, newest first. An optional
// since_hours query narrows the window.
func (h *Handler) History(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			ParamError(c, "since_hours must be a positive integer")
			return
		}
		cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
		since = &cutoff
	}

	entries, err := h.deps.Loyalty.History(c.Request.Context(), accountID(c), since)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toEntryViews(entries))
}

// Tiers lists the club's tier ladder.
func (h *Handler) Tiers(c *gin.Context) {
	tiers, err := h.deps.Loyalty.Tiers(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tiers)
}

// Referral shows the member's code and who signed up with it.
func (h *Handler) Referral(c *gin.Context) {
	view, err := h.deps.Accounts.Referral(c.Request.Context(), accountID(c))
	if err != nil {
		Fail(c, err)
		return
	}

	referred := make([]accountView, 0, len(view.Referred))
	for _, a := range view.Referred {
		referred = append(referred, toAccountView(a))
	}
	Success(c, gin.H{"code": view.Code, "referred": referred})
}

// ClaimAction lets a member claim a self-service action like a check-in or
// a story share. The anti-fraud gate decides whether it pays out.
func (h *Handler) ClaimAction(c *gin.Context) {
	code := c.Param("code")

	grant, err := h.deps.Loyalty.Grant(c.Request.Context(), accountID(c), code, 0, nil)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toGrantView(grant))
}

// Rewards lists the active reward catalog.
func (h *Handler) Rewards(c *gin.Context) {
	rewards, err := h.deps.Redemptions.Catalog(c.Request.Context(), false)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rewards)
}

// Redeem spends points on a catalog reward.
func (h *Handler) Redeem(c *gin.Context) {
	rewardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ParamError(c, "invalid reward id")
		return
	}

	result, err := h.deps.Redemptions.Redeem(c.Request.Context(), accountID(c), rewardID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{
		"reward":  result.Reward.Title,
		"spent":   -result.Entry.Amount,
		"balance": result.Balance,
	})
}

type bookRequest struct {
	ServiceName string    `json:"service_name" binding:"required"`
	AmountCents int64     `json:"amount_cents" binding:"min=0"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// BookAppointment schedules a visit for the calling member.
func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "service_name and scheduled_at are required")
		return
	}

	appointment, err := h.deps.Appointments.Book(c.Request.Context(), accountID(c), req.ServiceName, req.AmountCents, req.ScheduledAt)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, appointment)
}

// ListAppointments returns the member's appointments, newest first.
func (h *Handler) ListAppointments(c *gin.Context) {
	appointments, err := h.deps.Appointments.ListByAccount(c.Request.Context(), accountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, appointments)
}
