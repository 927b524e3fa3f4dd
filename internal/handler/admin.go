package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"prive-club/internal/model"
	"prive-club/internal/service"
)

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ParamError(c, "invalid id")
		return 0, false
	}
	return id, true
}

type memberView struct {
	Account      accountView `json:"account"`
	Tier         string      `json:"tier"`
	PointsToNext int64       `json:"points_to_next"`
}

func toMemberViews(members []service.Member) []memberView {
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			Account:      toAccountView(m.Account),
			Tier:         m.Tier.Name,
			PointsToNext: m.PointsToNext,
		})
	}
	return views
}

// Members lists the active roster with derived tiers.
func (h *Handler) Members(c *gin.Context) {
	members, err := h.deps.Membership.Members(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toMemberViews(members))
}

// MembersNearUpgrade lists members close to their next tier.
func (h *Handler) MembersNearUpgrade(c *gin.Context) {
	fraction := 0.8
	if raw := c.Query("fraction"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			ParamError(c, "fraction must be between 0 and 1")
			return
		}
		fraction = parsed
	}

	members, err := h.deps.Membership.MembersNearUpgrade(c.Request.Context(), fraction)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toMemberViews(members))
}

// MemberSummary shows a member's standing to staff.
func (h *Handler) MemberSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	summary, err := h.deps.Loyalty.Summary(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toSummaryView(summary))
}

// MemberHistory shows a member's full ledger to staff.
func (h *Handler) MemberHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.deps.Loyalty.History(c.Request.Context(), id, nil)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toEntryViews(entries))
}

type grantRequest struct {
	Code        string  `json:"code" binding:"required"`
	AmountCents int64   `json:"amount_cents" binding:"min=0"`
	Description *string `json:"description"`
}

// GrantAction records an action for a member at the front desk: a check-in,
// a story share, a testimonial.
func (h *Handler) GrantAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "code is required")
		return
	}

	grant, err := h.deps.Loyalty.Grant(c.Request.Context(), id, req.Code, req.AmountCents, req.Description)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toGrantView(grant))
}

type adjustRequest struct {
	Amount      int64   `json:"amount" binding:"required"`
	Description *string `json:"description"`
}

// Adjust appends a signed manual correction to a member's ledger.
func (h *Handler) Adjust(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "a non-zero amount is required")
		return
	}

	result, err := h.deps.Loyalty.AdminAdjust(c.Request.Context(), id, req.Amount, req.Description)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, toGrantView(result))
}

// ReconcileMember recomputes a member's cached balance from the ledger.
func (h *Handler) ReconcileMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	balance, err := h.deps.Loyalty.Reconcile(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"balance": balance})
}

// DeactivateMember marks a member inactive. History is preserved.
func (h *Handler) DeactivateMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deps.Accounts.Deactivate(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// Rules lists every reward rule, active or not.
func (h *Handler) Rules(c *gin.Context) {
	rules, err := h.deps.Admin.Rules(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rules)
}

type ruleRequest struct {
	Description    string  `json:"description"`
	Points         float64 `json:"points" binding:"required,gt=0"`
	PerAmountCents int64   `json:"per_amount_cents" binding:"min=0"`
	Active         *bool   `json:"active"`
}

// UpsertRule creates or updates the rule for an action code.
func (h *Handler) UpsertRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "points must be positive")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rule, err := h.deps.Admin.UpsertRule(c.Request.Context(), &model.RewardRule{
		Code:           c.Param("code"),
		Description:    req.Description,
		Points:         req.Points,
		PerAmountCents: req.PerAmountCents,
		Active:         active,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rule)
}

type toggleRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ToggleRule switches a rule on or off without touching its values.
func (h *Handler) ToggleRule(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "active is required")
		return
	}
	if err := h.deps.Admin.SetRuleActive(c.Request.Context(), c.Param("code"), *req.Active); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

type tiersRequest struct {
	Tiers []struct {
		Name      string `json:"name" binding:"required"`
		MinPoints int64  `json:"min_points" binding:"min=0"`
	} `json:"tiers" binding:"required,min=1"`
}

// ReplaceTiers swaps the whole tier ladder.
func (h *Handler) ReplaceTiers(c *gin.Context) {
	var req tiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "a non-empty tier list is required")
		return
	}

	tiers := make([]model.Tier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tiers = append(tiers, model.Tier{Name: t.Name, MinPoints: t.MinPoints})
	}
	saved, err := h.deps.Admin.ReplaceTiers(c.Request.Context(), tiers)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, saved)
}

// AdminRewards lists the full catalog including disabled rewards.
func (h *Handler) AdminRewards(c *gin.Context) {
	rewards, err := h.deps.Redemptions.Catalog(c.Request.Context(), true)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rewards)
}

type rewardRequest struct {
	Title      string `json:"title" binding:"required"`
	Category   string `json:"category"`
	PointsCost int64  `json:"points_cost" binding:"required,gt=0"`
	Stock      *int   `json:"stock"`
	Rules      string `json:"rules"`
	Active     *bool  `json:"active"`
}

func (r *rewardRequest) toModel(id int64) *model.Reward {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &model.Reward{
		ID:         id,
		Title:      r.Title,
		Category:   r.Category,
		PointsCost: r.PointsCost,
		Stock:      r.Stock,
		Rules:      r.Rules,
		Active:     active,
	}
}

// CreateReward adds a catalog reward.
func (h *Handler) CreateReward(c *gin.Context) {
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "title and a positive points_cost are required")
		return
	}
	reward, err := h.deps.Admin.CreateReward(c.Request.Context(), req.toModel(0))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, reward)
}

// UpdateReward replaces a reward's editable fields.
func (h *Handler) UpdateReward(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "title and a positive points_cost are required")
		return
	}
	reward, err := h.deps.Admin.UpdateReward(c.Request.Context(), req.toModel(id))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, reward)
}

// Campaigns lists every campaign, newest first.
func (h *Handler) Campaigns(c *gin.Context) {
	campaigns, err := h.deps.Admin.Campaigns(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, campaigns)
}

type campaignRequest struct {
	Name        string     `json:"name" binding:"required"`
	Multiplier  int        `json:"multiplier" binding:"required,gte=2"`
	TargetTiers []string   `json:"target_tiers" binding:"required,min=1"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	NotifyTitle string     `json:"notify_title"`
	NotifyBody  string     `json:"notify_body"`
}

// CreateCampaign stores a campaign in the inactive state.
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "name, a multiplier of at least 2 and target tiers are required")
		return
	}

	campaign, err := h.deps.Admin.CreateCampaign(c.Request.Context(), &model.Campaign{
		Name:        req.Name,
		Multiplier:  req.Multiplier,
		TargetTiers: req.TargetTiers,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		NotifyTitle: req.NotifyTitle,
		NotifyBody:  req.NotifyBody,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, campaign)
}

// ActivateCampaign switches a campaign on and announces it to the staff
// channel. A failed announcement does not roll back the activation.
func (h *Handler) ActivateCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	campaign, err := h.deps.Admin.SetCampaignActive(c.Request.Context(), id, true)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := h.deps.Notifier.CampaignLaunched(c.Request.Context(), campaign); err != nil {
		log.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("Campaign launch notification failed")
	}
	Success(c, campaign)
}

// DeactivateCampaign switches a campaign off.
func (h *Handler) DeactivateCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	campaign, err := h.deps.Admin.SetCampaignActive(c.Request.Context(), id, false)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, campaign)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionAppointment moves an appointment through its lifecycle.
// Completion pays out the base generation accrual.
func (h *Handler) TransitionAppointment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "status is required")
		return
	}

	result, err := h.deps.Appointments.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		Fail(c, err)
		return
	}

	resp := gin.H{"appointment": result.Appointment}
	if result.Accrual != nil {
		resp["accrual"] = toGrantView(result.Accrual)
	}
	Success(c, resp)
}
