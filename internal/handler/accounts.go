package handler

import (
	"github.com/gin-gonic/gin"

	"prive-club/internal/model"
)

type signupRequest struct {
	Name         string  `json:"name" binding:"required"`
	ReferralCode *string `json:"referral_code"`
}

type accountView struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Balance      int64   `json:"balance"`
	ReferralCode string  `json:"referral_code"`
	ReferredBy   *string `json:"referred_by,omitempty"`
	Active       bool    `json:"active"`
}

func toAccountView(a *model.Account) accountView {
	return accountView{
		ID:           a.ID,
		Name:         a.Name,
		Balance:      a.Balance,
		ReferralCode: a.ReferralCode,
		ReferredBy:   a.ReferredBy,
		Active:       a.Active,
	}
}

// Signup enrolls a new member, optionally crediting a referrer.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ParamError(c, "name is required")
		return
	}

	result, err := h.deps.Accounts.Signup(c.Request.Context(), req.Name, req.ReferralCode)
	if err != nil {
		Fail(c, err)
		return
	}

	resp := gin.H{"account": toAccountView(result.Account)}
	if result.ReferralGrant != nil {
		resp["referral_bonus_paid"] = result.ReferralGrant.Amount
	}
	Success(c, resp)
}
