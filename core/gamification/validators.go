package gamification

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/skillfolio/core"
)

var (
	tierTag  = "badgetier"
	tierText = "tier must be one of: bronze, silver, gold, platinum"

	criterionTag  = "badgecriterion"
	criterionText = "unknown badge criterion"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	tiers := make([]string, 0, len(Tiers))
	for _, t := range Tiers {
		tiers = append(tiers, string(t))
	}
	core.RegisterOneOf(validate, translator, tierTag, tierText, tiers...)
	core.RegisterOneOf(validate, translator, criterionTag, criterionText, Criteria...)
}

type (
	NewBadge struct {
		Code        string `json:"code" yaml:"code" validate:"required,slug,max=60"`
		Name        string `json:"name" yaml:"name" validate:"required,notblank,max=100"`
		Description string `json:"description" yaml:"description" validate:"max=500"`
		Icon        string `json:"icon" yaml:"icon" validate:"max=200"`
		Tier        Tier   `json:"tier" yaml:"tier" validate:"required,badgetier"`
		Criterion   string `json:"criterion" yaml:"criterion" validate:"required,badgecriterion"`
		Threshold   int    `json:"threshold" yaml:"threshold" validate:"min=1"`
		XPBonus     int    `json:"xp_bonus" yaml:"xp_bonus" validate:"min=0,max=10000"`
		IsActive    *bool  `json:"is_active" yaml:"is_active"`
	}

	UpdateBadge struct {
		Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
		Description *string `json:"description" validate:"omitempty,max=500"`
		Icon        *string `json:"icon" validate:"omitempty,max=200"`
		Tier        *Tier   `json:"tier" validate:"omitempty,badgetier"`
		Criterion   *string `json:"criterion" validate:"omitempty,badgecriterion"`
		Threshold   *int    `json:"threshold" validate:"omitempty,min=1"`
		XPBonus     *int    `json:"xp_bonus" validate:"omitempty,min=0,max=10000"`
		IsActive    *bool   `json:"is_active"`
	}
)

func (nb *NewBadge) Validate(validate *validator.Validate) error {
	nb.Code = core.CleanString(nb.Code, true /* lower */)
	nb.Name = core.CleanString(nb.Name)
	nb.Description = core.CleanString(nb.Description)
	nb.Icon = core.CleanString(nb.Icon)
	return validate.Struct(nb)
}

func (ub *UpdateBadge) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ub.Name, ub.Description, ub.Icon} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(ub)
}
