package marketservice

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/models"
)

var loginPattern = regexp.MustCompile(`^[\p{L}\p{N}_.\-]+$`)

// Review ratings are whole stars.
const (
	MinEstimation = 1
	MaxEstimation = 5
)

func loginRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(1, 64), validation.Match(loginPattern)}
}

func validateNewUser(u models.NewUser) error {
	return invalid(validation.ValidateStruct(&u,
		validation.Field(&u.Login, loginRules()...),
		validation.Field(&u.Password, validation.Required, validation.Length(1, 256)),
		validation.Field(&u.Role, validation.Required, validation.In(models.RoleMaster, models.RoleBuyer, models.RoleAdmin)),
		validation.Field(&u.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&u.Age, validation.Min(int64(0)), validation.Max(int64(150))),
	))
}

func validateProfile(p models.UserProfile) error {
	return invalid(validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Age, validation.Min(int64(0)), validation.Max(int64(150))),
	))
}

func validateStatus(status string) error {
	return invalid(validation.Validate(status, validation.Required, validation.In(models.StatusActive, models.StatusBlocked)))
}

func validateAttrs(a models.AnnouncementAttrs) error {
	return invalid(validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&a.Width, validation.Min(0.0)),
		validation.Field(&a.Height, validation.Min(0.0)),
		validation.Field(&a.Length, validation.Min(0.0)),
		validation.Field(&a.Weight, validation.Min(0.0)),
		validation.Field(&a.Amount, validation.Min(int64(0))),
		validation.Field(&a.Price, validation.Min(0.0)),
	))
}

func validateReview(text string, estimation int64) error {
	if err := validateText(text); err != nil {
		return err
	}
	return invalid(validation.Validate(estimation, validation.Required, validation.Min(int64(MinEstimation)), validation.Max(int64(MaxEstimation))))
}

func validateText(text string) error {
	return invalid(validation.Validate(text, validation.Required, validation.Length(1, 4000)))
}

func validateLogin(login string) error {
	return invalid(validation.Validate(login, loginRules()...))
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
}
